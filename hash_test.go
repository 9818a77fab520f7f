package seafuse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashRoundtrip(t *testing.T) {
	const raw = "e40b894880747010bf6ec384b83e578f352beed7"

	h, err := ParseHash(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, h.String())
}

func TestHashMalformed(t *testing.T) {
	_, err := ParseHash("1234")
	assert.Error(t, err)

	_, err = ParseHash(strings.Repeat("z", HashSize*2))
	assert.Error(t, err)
}

func TestEmptyHashIsZeroValue(t *testing.T) {
	var h Hash
	assert.True(t, h.IsEmpty())

	h[0] = 1
	assert.False(t, h.IsEmpty())
}
