package seafuse

import (
	"io"
	"os"
	"sort"
)

// BlockReader provides random-access reads over the virtual concatenation
// of a File's block_ids (spec.md §4.3). Construction stats every block
// object up front to learn its size; reads then open (and close) whichever
// block files a given range touches. No file descriptors are cached across
// calls.
type BlockReader struct {
	location    *LibraryLocation
	blockIDs    []Hash
	blockSizes  []int64
	blockStarts []int64
	size        int64
}

func newBlockReader(file File, location *LibraryLocation) (*BlockReader, error) {
	sizes := make([]int64, len(file.BlockIDs))
	starts := make([]int64, len(file.BlockIDs))

	var pos int64
	for i, id := range file.BlockIDs {
		path := location.objPath(objectKindBlock, id)

		fi, err := os.Stat(path)
		if err != nil {
			return nil, &IOError{Path: path, Cause: err}
		}

		sizes[i] = fi.Size()
		starts[i] = pos
		pos += fi.Size()
	}

	return &BlockReader{
		location:    location,
		blockIDs:    file.BlockIDs,
		blockSizes:  sizes,
		blockStarts: starts,
		size:        pos,
	}, nil
}

// Size returns the total byte length of the virtual concatenation.
func (br *BlockReader) Size() int64 {
	return br.size
}

// ReadAtOffset fills buf starting at the given byte offset into the virtual
// file, returning the number of bytes produced. Reading at or past the end
// of the file returns (0, nil); reading across the end returns fewer bytes
// than len(buf) without error.
func (br *BlockReader) ReadAtOffset(offset int64, buf []byte) (int, error) {
	if offset >= br.size {
		return 0, nil
	}

	blockIdx, blockOffset, ok := br.findStartBlock(offset)
	if !ok {
		return 0, nil
	}

	toRead := len(buf)
	haveRead := 0

	for haveRead < toRead && blockIdx < len(br.blockIDs) {
		blockSize := br.blockSizes[blockIdx]
		toReadThisBlock := int64(toRead - haveRead)
		if remaining := blockSize - blockOffset; remaining < toReadThisBlock {
			toReadThisBlock = remaining
		}

		path := br.location.objPath(objectKindBlock, br.blockIDs[blockIdx])
		if err := readBlockRange(path, blockOffset, buf[haveRead:haveRead+int(toReadThisBlock)]); err != nil {
			return haveRead, &IOError{Path: path, Cause: err}
		}

		haveRead += int(toReadThisBlock)
		blockIdx++
		blockOffset = 0
	}

	return haveRead, nil
}

func readBlockRange(path string, offset int64, dst []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	_, err = io.ReadFull(f, dst)
	return err
}

// findStartBlock locates the rightmost block whose start offset is at most
// offset, returning its index and the residual offset within that block.
func (br *BlockReader) findStartBlock(offset int64) (idx int, blockOffset int64, ok bool) {
	// bisect_right(block_starts, offset): first index whose start > offset.
	next := sort.Search(len(br.blockStarts), func(i int) bool {
		return br.blockStarts[i] > offset
	})
	if next == 0 {
		return 0, 0, false
	}

	idx = next - 1
	blockOffset = offset - br.blockStarts[idx]

	if blockOffset < br.blockSizes[idx] {
		return idx, blockOffset, true
	}

	return 0, 0, false
}

// FileReader wraps a BlockReader with a mutable stream position, giving it
// io.Reader and io.Seeker semantics over the virtual file (spec.md §4.3).
type FileReader struct {
	br      *BlockReader
	bytePos int64
}

func newFileReader(br *BlockReader) *FileReader {
	return &FileReader{br: br}
}

// Read implements io.Reader, delegating to ReadAtOffset at the current
// stream position and advancing it by the number of bytes produced. Once
// the position is at or past the end of the file, a read into a non-empty
// buf returns (0, io.EOF).
func (fr *FileReader) Read(buf []byte) (int, error) {
	n, err := fr.br.ReadAtOffset(fr.bytePos, buf)
	fr.bytePos += int64(n)
	if err != nil {
		return n, err
	}
	if n == 0 && len(buf) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Seek implements io.Seeker. Seeking past the end of the file is permitted;
// subsequent reads then return 0 bytes (stream semantics on an overshoot).
// Seek never touches the filesystem.
func (fr *FileReader) Seek(offset int64, whence int) (int64, error) {
	var newPos int64

	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekEnd:
		newPos = fr.br.size + offset
	case io.SeekCurrent:
		newPos = fr.bytePos + offset
	default:
		return fr.bytePos, os.ErrInvalid
	}

	if newPos < 0 {
		return fr.bytePos, os.ErrInvalid
	}

	fr.bytePos = newPos
	return fr.bytePos, nil
}

// Size reports the total size of the underlying virtual file.
func (fr *FileReader) Size() int64 {
	return fr.br.size
}
