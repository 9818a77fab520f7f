package seafuse

import "path/filepath"

// objectKind identifies which of the three object stores a Hash is being
// resolved against. Named the way the teacher names its ObjectType enum, but
// scoped to the three read-only stores this repository format exposes.
type objectKind byte

const (
	objectKindCommit objectKind = iota
	objectKindFS
	objectKindBlock
)

func (k objectKind) String() string {
	switch k {
	case objectKindCommit:
		return "commits"
	case objectKindFS:
		return "fs"
	case objectKindBlock:
		return "blocks"
	default:
		return "unknown"
	}
}

// objTypePath returns the directory holding every object of the given kind
// for this library location: repo_path/T/uuid.
func (ll *LibraryLocation) objTypePath(kind objectKind) string {
	return filepath.Join(ll.RepoPath, kind.String(), ll.UUID)
}

// objPath returns the on-disk path of a single object: repo_path/T/uuid/hh/rest.
func (ll *LibraryLocation) objPath(kind objectKind, id Hash) string {
	hexID := id.String()
	return filepath.Join(ll.objTypePath(kind), hexID[:2], hexID[2:])
}
