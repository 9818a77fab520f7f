package seafuse

import (
	"encoding/json"
	"fmt"
)

// errUnknownFsNode indicates the decoded JSON object has neither block_ids
// nor dirents and so cannot be classified as File or Dir.
var errUnknownFsNode = fmt.Errorf("fs-node has neither block_ids nor dirents")

// CommitNode is a node in the repository's commit history DAG. It references
// a root fs-node and up to two parents.
type CommitNode struct {
	CommitID       Hash    `json:"commit_id"`
	RootID         Hash    `json:"root_id"`
	RepoID         string  `json:"repo_id"`
	CreatorName    string  `json:"creator_name"`
	Creator        string  `json:"creator"`
	Description    string  `json:"description"`
	Ctime          uint64  `json:"ctime"`
	ParentID       *Hash   `json:"parent_id,omitempty"`
	SecondParentID *Hash   `json:"second_parent_id,omitempty"`
	RepoName       string  `json:"repo_name"`
	RepoDesc       string  `json:"repo_desc"`
	RepoCategory   *string `json:"repo_category,omitempty"`
	NoLocalHistory uint32  `json:"no_local_history"`
	Version        uint32  `json:"version"`
}

// Dirent is a named child of a Dir fs-node.
type Dirent struct {
	ID    Hash   `json:"id"`
	Mode  uint32 `json:"mode"`
	Mtime uint64 `json:"mtime"`
	Name  string `json:"name"`
}

// File is an fs-node whose bytes are the ordered concatenation of block
// objects referenced by BlockIDs.
type File struct {
	BlockIDs []Hash `json:"block_ids"`
	Size     uint64 `json:"size"`
	Ty       uint32 `json:"type"`
	Version  uint32 `json:"version"`
}

// Dir is an fs-node listing its children in stored order.
type Dir struct {
	Dirents []Dirent `json:"dirents"`
	Ty      uint32   `json:"type"`
	Version uint32   `json:"version"`
}

// emptyDir is synthesized whenever EmptyHash is resolved as a Dir, without
// reading any object from disk (spec.md §3, invariant 5).
var emptyDir = Dir{Dirents: []Dirent{}}

// FsNode is the discriminated union of File and Dir fs-nodes. The on-disk
// format carries no explicit type tag: exactly one of File or Dir is
// non-nil, decided structurally by which required field is present.
type FsNode struct {
	File *File
	Dir  *Dir
}

// IsDir reports whether this node is a Dir.
func (n FsNode) IsDir() bool {
	return n.Dir != nil
}

// AsFile returns the File variant, or ErrWrongFsType if this node is a Dir.
func (n FsNode) AsFile() (File, error) {
	if n.File == nil {
		return File{}, ErrWrongFsType
	}
	return *n.File, nil
}

// AsDir returns the Dir variant, or ErrWrongFsType if this node is a File.
func (n FsNode) AsDir() (Dir, error) {
	if n.Dir == nil {
		return Dir{}, ErrWrongFsType
	}
	return *n.Dir, nil
}

// decodeFsNode structurally decodes a File-or-Dir from raw (already
// decompressed) JSON bytes. A File is attempted first (it requires
// block_ids); a Dir is attempted next (it requires dirents); anything else
// is a decode failure. The "type" field is never used as the discriminator:
// its semantics vary across fs-node versions (spec.md §9).
func decodeFsNode(data []byte) (FsNode, error) {
	var probe struct {
		BlockIDs json.RawMessage `json:"block_ids"`
		Dirents  json.RawMessage `json:"dirents"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return FsNode{}, err
	}

	switch {
	case probe.BlockIDs != nil:
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return FsNode{}, err
		}
		return FsNode{File: &f}, nil
	case probe.Dirents != nil:
		var d Dir
		if err := json.Unmarshal(data, &d); err != nil {
			return FsNode{}, err
		}
		return FsNode{Dir: &d}, nil
	default:
		return FsNode{}, errUnknownFsNode
	}
}
