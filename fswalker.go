package seafuse

import "path"

// FsWalker is a lazy, depth-first cursor over a library's fs tree, starting
// at the head commit's root. Each call to Next yields the next reachable
// Dirent together with the path of its parent directory and its decoded
// fs-node. Prune discards the remainder of the directory currently being
// visited; Clear forces the walk to end (spec.md §4.2).
type FsWalker struct {
	lib   *Library
	state walkState

	// stack holds one frame per directory "above" and including the
	// current one, innermost last. Each frame's dirents are drained from
	// the end as they are visited. path is the path to the directory on
	// top of the stack.
	stack []walkFrame
	path  string
}

type walkState int

const (
	walkStateRoot walkState = iota
	walkStateWalking
	walkStateCleared
)

type walkFrame struct {
	dirents []Dirent
}

func newFsWalker(lib *Library) *FsWalker {
	return &FsWalker{lib: lib, state: walkStateRoot}
}

// Next advances the cursor. It returns (parentPath, dirent, node, nil, true)
// for each reachable entry exactly once, or ("", Dirent{}, FsNode{}, nil,
// false) once the walk is exhausted. A LoadFS failure is returned as err
// with ok=true; the walker's internal position is not advanced past the
// failing dirent (or past the root, if the root fails to load), so a caller
// may retry.
func (w *FsWalker) Next() (parentPath string, de Dirent, node FsNode, err error, ok bool) {
	switch w.state {
	case walkStateCleared:
		return "", Dirent{}, FsNode{}, nil, false

	case walkStateRoot:
		root, err := w.lib.LoadFS(w.lib.HeadCommit.RootID)
		if err != nil {
			return "", Dirent{}, FsNode{}, err, true
		}

		rootDir, err := root.AsDir()
		if err != nil {
			return "", Dirent{}, FsNode{}, err, true
		}

		w.stack = []walkFrame{{dirents: rootDir.Dirents}}
		w.path = ""
		w.state = walkStateWalking

		return w.stepWalking()

	default: // walkStateWalking
		return w.stepWalking()
	}
}

func (w *FsWalker) stepWalking() (string, Dirent, FsNode, error, bool) {
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]

		if len(top.dirents) == 0 {
			w.popFrame()
			continue
		}

		// Pop from the end; order among siblings is not guaranteed. The
		// dirent is only removed once its fs-node has loaded.
		de := top.dirents[len(top.dirents)-1]

		node, err := w.lib.LoadFS(de.ID)
		if err != nil {
			return "", Dirent{}, FsNode{}, err, true
		}

		top.dirents = top.dirents[:len(top.dirents)-1]

		pathBefore := w.path

		if node.IsDir() {
			dir, _ := node.AsDir()
			w.stack = append(w.stack, walkFrame{dirents: dir.Dirents})
			w.path = path.Join(w.path, de.Name)
		}

		return pathBefore, de, node, nil, true
	}

	return "", Dirent{}, FsNode{}, nil, false
}

func (w *FsWalker) popFrame() {
	w.stack = w.stack[:len(w.stack)-1]
	w.path = path.Dir(w.path)
	if w.path == "." {
		w.path = ""
	}
}

// Prune discards the directory frame currently being visited. If called
// before the first Next (Root state) or once the stack is already empty,
// the walker clears entirely. Otherwise the next Next resumes from the
// parent directory's remaining siblings.
func (w *FsWalker) Prune() {
	switch w.state {
	case walkStateRoot:
		w.Clear()
	case walkStateWalking:
		if len(w.stack) == 0 {
			w.Clear()
			return
		}
		w.popFrame()
	}
}

// Clear forces the walk to terminate; every subsequent Next returns false.
func (w *FsWalker) Clear() {
	w.state = walkStateCleared
	w.stack = nil
	w.path = ""
}
