package fuseadapter

import (
	"io"
	"os"
	"syscall"
	"time"

	"bazil.org/fuse"

	"github.com/jforberg/seafuse"
)

// doLookup resolves a child name within the directory at parentIno, assigning
// it a stable inode if this is the first time it has been seen.
func (a *Adapter) doLookup(parentIno uint64, name string) (fuse.Attr, syscall.Errno) {
	a.mu.Lock()
	defer a.mu.Unlock()

	parentHash, ok := a.inoToHash[parentIno]
	if !ok {
		// Every inode a kernel request names was handed out by this adapter
		// in an earlier response; its absence here means the inode table
		// itself is broken, not that the lookup target is missing.
		return fuse.Attr{}, syscall.EIO
	}

	node, err := a.lib.LoadFS(parentHash)
	if err != nil {
		return fuse.Attr{}, syscall.EIO
	}

	dir, err := node.AsDir()
	if err != nil {
		return fuse.Attr{}, syscall.ENOTDIR
	}

	for _, de := range dir.Dirents {
		if de.Name != name {
			continue
		}

		child, err := a.lib.LoadFS(de.ID)
		if err != nil {
			return fuse.Attr{}, syscall.EIO
		}

		ino := a.internIno(de.ID)
		return a.attrFor(ino, child), 0
	}

	return fuse.Attr{}, syscall.ENOENT
}

// doGetattr reports the attributes of the fs-node currently interned at ino.
func (a *Adapter) doGetattr(ino uint64) (fuse.Attr, syscall.Errno) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.inoToHash[ino]
	if !ok {
		return fuse.Attr{}, syscall.EIO
	}

	node, err := a.lib.LoadFS(h)
	if err != nil {
		return fuse.Attr{}, syscall.EIO
	}

	return a.attrFor(ino, node), 0
}

// direntEntry is one row of a rendered directory listing.
type direntEntry struct {
	ino  uint64
	typ  fuse.DirentType
	name string
}

// doReaddir lists the directory at ino, interning an inode for every child.
func (a *Adapter) doReaddir(ino uint64) ([]direntEntry, syscall.Errno) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.inoToHash[ino]
	if !ok {
		return nil, syscall.EIO
	}

	node, err := a.lib.LoadFS(h)
	if err != nil {
		return nil, syscall.EIO
	}

	dir, err := node.AsDir()
	if err != nil {
		return nil, syscall.ENOTDIR
	}

	entries := make([]direntEntry, 0, len(dir.Dirents)+2)
	entries = append(entries,
		direntEntry{ino: ino, typ: fuse.DT_Dir, name: "."},
		direntEntry{ino: ino, typ: fuse.DT_Dir, name: ".."},
	)

	for _, de := range dir.Dirents {
		child, err := a.lib.LoadFS(de.ID)
		if err != nil {
			return nil, syscall.EIO
		}

		childIno := a.internIno(de.ID)
		typ := fuse.DT_File
		if child.IsDir() {
			typ = fuse.DT_Dir
		}

		entries = append(entries, direntEntry{ino: childIno, typ: typ, name: de.Name})
	}

	return entries, 0
}

// doOpen opens the File fs-node at ino for reading, returning a fresh file
// handle.
func (a *Adapter) doOpen(ino uint64) (uint64, syscall.Errno) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.inoToHash[ino]
	if !ok {
		return 0, syscall.EIO
	}

	node, err := a.lib.LoadFS(h)
	if err != nil {
		return 0, syscall.EIO
	}

	file, err := node.AsFile()
	if err != nil {
		return 0, syscall.EINVAL
	}

	fr, err := a.lib.FileReader(file)
	if err != nil {
		return 0, syscall.EIO
	}

	fh := a.nextHandle()
	a.openFiles[fh] = &openFile{reader: fr}
	return fh, 0
}

// doRead serves a read against a previously opened file handle.
func (a *Adapter) doRead(fh uint64, offset int64, size int) ([]byte, syscall.Errno) {
	a.mu.Lock()
	of, ok := a.openFiles[fh]
	a.mu.Unlock()

	if !ok {
		return nil, syscall.EBADF
	}

	if _, err := of.reader.Seek(offset, io.SeekStart); err != nil {
		return nil, syscall.EINVAL
	}

	buf := make([]byte, size)
	n, err := io.ReadFull(of.reader, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, syscall.EIO
	}

	return buf[:n], 0
}

// doRelease discards a previously opened file handle.
func (a *Adapter) doRelease(fh uint64) syscall.Errno {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.openFiles[fh]; !ok {
		return syscall.EBADF
	}

	delete(a.openFiles, fh)
	return 0
}

// internIno returns the stable inode for h, assigning the next counter value
// the first time h is seen.
func (a *Adapter) internIno(h seafuse.Hash) uint64 {
	if ino, ok := a.hashToIno[h]; ok {
		return ino
	}

	ino := a.inoCounter
	a.inoCounter++
	a.inoToHash[ino] = h
	a.hashToIno[h] = ino
	return ino
}

// nextHandle returns the next unused file handle, probing forward past any
// handle still in the open-file table.
func (a *Adapter) nextHandle() uint64 {
	for {
		fh := a.fhCounter
		a.fhCounter++
		if _, taken := a.openFiles[fh]; !taken {
			return fh
		}
	}
}

// epoch is used for every timestamp field: the repository format carries no
// per-object mtime usable as a POSIX time (Dirent.Mtime is producer-supplied
// and not authoritative for display), so attributes report the zero time
// uniformly rather than fabricate one.
var epoch = time.Unix(0, 0)

func (a *Adapter) attrFor(ino uint64, node seafuse.FsNode) fuse.Attr {
	attr := fuse.Attr{
		Inode: ino,
		Nlink: 1,
		Atime: epoch,
		Mtime: epoch,
		Ctime: epoch,
		Uid:   0,
		Gid:   0,
	}

	if node.IsDir() {
		attr.Mode = os.ModeDir | 0755
		attr.Size = 0
		return attr
	}

	file, _ := node.AsFile()
	attr.Mode = 0644
	attr.Size = file.Size
	return attr
}

// renderDirents serializes entries into the kernel's expected dirent stream
// format, honoring the requested offset/size window.
func renderDirents(entries []direntEntry, offset int64, size int) []byte {
	var data []byte
	for i, e := range entries {
		if int64(i) < offset {
			continue
		}
		data = fuse.AppendDirent(data, fuse.Dirent{
			Inode: e.ino,
			Type:  e.typ,
			Name:  e.name,
		})
	}

	if len(data) > size {
		data = data[:size]
	}
	return data
}
