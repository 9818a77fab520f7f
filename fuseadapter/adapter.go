// Package fuseadapter translates a bazil.org/fuse kernel request stream into
// operations against a seafuse.Library (spec.md §4.4). It works at the raw
// fuse.Request level rather than the higher-level fs.FS/fs.Node interfaces:
// the spec calls for one resolver owning an explicit inode table and
// open-file table, which maps directly onto dispatching raw requests rather
// than onto a tree of per-node objects.
package fuseadapter

import (
	"io"
	"log"
	"sync"
	"syscall"

	"bazil.org/fuse"

	"github.com/jforberg/seafuse"
)

// RootInode is the fixed inode number of the mount root.
const RootInode = 1

// Adapter dispatches kernel filesystem callbacks against a single Library.
// All state (the inode bimap, the open-file table, both counters) must only
// be touched while processing one request at a time: the spec requires a
// single-writer, no-reader-during-write invariant over this state, which
// mu enforces regardless of how many goroutines the transport uses to
// deliver requests (spec.md §5).
type Adapter struct {
	lib *seafuse.Library

	mu         sync.Mutex
	inoToHash  map[uint64]seafuse.Hash
	hashToIno  map[seafuse.Hash]uint64
	inoCounter uint64

	openFiles map[uint64]*openFile
	fhCounter uint64
}

type openFile struct {
	reader *seafuse.FileReader
}

// New builds an Adapter rooted at the library's head commit.
func New(lib *seafuse.Library) *Adapter {
	a := &Adapter{
		lib:        lib,
		inoToHash:  make(map[uint64]seafuse.Hash),
		hashToIno:  make(map[seafuse.Hash]uint64),
		inoCounter: RootInode + 1,
		openFiles:  make(map[uint64]*openFile),
		fhCounter:  1,
	}

	a.inoToHash[RootInode] = lib.HeadCommit.RootID
	a.hashToIno[lib.HeadCommit.RootID] = RootInode

	return a
}

// Serve reads requests from conn until the connection closes, dispatching
// each one serially. Per spec.md §5, the adapter does not spawn internal
// workers; if the transport wants concurrency it must still serialize
// access to this Adapter itself.
func (a *Adapter) Serve(conn *fuse.Conn) error {
	for {
		req, err := conn.ReadRequest()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		a.dispatch(req)
	}
}

func (a *Adapter) dispatch(req fuse.Request) {
	switch r := req.(type) {
	case *fuse.AccessRequest:
		r.Respond()

	case *fuse.LookupRequest:
		attr, errno := a.doLookup(uint64(r.Header.Node), r.Name)
		if errno != 0 {
			r.RespondError(fuse.Errno(errno))
			return
		}
		r.Respond(&fuse.LookupResponse{
			Node:       fuse.NodeID(attr.Inode),
			Attr:       attr,
			EntryValid: infiniteTTL,
			AttrValid:  infiniteTTL,
		})

	case *fuse.GetattrRequest:
		attr, errno := a.doGetattr(uint64(r.Header.Node))
		if errno != 0 {
			r.RespondError(fuse.Errno(errno))
			return
		}
		r.Respond(&fuse.GetattrResponse{Attr: attr, AttrValid: infiniteTTL})

	case *fuse.ReadRequest:
		if r.Dir {
			entries, errno := a.doReaddir(uint64(r.Header.Node))
			if errno != 0 {
				r.RespondError(fuse.Errno(errno))
				return
			}
			r.Respond(&fuse.ReadResponse{Data: renderDirents(entries, r.Offset, r.Size)})
			return
		}

		data, errno := a.doRead(uint64(r.Handle), r.Offset, r.Size)
		if errno != 0 {
			r.RespondError(fuse.Errno(errno))
			return
		}
		r.Respond(&fuse.ReadResponse{Data: data})

	case *fuse.OpenRequest:
		if r.Dir {
			r.Respond(&fuse.OpenResponse{Handle: fuse.HandleID(uint64(r.Header.Node))})
			return
		}

		fh, errno := a.doOpen(uint64(r.Header.Node))
		if errno != 0 {
			r.RespondError(fuse.Errno(errno))
			return
		}
		r.Respond(&fuse.OpenResponse{Handle: fuse.HandleID(fh)})

	case *fuse.ReleaseRequest:
		if r.Dir {
			r.Respond()
			return
		}

		if errno := a.doRelease(uint64(r.Handle)); errno != 0 {
			r.RespondError(fuse.Errno(errno))
			return
		}
		r.Respond()

	default:
		log.Printf("fuseadapter: unhandled request type %T", req)
		req.RespondError(fuse.Errno(syscall.ENOSYS))
	}
}

const infiniteTTL = oneYear

// the filesystem is immutable; there is no reason to ever invalidate a
// cached attribute or directory entry, so TTLs are simply very long.
const oneYear = 365 * 24 * 60 * 60 * 1e9 // nanoseconds, converted by the caller
