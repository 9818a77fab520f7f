// Command seafuse-mount mounts a repository read-only at a directory using
// FUSE.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bazil.org/fuse"

	"github.com/jforberg/seafuse"
	"github.com/jforberg/seafuse/fuseadapter"
)

func main() {
	repoPath := flag.String("repo", "", "path to the repository root (required)")
	uuid := flag.String("uuid", "", "repository uuid (required)")
	commit := flag.String("commit", "", "mount a specific commit id instead of the head commit")
	flag.Parse()

	if *repoPath == "" || *uuid == "" || flag.NArg() != 1 {
		log.Fatalf("usage: seafuse-mount -repo PATH -uuid UUID [-commit ID] MOUNTPOINT")
	}
	mountpoint := flag.Arg(0)

	lib, err := openLibrary(*repoPath, *uuid, *commit)
	if err != nil {
		log.Fatalf("open repository: %v", err)
	}
	defer lib.Close()

	conn, err := fuse.Mount(
		mountpoint,
		fuse.ReadOnly(),
		fuse.FSName("seafuse"),
		fuse.Subtype("seafuse"),
	)
	if err != nil {
		log.Fatalf("mount %s: %v", mountpoint, err)
	}
	defer conn.Close()

	adapter := fuseadapter.New(lib)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Printf("seafuse-mount: signal received, unmounting %s", mountpoint)
		fuse.Unmount(mountpoint)
	}()

	if err := adapter.Serve(conn); err != nil {
		log.Fatalf("serve: %v", err)
	}

	<-conn.Ready
	if err := conn.MountError; err != nil {
		log.Fatalf("mount error: %v", err)
	}
}

func openLibrary(repoPath, uuid, commit string) (*seafuse.Library, error) {
	if commit == "" {
		return seafuse.Open(repoPath, uuid)
	}

	id, err := seafuse.ParseHash(commit)
	if err != nil {
		return nil, err
	}
	return seafuse.OpenForCommit(repoPath, uuid, id)
}
