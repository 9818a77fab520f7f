// Command seafuse-extract materializes a repository's fs-tree to disk.
package main

import (
	"flag"
	"log"
	"sync"
	"time"

	"github.com/sethgrid/multibar"

	"github.com/jforberg/seafuse"
	"github.com/jforberg/seafuse/extract"
)

func main() {
	repoPath := flag.String("repo", "", "path to the repository root (required)")
	uuid := flag.String("uuid", "", "repository uuid (required)")
	commit := flag.String("commit", "", "extract a specific commit id instead of the head commit")
	prefix := flag.String("prefix", "", "only extract the subtree rooted at this path")
	dest := flag.String("dest", "", "destination directory (required)")
	flag.Parse()

	if *repoPath == "" || *uuid == "" || *dest == "" {
		log.Fatalf("usage: seafuse-extract -repo PATH -uuid UUID -dest DIR [-prefix PATH] [-commit ID]")
	}

	var lib *seafuse.Library
	var err error
	if *commit == "" {
		lib, err = seafuse.Open(*repoPath, *uuid)
	} else {
		var id seafuse.Hash
		id, err = seafuse.ParseHash(*commit)
		if err == nil {
			lib, err = seafuse.OpenForCommit(*repoPath, *uuid, id)
		}
	}
	if err != nil {
		log.Fatalf("open repository: %v", err)
	}
	defer lib.Close()

	ex := extract.New(lib, *dest, *prefix)

	progBars, err := multibar.New()
	if err != nil {
		log.Fatalf("unable to initialize progress bars: %s", err)
	}

	objectsBar := progBars.MakeBar(1, "Objects copied")
	bytesBar := progBars.MakeBar(1, "Bytes copied  ")
	go progBars.Listen()

	var latest extract.Progress
	var mu sync.Mutex
	ex.OnProgress(func(p extract.Progress) {
		mu.Lock()
		latest = p
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err := ex.Run()
		if err != nil {
			log.Fatalf("extract: %v", err)
		}
		mu.Lock()
		latest = result
		mu.Unlock()
	}()

	for {
		mu.Lock()
		p := latest
		mu.Unlock()

		objectsBar(p.Objects)
		bytesBar(int(p.Bytes))

		select {
		case <-done:
			mu.Lock()
			p := latest
			mu.Unlock()
			objectsBar(p.Objects)
			bytesBar(int(p.Bytes))
			return
		default:
			time.Sleep(100 * time.Millisecond)
		}
	}
}
