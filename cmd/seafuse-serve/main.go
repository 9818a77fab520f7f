// Command seafuse-serve exposes a repository's read path over HTTP.
package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/jforberg/seafuse"
	"github.com/jforberg/seafuse/httpserve"
)

func main() {
	repoPath := flag.String("repo", "", "path to the repository root (required)")
	uuid := flag.String("uuid", "", "repository uuid (required)")
	commit := flag.String("commit", "", "serve a specific commit id instead of the head commit")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	if *repoPath == "" || *uuid == "" {
		log.Fatalf("usage: seafuse-serve -repo PATH -uuid UUID [-commit ID] [-addr ADDR]")
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

	srv := httpserve.New(lib)

	log.Printf("seafuse-serve: listening on %s", *addr)
	if err := http.ListenAndServe(*addr, srv.Router()); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
