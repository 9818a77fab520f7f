// Package httpserve exposes a Library's read path over HTTP: a commit list,
// a directory/file browser, and raw block access. It serves the same reads
// the FUSE adapter and extractor use, grounded in the teacher's
// cmd/stemma-httpserver handler style but read-only throughout — no
// replication or push endpoints (spec.md's Non-goals exclude remote sync).
package httpserve

import (
	"encoding/json"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/mux"

	"github.com/jforberg/seafuse"
)

// Server wires a Library into a *mux.Router.
type Server struct {
	lib *seafuse.Library
}

// New builds a Server for lib.
func New(lib *seafuse.Library) *Server {
	return &Server{lib: lib}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/commits", s.handleCommits).Methods(http.MethodGet)
	r.HandleFunc("/tree/{path:.*}", s.handleTree).Methods(http.MethodGet)
	r.HandleFunc("/blob/{hash}", s.handleBlob).Methods(http.MethodGet)
	return r
}

type commitView struct {
	CommitID    string `json:"commit_id"`
	RepoName    string `json:"repo_name"`
	Description string `json:"description"`
	Ctime       uint64 `json:"ctime"`
}

func (s *Server) handleCommits(w http.ResponseWriter, r *http.Request) {
	scanner, err := s.lib.CommitIterator()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var out []commitView
	for {
		c, err, ok := scanner.Next()
		if !ok {
			break
		}
		if err != nil {
			continue
		}
		out = append(out, commitView{
			CommitID:    c.CommitID.String(),
			RepoName:    c.RepoName,
			Description: c.Description,
			Ctime:       c.Ctime,
		})
	}

	writeJSON(w, out)
}

type direntView struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	IsDir bool   `json:"is_dir"`
}

// handleTree resolves {path} from the head commit's root and returns either
// a JSON directory listing or the raw bytes of a file.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	reqPath := strings.Trim(mux.Vars(r)["path"], "/")

	node, err := s.resolve(reqPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if node.IsDir() {
		dir, _ := node.AsDir()
		out := make([]direntView, 0, len(dir.Dirents))
		for _, de := range dir.Dirents {
			child, err := s.lib.LoadFS(de.ID)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, direntView{Name: de.Name, ID: de.ID.String(), IsDir: child.IsDir()})
		}
		writeJSON(w, out)
		return
	}

	file, _ := node.AsFile()
	fr, err := s.lib.FileReader(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	io.Copy(w, fr)
}

// resolve walks from the head commit's root along reqPath's components.
func (s *Server) resolve(reqPath string) (seafuse.FsNode, error) {
	node, err := s.lib.LoadFS(s.lib.HeadCommit.RootID)
	if err != nil {
		return seafuse.FsNode{}, err
	}
	if reqPath == "" {
		return node, nil
	}

	for _, name := range strings.Split(path.Clean(reqPath), "/") {
		dir, err := node.AsDir()
		if err != nil {
			return seafuse.FsNode{}, seafuse.ErrWrongFsType
		}

		var next *seafuse.Dirent
		for i := range dir.Dirents {
			if dir.Dirents[i].Name == name {
				next = &dir.Dirents[i]
				break
			}
		}
		if next == nil {
			return seafuse.FsNode{}, seafuse.ErrPathNotFound
		}

		node, err = s.lib.LoadFS(next.ID)
		if err != nil {
			return seafuse.FsNode{}, err
		}
	}

	return node, nil
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	hexHash := mux.Vars(r)["hash"]

	id, err := seafuse.ParseHash(hexHash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	block, err := s.lib.OpenBlock(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer block.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	io.Copy(w, block)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.Encode(v)
}
