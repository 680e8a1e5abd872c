package pagemanager

import (
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi"
)

func printroutes(w io.Writer) func(string, string, http.Handler, ...func(http.Handler) http.Handler) error {
	return func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		if method == "GET" && !strings.HasSuffix(route, "*") {
			fmt.Fprintln(w, route, "[internal handler]")
		}
		return nil
	}
}

// printpages lists the URL of every page file under root.
func printpages(w io.Writer, root fs.FS) {
	_ = fs.WalkDir(root, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(name) != ".html" {
			return nil
		}
		url := "/" + strings.TrimSuffix(name, ".html")
		if name == "index.html" {
			url = "/"
		}
		fmt.Fprintln(w, url, "[page]")
		return nil
	})
}

// FileServer conveniently sets up a http.FileServer handler to serve
// static files from a http.FileSystem.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit any URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, r)
	})
}
