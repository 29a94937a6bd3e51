// Package router registers method-qualified routes on an http.ServeMux and
// wraps each one in the middleware stack of the router it was added to.
package router

import (
	"io/fs"
	"net/http"
	"slices"
	"strings"
)

// Middleware decorates a handler.
type Middleware func(http.Handler) http.Handler

// Router is a ServeMux plus the middleware every route added to it receives.
// Groups share the mux and extend the stack.
type Router struct {
	mux   *http.ServeMux
	stack []Middleware
}

// New returns a router whose routes all run through stack, outermost first.
func New(stack ...Middleware) *Router {
	return &Router{mux: http.NewServeMux(), stack: stack}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Group returns a router on the same mux whose routes also run through extra.
func (r *Router) Group(extra ...Middleware) *Router {
	return &Router{mux: r.mux, stack: r.extend(extra)}
}

func (r *Router) Get(pattern string, h http.HandlerFunc, extra ...Middleware) {
	r.Handle(http.MethodGet, pattern, h, extra...)
}

func (r *Router) Post(pattern string, h http.HandlerFunc, extra ...Middleware) {
	r.Handle(http.MethodPost, pattern, h, extra...)
}

// Handle registers h for method and pattern. The router's stack runs before
// the route's own extra middleware.
func (r *Router) Handle(method, pattern string, h http.Handler, extra ...Middleware) {
	r.mux.Handle(method+" "+pattern, build(h, r.extend(extra)))
}

// Static serves fsys below prefix, so "/static/" maps "/static/app.css" to
// "app.css" in fsys.
func (r *Router) Static(prefix string, fsys fs.FS) {
	base := strings.TrimSuffix(prefix, "/")
	r.Handle(http.MethodGet, base+"/{file...}", http.StripPrefix(base, http.FileServerFS(fsys)))
}

// extend never writes into r.stack, so sibling groups cannot clobber each other.
func (r *Router) extend(extra []Middleware) []Middleware {
	return append(slices.Clip(r.stack), extra...)
}

// build wraps h so that stack[0] is the outermost layer.
func build(h http.Handler, stack []Middleware) http.Handler {
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}
	return h
}
