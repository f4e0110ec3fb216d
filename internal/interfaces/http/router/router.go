// Package router mounts the admin API groups under a versioned prefix.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registrar mounts its routes on a parent group
type Registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects groups and mounts them under /api/<version>. Middleware
// added with Use runs for the versioned groups only, so probes mounted
// directly on the engine stay unauthenticated.
type Router struct {
	engine  *gin.Engine
	version string
	chain   []gin.HandlerFunc
	groups  []Registrar
}

// Option configures a Router
type Option func(*Router)

// WithAPIVersion sets the version segment of the prefix
func WithAPIVersion(version string) Option {
	return func(r *Router) {
		r.version = version
	}
}

// NewRouter returns a Router for engine, defaulting to v1
func NewRouter(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prefix returns the mount point of the versioned groups
func (r *Router) Prefix() string {
	return "/api/" + r.version
}

// Use appends middleware to the versioned chain
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.chain = append(r.chain, middleware...)
	return r
}

// Register queues a group for Setup
func (r *Router) Register(g Registrar) *Router {
	r.groups = append(r.groups, g)
	return r
}

// Setup mounts every registered group in registration order
func (r *Router) Setup() {
	api := r.engine.Group(r.Prefix(), r.chain...)
	for _, g := range r.groups {
		g.RegisterRoutes(api)
	}
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// Group is a named set of routes sharing a path prefix and middleware
type Group struct {
	name     string
	prefix   string
	chain    []gin.HandlerFunc
	routes   []route
	children []*Group
}

// NewGroup returns an empty group mounted at prefix
func NewGroup(name, prefix string) *Group {
	return &Group{name: name, prefix: prefix}
}

// Name returns the group name
func (g *Group) Name() string { return g.name }

// Prefix returns the path prefix relative to the parent
func (g *Group) Prefix() string { return g.prefix }

// Use appends middleware that runs for this group and its children
func (g *Group) Use(middleware ...gin.HandlerFunc) *Group {
	g.chain = append(g.chain, middleware...)
	return g
}

// Handle adds a route
func (g *Group) Handle(method, path string, handlers ...gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

func (g *Group) GET(path string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodGet, path, handlers...)
}

func (g *Group) POST(path string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodPost, path, handlers...)
}

func (g *Group) PUT(path string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodPut, path, handlers...)
}

func (g *Group) PATCH(path string, handlers ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodPatch, path, handlers...)
}

// Child adds a nested group
func (g *Group) Child(name, prefix string) *Group {
	c := NewGroup(name, prefix)
	g.children = append(g.children, c)
	return c
}

// RegisterRoutes implements Registrar
func (g *Group) RegisterRoutes(rg *gin.RouterGroup) {
	mounted := rg.Group(g.prefix, g.chain...)
	for _, rt := range g.routes {
		mounted.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, c := range g.children {
		c.RegisterRoutes(mounted)
	}
}
