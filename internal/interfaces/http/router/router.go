// Package router assembles the gin engine and its route groups.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Group is a route table mounted under a path prefix. Middleware added with
// Use wraps every route of the group and of its children.
type Group struct {
	prefix   string
	use      []gin.HandlerFunc
	routes   []route
	children []*Group
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewGroup starts an empty table under prefix
func NewGroup(prefix string) *Group {
	return &Group{prefix: prefix}
}

// Use appends group middleware
func (g *Group) Use(middleware ...gin.HandlerFunc) *Group {
	g.use = append(g.use, middleware...)
	return g
}

func (g *Group) GET(path string, handlers ...gin.HandlerFunc) *Group {
	return g.handle(http.MethodGet, path, handlers)
}

func (g *Group) POST(path string, handlers ...gin.HandlerFunc) *Group {
	return g.handle(http.MethodPost, path, handlers)
}

func (g *Group) handle(method, path string, handlers []gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

// Group adds a child table nested under this group's prefix
func (g *Group) Group(prefix string) *Group {
	child := NewGroup(prefix)
	g.children = append(g.children, child)
	return child
}

// Mount registers the table and its children on parent
func (g *Group) Mount(parent gin.IRouter) {
	rg := parent.Group(g.prefix, g.use...)
	for _, r := range g.routes {
		rg.Handle(r.method, r.path, r.handlers...)
	}
	for _, child := range g.children {
		child.Mount(rg)
	}
}
