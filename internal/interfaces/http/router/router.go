// Package router mounts the price API under a versioned prefix and the
// probes at the root.
package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar adds its routes to a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects registrars and mounts them on a gin engine
type Router struct {
	engine  *gin.Engine
	version string
	api     []RouteRegistrar
	probes  []RouteRegistrar
}

type RouterOption func(*Router)

// WithAPIVersion replaces the default "v1" prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// API adds registrars served under /api/{version}
func (r *Router) API(registrars ...RouteRegistrar) *Router {
	r.api = append(r.api, registrars...)
	return r
}

// Probes adds registrars served at the root, outside API versioning
func (r *Router) Probes(registrars ...RouteRegistrar) *Router {
	r.probes = append(r.probes, registrars...)
	return r
}

// Setup mounts every registrar and returns the engine
func (r *Router) Setup() *gin.Engine {
	root := &r.engine.RouterGroup
	for _, p := range r.probes {
		p.RegisterRoutes(root)
	}
	api := r.engine.Group("/api/" + r.version)
	for _, a := range r.api {
		a.RegisterRoutes(api)
	}
	return r.engine
}
