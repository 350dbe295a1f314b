package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIPrefix is where every module is mounted. Only the landing page and
// /healthz live outside it.
const APIPrefix = "/api"

// Registry collects modules and mounts them under a shared API group.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group(APIPrefix)}
}

// Use adds middleware that runs for every module route but not for / or /healthz.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// RegisterAll mounts every added module and returns their names in mount order.
func (r *Registry) RegisterAll() []string {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	names := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		m.Register(r.API)
		names = append(names, m.Name())
	}

	r.Engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "Auth² Service",
			"description": "Authentication × Authorization",
			"api_prefix":  APIPrefix,
			"modules":     names,
			"admin":       APIPrefix + "/admin (requires admin authentication)",
		})
	})
	r.Engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return names
}
