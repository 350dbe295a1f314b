package router

import "github.com/gin-gonic/gin"

// Module is a route group the registry mounts under /api.
type Module interface {
	Name() string
	Register(rg *gin.RouterGroup)
}
