package server

import (
	"os"

	"github.com/gin-gonic/gin"
)

const defaultPort = "8000"

type Server struct{}

// Run serves the router on PORT, defaulting to 8000. Blocks until the
// listener fails.
func (s *Server) Run(router *gin.Engine) error {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	return router.Run(":" + port)
}
