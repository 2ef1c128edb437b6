package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transtelco-billing/common/log"
	"transtelco-billing/service/progress"
)

type Config struct {
	Addr string
}

// Server exposes read-only job status over HTTP.
type Server struct {
	c      *Config
	reg    *progress.Registry
	engine *gin.Engine
}

var version = "dev" // set by the linker

func New(c *Config, reg *progress.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{c: c, reg: reg, engine: gin.New()}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/health", s.health)
	s.engine.GET("/version", s.version)
	s.engine.GET("/jobs", s.jobs)
	s.engine.GET("/jobs/:id", s.job)
	return s
}

// Run blocks serving the API. Meant to run in its own goroutine.
func (s *Server) Run() {
	log.Infof("status api listening on %s", s.c.Addr)
	if err := s.engine.Run(s.c.Addr); err != nil {
		log.Errorf("status api: %v", err)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": version})
}

func (s *Server) jobs(c *gin.Context) {
	c.JSON(http.StatusOK, s.reg.All())
}

func (s *Server) job(c *gin.Context) {
	t, ok := s.reg.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job id"})
		return
	}
	c.JSON(http.StatusOK, t.Snapshot())
}
