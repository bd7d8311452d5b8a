package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/verte-zerg/klondike/internal/clock"
	"github.com/verte-zerg/klondike/internal/model"
	"github.com/verte-zerg/klondike/internal/store"
)

const maxBundleBytes = 1 << 20

// Server stores the latest bundle of each profile in a Store.
type Server struct {
	st     *store.Store
	clock  clock.Clock
	logger *zap.Logger
}

// NewServer returns a sync server backed by st.
func NewServer(st *store.Store, c clock.Clock, logger *zap.Logger) *Server {
	if c == nil {
		c = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{st: st, clock: c, logger: logger}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests())

	router.GET("/healthz", s.healthz)
	v1 := router.Group("/v1/profiles/:profile", s.requireProfile())
	v1.GET("/bundle", s.getBundle)
	v1.PUT("/bundle", s.putBundle)
	return router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("sync server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("sync server stopped")
	return nil
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status_code", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", c.ClientIP()),
		)
	}
}

func (s *Server) requireProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.ValidProfile(c.Param("profile")) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid profile"})
			return
		}
		c.Next()
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getBundle(c *gin.Context) {
	raw, ok, err := s.st.GetCloudBundle(c.Request.Context(), c.Param("profile"))
	if err != nil {
		s.logger.Error("load bundle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no bundle"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func (s *Server) putBundle(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBundleBytes)
	var b model.Bundle
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bundle"})
		return
	}
	if b.ExportedAtMs == 0 {
		b.ExportedAtMs = s.clock.Now().UnixMilli()
	}
	raw, err := json.Marshal(b)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bundle"})
		return
	}
	if err := s.st.PutCloudBundle(c.Request.Context(), c.Param("profile"), raw, s.clock.Now()); err != nil {
		s.logger.Error("store bundle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.Status(http.StatusNoContent)
}
