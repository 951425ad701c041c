// Package web exposes the voice controller over HTTP and streams its
// events to kitchen displays over a websocket.
package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
	"github.com/hammamikhairi/pantrychef/internal/metrics"
	"github.com/hammamikhairi/pantrychef/internal/speech"
)

// Controller is the part of engine.Controller the web surface drives.
type Controller interface {
	Activate(ctx context.Context) error
	Deactivate() error
	Submit(ctx context.Context, text string) (domain.Reply, error)
	State() domain.TurnState
	Active() bool
	SessionID() string
	Page() domain.Page
	SetPage(p domain.Page)
}

// Server is the HTTP and websocket surface.
type Server struct {
	ctrl   Controller
	hub    *Hub
	log    *logger.Logger
	router *gin.Engine
	srv    *http.Server
}

// NewServer builds the router. The hub receives inbound page updates on
// behalf of ctrl.
func NewServer(addr string, ctrl Controller, hub *Hub, log *logger.Logger) *Server {
	s := &Server{ctrl: ctrl, hub: hub, log: log}
	hub.OnPage(ctrl.SetPage)

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ws", s.handleWS)

	voice := r.Group("/voice")
	voice.GET("/state", s.handleState)
	voice.POST("/activate", s.handleActivate)
	voice.POST("/deactivate", s.handleDeactivate)
	voice.POST("/text", s.handleText)

	s.router = r
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("web: listening on %s", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) snapshot() StatePayload {
	return StatePayload{
		State:  s.ctrl.State().String(),
		Active: s.ctrl.Active(),
		Page:   s.ctrl.Page(),
	}
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) handleActivate(c *gin.Context) {
	err := s.ctrl.Activate(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"session": s.ctrl.SessionID(), "state": s.ctrl.State().String()})
	case errors.Is(err, domain.ErrSessionActive):
		c.JSON(http.StatusConflict, gin.H{"error": "voice session already active"})
	case errors.Is(err, domain.ErrSessionNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": "voice session was stopped while starting"})
	case errors.Is(err, domain.ErrDeviceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": speech.LineMicUnavailable()})
	default:
		s.log.Error("activate: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start listening"})
	}
}

func (s *Server) handleDeactivate(c *gin.Context) {
	if err := s.ctrl.Deactivate(); err != nil {
		s.log.Error("deactivate: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not stop listening"})
		return
	}
	c.JSON(http.StatusOK, s.snapshot())
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	reply, err := s.ctrl.Submit(c.Request.Context(), req.Text)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, reply)
	case errors.Is(err, domain.ErrSessionActive):
		c.JSON(http.StatusConflict, gin.H{"error": "voice session is active"})
	default:
		s.log.Error("text submit: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not answer"})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, local := range []string{"http://localhost", "http://127.0.0.1"} {
			if origin == local || strings.HasPrefix(origin, local+":") {
				return true
			}
		}
		return false
	},
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{hub: s.hub, conn: conn, send: make(chan []byte, sendBuffer)}
	if msg, err := encode(EventState, s.snapshot()); err == nil {
		client.send <- msg
	}
	if !s.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// requestID tags each request with an X-Request-ID header.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
