// Package http exposes the debug and introspection HTTP API: window
// listings, open requests, hot-category registration, and Prometheus
// metrics. It binds to the local listener only and exists for shell
// frontends and operators, not end users.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aperture-desktop/shell/internal/logging"
	"github.com/aperture-desktop/shell/internal/shell"
	"github.com/aperture-desktop/shell/internal/types"
	"github.com/aperture-desktop/shell/internal/ws"
)

// Handlers holds the API dependencies.
type Handlers struct {
	svc *shell.Service
	log *logging.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(svc *shell.Service, log *logging.Logger) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handlers{svc: svc, log: log}
}

// NewRouter builds the gin router with all routes registered.
func NewRouter(svc *shell.Service, log *logging.Logger) *gin.Engine {
	h := NewHandlers(svc, log)
	wsHandler := ws.NewHandler(svc, log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "shell://main"},
		AllowMethods:     []string{"GET", "POST", "DELETE"},
		AllowHeaders:     []string{"Content-Type", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", h.Health)
	router.GET("/stats", h.Stats)

	router.GET("/windows", h.ListWindows)
	router.GET("/windows/focused", h.FocusedWindow)
	router.GET("/windows/visible", h.VisibleWindows)
	router.POST("/windows", h.OpenWindow)

	router.POST("/hot-categories", h.RegisterHotCategory)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/stream", wsHandler.HandleConnection)

	return router
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Stats returns aggregate window/pool counts.
func (h *Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

// ListWindows returns every live window.
func (h *Handlers) ListWindows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"windows": h.svc.Windows()})
}

// FocusedWindow returns the focused window, or 404.
func (h *Handlers) FocusedWindow(c *gin.Context) {
	w := h.svc.FocusedWindow()
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no focused window"})
		return
	}
	c.JSON(http.StatusOK, snapshot(w.ID(), h.svc))
}

// VisibleWindows returns every visible window.
func (h *Handlers) VisibleWindows(c *gin.Context) {
	var out []shell.WindowInfo
	for _, w := range h.svc.VisibleWindows() {
		if info, ok := snapshotByID(h.svc, w.ID()); ok {
			out = append(out, info)
		}
	}
	c.JSON(http.StatusOK, gin.H{"windows": out})
}

// OpenWindow provisions a window from a JSON OpenRequest.
func (h *Handlers) OpenWindow(c *gin.Context) {
	var req types.OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.svc.OpenWindow(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": w.ID(), "category": w.Category()})
}

// RegisterHotCategory registers a hot pool from a JSON config.
func (h *Handlers) RegisterHotCategory(c *gin.Context) {
	var cfg types.HotCategoryConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.RegisterHotCategory(cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"category": cfg.Category})
}

func snapshot(id string, svc *shell.Service) shell.WindowInfo {
	info, _ := snapshotByID(svc, id)
	return info
}

func snapshotByID(svc *shell.Service, id string) (shell.WindowInfo, bool) {
	for _, info := range svc.Windows() {
		if info.ID == id {
			return info, true
		}
	}
	return shell.WindowInfo{}, false
}
