package crontask

import (
	"errors"

	"github.com/gin-gonic/gin"

	pkgcron "github.com/folio-space/core/internal/pkg/cron"
	"github.com/folio-space/core/internal/pkg/response"
)

const msgJobNotFound = "Tarefa agendada não encontrada"

// Handler wraps the scheduler for HTTP access.
type Handler struct {
	sched *pkgcron.Scheduler
}

func NewHandler(sched *pkgcron.Scheduler) *Handler {
	return &Handler{sched: sched}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/admin/cron-task", authMW)
	g.GET("", h.list)
	g.GET("/:name", h.get)
	g.POST("/:name/run", h.run)
}

// GET /admin/cron-task
func (h *Handler) list(c *gin.Context) {
	response.OK(c, h.sched.List())
}

// GET /admin/cron-task/:name
func (h *Handler) get(c *gin.Context) {
	item, err := h.sched.Get(c.Param("name"))
	if err != nil {
		response.NotFoundMsg(c, msgJobNotFound)
		return
	}
	response.OK(c, item)
}

// POST /admin/cron-task/:name/run runs the job and waits for it.
func (h *Handler) run(c *gin.Context) {
	err := h.sched.Run(c.Request.Context(), c.Param("name"))
	switch {
	case errors.Is(err, pkgcron.ErrJobNotFound):
		response.NotFoundMsg(c, msgJobNotFound)
		return
	case errors.Is(err, pkgcron.ErrJobRunning):
		response.Conflict(c, "Tarefa já está em execução")
		return
	}
	item, _ := h.sched.Get(c.Param("name"))
	response.OK(c, item)
}
