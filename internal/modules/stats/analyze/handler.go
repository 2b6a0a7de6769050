package analyze

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/folio-space/core/internal/pkg/response"
)

const (
	defaultDays = 7
	topLimit    = 10
)

type Summarizer interface {
	Summary(ctx context.Context, days int, now time.Time, top int) (*Summary, error)
}

type Handler struct {
	svc Summarizer
}

func NewHandler(svc Summarizer) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/admin/analytics", authMW, h.summary)
}

// GET /admin/analytics?days=7
func (h *Handler) summary(c *gin.Context) {
	days := defaultDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxDays {
			response.UnprocessableEntity(c, "days deve estar entre 1 e "+strconv.Itoa(MaxDays))
			return
		}
		days = n
	}
	out, err := h.svc.Summary(c.Request.Context(), days, time.Now(), topLimit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, out)
}
