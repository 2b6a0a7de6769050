package markdown

import (
	"github.com/gin-gonic/gin"

	"github.com/folio-space/core/internal/pkg/response"
)

type renderDTO struct {
	Text string `json:"text"`
}

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

// RegisterRoutes mounts the admin editor preview.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/admin/markdown/render", authMW, h.render)
}

func (h *Handler) render(c *gin.Context) {
	var dto renderDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Corpo da requisição inválido")
		return
	}
	response.OK(c, gin.H{"html": string(Render(dto.Text))})
}
