package contact

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/folio-space/core/internal/pkg/pagination"
	"github.com/folio-space/core/internal/pkg/response"
)

const MsgSubmitted = "Mensagem enviada com sucesso! Entrarei em contato em breve."

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the public submit endpoint behind guards (rate limit,
// duplicate protection) and the admin inbox behind authMW.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, guards ...gin.HandlerFunc) {
	rg.POST("/contact", append(guards, h.submit)...)

	a := rg.Group("/admin/messages", authMW)
	a.GET("", h.list)
	a.GET("/unread-count", h.unreadCount)
	a.PATCH("/:id/read", h.markRead)
	a.DELETE("/:id", h.delete)
}

func (h *Handler) submit(c *gin.Context) {
	var dto SubmitDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Preencha todos os campos")
		return
	}
	if _, err := h.svc.Submit(c.Request.Context(), &dto); err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, gin.H{"ok": 1, "message": MsgSubmitted})
}

func (h *Handler) list(c *gin.Context) {
	unread, _ := strconv.ParseBool(c.Query("unread"))
	items, pag, err := h.svc.List(c.Request.Context(), pagination.FromContext(c), unread)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) unreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"count": n})
}

func (h *Handler) markRead(c *gin.Context) {
	body := struct {
		IsRead *bool `json:"is_read"`
	}{}
	_ = c.ShouldBindJSON(&body)
	read := true
	if body.IsRead != nil {
		read = *body.IsRead
	}
	if err := h.svc.SetRead(c.Request.Context(), c.Param("id"), read); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) fail(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.UnprocessableEntity(c, verr.Message)
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, "Mensagem não encontrada")
	default:
		response.InternalError(c, err)
	}
}
