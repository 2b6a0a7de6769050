package sitecontent

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/folio-space/core/internal/pkg/response"
)

const msgPartialSave = "Algumas seções não foram salvas, revise e tente novamente"

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/content")
	g.GET("/:page", h.listPage)
	g.GET("/:page/:section", h.get)

	a := rg.Group("/admin/content", authMW)
	a.GET("", h.listAll)
	a.PUT("/:page", h.savePage)
	a.PUT("/:page/:section", h.saveSection)
	a.DELETE("/:page/:section", h.delete)
}

func (h *Handler) listAll(c *gin.Context) {
	items, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) listPage(c *gin.Context) {
	items, err := h.svc.ListByPage(c.Request.Context(), c.Param("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("page"), c.Param("section"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, item)
}

// savePage accepts {"sections": [...]} and upserts them; ?atomic=true makes
// the batch all-or-nothing.
func (h *Handler) savePage(c *gin.Context) {
	var body struct {
		Sections []Section `json:"sections" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Nenhuma seção informada")
		return
	}
	atomic, _ := strconv.ParseBool(c.Query("atomic"))
	page := c.Param("page")
	if err := h.svc.SaveSections(c.Request.Context(), page, body.Sections, SaveOptions{Atomic: atomic}); err != nil {
		var partial *PartialSaveError
		if errors.As(err, &partial) {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
				"ok":      0,
				"code":    http.StatusBadGateway,
				"message": msgPartialSave,
				"saved":   partial.Saved,
				"failed":  partial.Failed,
			})
			return
		}
		h.fail(c, err)
		return
	}
	items, err := h.svc.ListByPage(c.Request.Context(), page)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) saveSection(c *gin.Context) {
	var sec Section
	if err := c.ShouldBindJSON(&sec); err != nil {
		response.BadRequest(c, "Conteúdo inválido")
		return
	}
	sec.Name = c.Param("section")
	item, err := h.svc.Save(c.Request.Context(), c.Param("page"), sec)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, item)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("page"), c.Param("section")); err != nil {
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
		response.NotFound(c)
	default:
		response.InternalError(c, err)
	}
}
