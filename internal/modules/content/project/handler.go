package project

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/folio-space/core/internal/modules/storage/upload"
	"github.com/folio-space/core/internal/pkg/response"
)

// Uploader stores gallery images sent as multipart files.
type Uploader interface {
	ProcessBatch(ctx context.Context, files []upload.FileInput, opts upload.Options) upload.BatchResult
	MaxBytes() int64
}

type Handler struct {
	svc      *Service
	uploader Uploader
}

func NewHandler(svc *Service, uploader Uploader) *Handler {
	return &Handler{svc: svc, uploader: uploader}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/projects")
	g.GET("", h.listActive)
	g.GET("/:id", h.getActive)

	a := rg.Group("/admin/projects", authMW)
	a.GET("", h.listAll)
	a.GET("/:id", h.get)
	a.POST("", h.create)
	a.PUT("/:id", h.update)
	a.DELETE("/:id", h.delete)
	a.PATCH("/order", h.reorder)
	a.PATCH("/:id/active", h.setActive)
	a.POST("/:id/images", h.addImages)
	a.DELETE("/:id/images/:imageId", h.deleteImage)
}

func (h *Handler) listActive(c *gin.Context) {
	items, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toResponses(items))
}

func (h *Handler) getActive(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toResponse(p))
}

func (h *Handler) listAll(c *gin.Context) {
	items, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toResponses(items))
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toResponse(p))
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateProjectDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Dados do projeto inválidos")
		return
	}
	p, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, toResponse(p))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateProjectDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Dados do projeto inválidos")
		return
	}
	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, toResponse(p))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) reorder(c *gin.Context) {
	var dto ReorderDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Informe a nova ordem dos projetos")
		return
	}
	if err := h.svc.Reorder(c.Request.Context(), dto.IDs); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) setActive(c *gin.Context) {
	var body struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Informe se o projeto está ativo")
		return
	}
	if err := h.svc.SetActive(c.Request.Context(), c.Param("id"), *body.IsActive); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// addImages accepts either multipart "files" (uploaded through the image
// pipeline) or a JSON list of already stored images.
func (h *Handler) addImages(c *gin.Context) {
	id := c.Param("id")
	var (
		inputs []ImageInput
		batch  *upload.BatchResult
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if h.uploader == nil {
			response.BadRequest(c, "Envio de imagens indisponível")
			return
		}
		// Nothing is uploaded for a project that does not exist.
		if _, err := h.svc.Get(c.Request.Context(), id, false); err != nil {
			h.fail(c, err)
			return
		}
		form, err := c.MultipartForm()
		if err != nil || len(form.File["files"]) == 0 {
			response.BadRequest(c, "Selecione ao menos uma imagem")
			return
		}
		files, rejected := upload.ReadMultipartBatch(form.File["files"], h.uploader.MaxBytes())
		res := h.uploader.ProcessBatch(c.Request.Context(), files, upload.Options{}).Merge(rejected)
		batch = &res
		for _, url := range res.URLs() {
			inputs = append(inputs, ImageInput{URL: url})
		}
	} else if err := c.ShouldBindJSON(&inputs); err != nil {
		response.BadRequest(c, "Lista de imagens inválida")
		return
	}

	images, err := h.svc.AddImages(c.Request.Context(), id, inputs)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := gin.H{"images": images}
	if batch != nil {
		out["upload"] = batch
	}
	response.Created(c, out)
}

func (h *Handler) deleteImage(c *gin.Context) {
	if err := h.svc.DeleteImage(c.Request.Context(), c.Param("id"), c.Param("imageId")); err != nil {
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
		response.NotFoundMsg(c, "Projeto não encontrado")
	default:
		response.InternalError(c, err)
	}
}
