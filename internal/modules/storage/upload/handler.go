package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/folio-space/core/internal/pkg/imaging"
	"github.com/folio-space/core/internal/pkg/pagination"
	"github.com/folio-space/core/internal/pkg/response"
)

const maxBatchFiles = 20

// ReadMultipart loads an uploaded part into memory. Parts larger than
// maxBytes are rejected without being read.
func ReadMultipart(fh *multipart.FileHeader, maxBytes int64) (FileInput, error) {
	in := FileInput{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type")}
	if maxBytes > 0 && fh.Size > maxBytes {
		return in, fmt.Errorf("%w: %d bytes > %d bytes", imaging.ErrTooLarge, fh.Size, maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return in, err
	}
	defer f.Close()

	limit := maxBytes
	if limit <= 0 {
		limit = imaging.DefaultMaxUploadBytes
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return in, err
	}
	in.Data = data
	return in, nil
}

// Rejected is a part that failed before processing, at its position in the
// submitted form.
type Rejected struct {
	Index int
	Item  ItemResult
}

// ReadMultipartBatch reads every part, turning unreadable parts into item
// errors instead of failing the batch.
func ReadMultipartBatch(files []*multipart.FileHeader, maxBytes int64) ([]FileInput, []Rejected) {
	inputs := make([]FileInput, 0, len(files))
	var rejected []Rejected
	for i, fh := range files {
		in, err := ReadMultipart(fh, maxBytes)
		if err != nil {
			rejected = append(rejected, Rejected{
				Index: i,
				Item:  ItemResult{Name: fh.Filename, Err: err, Message: UserMessage(err)},
			})
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, rejected
}

// Merge puts items rejected before processing back at their form position,
// so Items follows the order the files were sent in.
func (b BatchResult) Merge(rejected []Rejected) BatchResult {
	if len(rejected) == 0 {
		return b
	}
	total := len(b.Items) + len(rejected)
	items := make([]ItemResult, 0, total)
	next, r := 0, 0
	for i := 0; i < total; i++ {
		if r < len(rejected) && (rejected[r].Index <= i || next >= len(b.Items)) {
			items = append(items, rejected[r].Item)
			r++
			continue
		}
		items = append(items, b.Items[next])
		next++
	}
	b.Items = items
	b.Failed += len(rejected)
	return b
}

// cropFromForm reads crop_x/crop_y/crop_width/crop_height. It returns nil
// when no crop was requested.
func cropFromForm(c *gin.Context) (*imaging.Rect, error) {
	if c.PostForm("crop_width") == "" && c.PostForm("crop_height") == "" {
		return nil, nil
	}
	var rect imaging.Rect
	fields := []struct {
		name string
		dst  *int
	}{
		{"crop_x", &rect.X},
		{"crop_y", &rect.Y},
		{"crop_width", &rect.Width},
		{"crop_height", &rect.Height},
	}
	for _, f := range fields {
		raw := c.PostForm(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, imaging.ErrInvalidRect
		}
		*f.dst = int(v)
	}
	return &rect, nil
}

type Handler struct{ pipeline *Pipeline }

func NewHandler(p *Pipeline) *Handler { return &Handler{pipeline: p} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/admin/uploads", authMW)
	a.GET("", h.list)
	a.POST("", h.upload)
	a.POST("/batch", h.uploadBatch)
	a.POST("/crop", h.cropPreview)
	a.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	items, pag, err := h.pipeline.assets.List(c.Request.Context(), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Selecione uma imagem para enviar")
		return
	}
	rect, err := cropFromForm(c)
	if err != nil {
		response.BadRequest(c, imaging.UserMessage(err))
		return
	}
	in, err := ReadMultipart(fh, h.pipeline.MaxBytes())
	if err != nil {
		h.fail(c, err)
		return
	}
	in.Crop = rect

	res, err := h.pipeline.Process(c.Request.Context(), in, Options{SkipCompress: c.PostForm("raw") == "true"})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, res)
}

func (h *Handler) uploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		response.BadRequest(c, "Selecione ao menos uma imagem")
		return
	}
	files := form.File["files"]
	if len(files) > maxBatchFiles {
		response.BadRequest(c, fmt.Sprintf("Envie no máximo %d imagens por vez", maxBatchFiles))
		return
	}
	inputs, rejected := ReadMultipartBatch(files, h.pipeline.MaxBytes())
	res := h.pipeline.ProcessBatch(c.Request.Context(), inputs, Options{}).Merge(rejected)
	status := http.StatusCreated
	if res.Uploaded == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

type cropDTO struct {
	DataURL string       `json:"data_url" binding:"required"`
	Rect    imaging.Rect `json:"rect"`
}

// cropPreview crops a data URL without storing anything.
func (h *Handler) cropPreview(c *gin.Context) {
	var dto cropDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Imagem não informada")
		return
	}
	out, err := imaging.CropDataURL(dto.DataURL, dto.Rect)
	if err != nil {
		response.BadRequest(c, imaging.UserMessage(err))
		return
	}
	response.OK(c, gin.H{"data_url": out})
}

func (h *Handler) delete(c *gin.Context) {
	err := h.pipeline.Remove(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		response.NoContent(c)
	case errors.Is(err, ErrAssetNotFound):
		response.NotFound(c)
	case errors.Is(err, ErrStorage):
		response.BackendError(c, UserMessage(err), err)
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case IsValidation(err):
		response.BadRequest(c, UserMessage(err))
	case errors.Is(err, ErrStorage):
		response.BackendError(c, UserMessage(err), err)
	default:
		response.InternalError(c, err)
	}
}
