package site

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/folio-space/core/internal/middleware"
	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/modules/auth"
	"github.com/folio-space/core/internal/modules/content/contact"
	"github.com/folio-space/core/internal/modules/content/sitecontent"
	"github.com/folio-space/core/internal/pkg/carousel"
)

const (
	msgContactFailed = "Erro ao enviar mensagem. Tente novamente ou me chame no WhatsApp."
	msgLoginFailed   = "E-mail ou senha incorretos"
	msgLoginError    = "Não foi possível entrar agora. Tente novamente."

	featuredProjects = 3
)

// section is a collection read at request time.
type section[T any] struct {
	Items   []T
	Error   string
	Loading bool
}

func read[T any](s Snapshotter[T]) section[T] {
	if s == nil {
		return section[T]{}
	}
	items, errMsg := s.Snapshot()
	return section[T]{Items: items, Error: errMsg, Loading: s.Loading()}
}

type homeBody struct {
	Hero     sitecontent.Hero
	Featured section[models.ProjectModel]
	Error    string
}

func (h *Handler) home(c *gin.Context) {
	content := read(h.deps.Content)
	featured := read(h.deps.Projects)
	if len(featured.Items) > featuredProjects {
		featured.Items = featured.Items[:featuredProjects]
	}
	h.render(c, http.StatusOK, "home", "", "home", homeBody{
		Hero:     sitecontent.HomeHeroFrom(content.Items),
		Featured: featured,
		Error:    content.Error,
	})
}

type aboutBody struct {
	About   sitecontent.About
	Error   string
	Loading bool
}

func (h *Handler) about(c *gin.Context) {
	content := read(h.deps.Content)
	h.render(c, http.StatusOK, "sobre", "Sobre", "sobre", aboutBody{
		About:   sitecontent.AboutFrom(content.Items),
		Error:   content.Error,
		Loading: content.Loading,
	})
}

func (h *Handler) projects(c *gin.Context) {
	h.render(c, http.StatusOK, "projetos", "Projetos", "projetos", read(h.deps.Projects))
}

func (h *Handler) services(c *gin.Context) {
	h.render(c, http.StatusOK, "servicos", "Serviços", "servicos", read(h.deps.Services))
}

type projectBody struct {
	Project  models.ProjectModel
	Slide    carousel.Image
	HasSlide bool
	Counter  string
	Multiple bool
	Zoomed   bool
	// Direction is the last move: 1 forward, -1 backward, 0 none.
	Direction int
	PrevURL   string
	NextURL   string
	ZoomURL   string
	Thumbs    []thumb
}

type thumb struct {
	URL    string
	Link   string
	Active bool
}

func (h *Handler) project(c *gin.Context) {
	id := c.Param("id")
	items := read(h.deps.Projects).Items
	var found *models.ProjectModel
	for i := range items {
		if items[i].ID == id {
			found = &items[i]
			break
		}
	}
	if found == nil {
		h.render(c, http.StatusNotFound, "notfound", "Projeto não encontrado", "projetos", nil)
		return
	}

	car := carousel.New(galleryOf(*found))
	applyCarouselQuery(car, c.Request.URL.Query())

	body := projectBody{
		Project:   *found,
		Counter:   car.Counter(),
		Multiple:  car.Len() > 1,
		Zoomed:    car.Zoomed(),
		Direction: car.Direction(),
	}
	body.Slide, body.HasSlide = car.Current()
	base := "/projetos/" + url.PathEscape(found.ID)
	body.PrevURL = slideURL(base, car.PrevIndex(), false)
	body.NextURL = slideURL(base, car.NextIndex(), false)
	body.ZoomURL = slideURL(base, car.Index(), !car.Zoomed())
	for i, img := range car.Images() {
		body.Thumbs = append(body.Thumbs, thumb{
			URL:    img.URL,
			Link:   slideURL(base, i, false),
			Active: i == car.Index(),
		})
	}
	h.render(c, http.StatusOK, "projeto", found.Title, "projetos", body)
}

// galleryOf lists the project's gallery, falling back to its cover image.
func galleryOf(p models.ProjectModel) []carousel.Image {
	out := make([]carousel.Image, 0, len(p.Images))
	for _, img := range p.Images {
		out = append(out, carousel.Image{URL: img.URL, Caption: img.Caption})
	}
	if len(out) == 0 && p.ImageURL != "" {
		out = append(out, carousel.Image{URL: p.ImageURL, Caption: p.Title})
	}
	return out
}

// applyCarouselQuery replays ?img=, ?nav=next|prev, ?dx=&vx= and ?zoom=1.
func applyCarouselQuery(car *carousel.Carousel, q url.Values) {
	if i, err := strconv.Atoi(q.Get("img")); err == nil {
		car.Goto(i)
	}
	switch q.Get("nav") {
	case "next":
		car.Advance()
	case "prev":
		car.Retreat()
	}
	dx, errX := strconv.ParseFloat(q.Get("dx"), 64)
	vx, errV := strconv.ParseFloat(q.Get("vx"), 64)
	if errX == nil && errV == nil {
		car.Drag(dx, vx)
	}
	if q.Get("zoom") == "1" {
		car.Zoom()
	}
}

func slideURL(base string, index int, zoom bool) string {
	v := url.Values{}
	v.Set("img", strconv.Itoa(index))
	if zoom {
		v.Set("zoom", "1")
	}
	return base + "?" + v.Encode()
}

type contactBody struct {
	Info    sitecontent.ContactInfo
	Form    contact.SubmitDTO
	Success string
	Error   string
}

func (h *Handler) contactForm(c *gin.Context) {
	body := contactBody{Info: sitecontent.ContactInfoFrom(read(h.deps.Content).Items)}
	if c.Query("enviado") == "1" {
		body.Success = contact.MsgSubmitted
	}
	h.render(c, http.StatusOK, "contato", "Contato", "contato", body)
}

func (h *Handler) contactSubmit(c *gin.Context) {
	body := contactBody{Info: sitecontent.ContactInfoFrom(read(h.deps.Content).Items)}
	if err := c.ShouldBind(&body.Form); err != nil {
		body.Error = msgContactFailed
		h.render(c, http.StatusBadRequest, "contato", "Contato", "contato", body)
		return
	}

	if _, err := h.deps.Contact.Submit(c.Request.Context(), &body.Form); err != nil {
		var ve *contact.ValidationError
		if errors.As(err, &ve) {
			body.Error = ve.Message
			h.render(c, http.StatusUnprocessableEntity, "contato", "Contato", "contato", body)
			return
		}
		h.log.Error("contact submit", zap.Error(err))
		body.Error = msgContactFailed
		h.render(c, http.StatusInternalServerError, "contato", "Contato", "contato", body)
		return
	}
	c.Redirect(http.StatusSeeOther, "/contato?enviado=1")
}

type loginBody struct {
	Email string
	Error string
}

func (h *Handler) loginForm(c *gin.Context) {
	if middleware.IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/admin/")
		return
	}
	h.render(c, http.StatusOK, "login", "Acesso administrativo", "", loginBody{})
}

func (h *Handler) login(c *gin.Context) {
	dto := auth.SignInDTO{
		Email:    strings.TrimSpace(c.PostForm("email")),
		Password: c.PostForm("password"),
	}
	token, _, err := h.deps.Auth.SignIn(c.Request.Context(), dto, auth.Client{
		IP: c.ClientIP(),
		UA: c.Request.UserAgent(),
	})
	if err != nil {
		body := loginBody{Email: dto.Email}
		status := http.StatusUnauthorized
		var ve *auth.ValidationError
		switch {
		case errors.As(err, &ve):
			body.Error = ve.Message
			status = http.StatusUnprocessableEntity
		case errors.Is(err, auth.ErrInvalidLogin):
			body.Error = msgLoginFailed
		default:
			h.log.Error("admin sign in", zap.Error(err))
			body.Error = msgLoginError
			status = http.StatusInternalServerError
		}
		h.render(c, status, "login", "Acesso administrativo", "", body)
		return
	}
	auth.SetTokenCookie(c, token, h.deps.Auth.TTL())
	c.Redirect(http.StatusSeeOther, "/admin/")
}

func (h *Handler) logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.TokenCookie); err == nil && token != "" {
		if err := h.deps.Auth.SignOut(c.Request.Context(), token); err != nil {
			h.log.Warn("admin sign out", zap.Error(err))
		}
	}
	auth.ClearTokenCookie(c)
	c.Redirect(http.StatusSeeOther, h.deps.LoginPath)
}

type adminBody struct {
	Projects section[models.ProjectModel]
	Services section[models.ServiceModel]
	Messages section[models.ContactMessageModel]
	Unread   int
}

const adminRecentMessages = 5

func (h *Handler) admin(c *gin.Context) {
	if !middleware.IsAuthenticated(c) {
		c.Redirect(http.StatusFound, h.deps.LoginPath)
		return
	}
	body := adminBody{
		Projects: read(h.deps.Projects),
		Services: read(h.deps.Services),
		Messages: read(h.deps.Messages),
	}
	for _, m := range body.Messages.Items {
		if !m.IsRead {
			body.Unread++
		}
	}
	if len(body.Messages.Items) > adminRecentMessages {
		body.Messages.Items = body.Messages.Items[:adminRecentMessages]
	}
	c.Header("Cache-Control", "no-store")
	h.render(c, http.StatusOK, "admin", "Painel", "", body)
}
