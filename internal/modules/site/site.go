// Package site serves the server-rendered public pages and the admin login.
package site

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/modules/auth"
	"github.com/folio-space/core/internal/modules/content/contact"
	"github.com/folio-space/core/internal/modules/processing/markdown"
	"github.com/folio-space/core/internal/pkg/icons"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const defaultSiteName = "Portfólio"

// Snapshotter is the read side of a live collection.
type Snapshotter[T any] interface {
	Snapshot() ([]T, string)
	Loading() bool
}

type ContactSubmitter interface {
	Submit(ctx context.Context, dto *contact.SubmitDTO) (*models.ContactMessageModel, error)
}

type Authenticator interface {
	SignIn(ctx context.Context, dto auth.SignInDTO, client auth.Client) (string, *models.UserModel, error)
	SignOut(ctx context.Context, token string) error
	TTL() time.Duration
}

type Deps struct {
	Projects Snapshotter[models.ProjectModel]
	Services Snapshotter[models.ServiceModel]
	Content  Snapshotter[models.SiteContentModel]
	// Messages is optional; the admin overview lists recent messages when set.
	Messages Snapshotter[models.ContactMessageModel]

	Contact ContactSubmitter
	Auth    Authenticator

	LoginPath string
	SiteName  string
	Log       *zap.Logger
}

type Handler struct {
	deps  Deps
	pages map[string]*template.Template
	log   *zap.Logger
}

var pageFiles = []string{
	"home", "sobre", "projetos", "projeto", "servicos", "contato",
	"login", "admin", "notfound",
}

func NewHandler(deps Deps) (*Handler, error) {
	if deps.SiteName == "" {
		deps.SiteName = defaultSiteName
	}
	if deps.LoginPath == "" {
		deps.LoginPath = "/admin-acesso-privado"
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		tpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		pages[name] = tpl
	}
	return &Handler{deps: deps, pages: pages, log: log.Named("site")}, nil
}

var funcs = template.FuncMap{
	"icon": func(name, fallback string) template.HTML {
		return icons.Resolve(name, fallback).SVG("icon")
	},
	"markdown": markdown.Render,
	"excerpt": func(s string) string {
		return markdown.Excerpt(s, 160)
	},
	"tags": models.SplitTags,
}

// RegisterRoutes mounts the pages on the engine root. optionalMW resolves the
// admin cookie; guards run before the contact form submission.
func (h *Handler) RegisterRoutes(r gin.IRouter, optionalMW gin.HandlerFunc, guards ...gin.HandlerFunc) {
	assets, _ := fs.Sub(staticFS, "static")
	r.StaticFS("/assets", http.FS(assets))

	r.GET("/", h.home)
	r.GET("/sobre", h.about)
	r.GET("/projetos", h.projects)
	r.GET("/projetos/:id", h.project)
	r.GET("/servicos", h.services)
	r.GET("/contato", h.contactForm)
	submit := append(append([]gin.HandlerFunc{}, guards...), h.contactSubmit)
	r.POST("/contato", submit...)

	r.GET(h.deps.LoginPath, optionalMW, h.loginForm)
	r.POST(h.deps.LoginPath, h.login)
	r.GET("/admin/*path", optionalMW, h.admin)
	r.POST("/admin/sair", h.logout)
}

// view is the data every page template receives.
type view struct {
	Title     string
	Active    string
	SiteName  string
	Year      int
	LoginPath string
	Body      any
}

func (h *Handler) render(c *gin.Context, status int, page, title, active string, body any) {
	tpl, ok := h.pages[page]
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	err := tpl.ExecuteTemplate(&buf, "layout", view{
		Title:     title,
		Active:    active,
		SiteName:  h.deps.SiteName,
		Year:      time.Now().Year(),
		LoginPath: h.deps.LoginPath,
		Body:      body,
	})
	if err != nil {
		h.log.Error("render page", zap.String("page", page), zap.Error(err))
		c.String(http.StatusInternalServerError, "Erro ao carregar a página")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "notfound", "Página não encontrada", "", nil)
}
