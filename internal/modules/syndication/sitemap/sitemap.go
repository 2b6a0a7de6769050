// Package sitemap serves /sitemap.xml and /robots.txt for the public pages.
package sitemap

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/folio-space/core/internal/models"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ProjectSource is the read side of the live projects collection.
type ProjectSource interface {
	Snapshot() ([]models.ProjectModel, string)
}

type urlEntry struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

var staticPages = []struct {
	path     string
	freq     string
	priority float64
}{
	{"/", "weekly", 1.0},
	{"/sobre", "monthly", 0.8},
	{"/projetos", "weekly", 0.9},
	{"/servicos", "monthly", 0.8},
	{"/contato", "yearly", 0.5},
}

// RegisterRoutes mounts the sitemap and robots.txt. An empty baseURL is
// derived from each request's scheme and host.
func RegisterRoutes(r gin.IRoutes, projects ProjectSource, baseURL string, disallow ...string) {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	origin := func(c *gin.Context) string {
		if base != "" {
			return base
		}
		return requestOrigin(c.Request)
	}

	r.GET("/sitemap.xml", func(c *gin.Context) {
		var items []models.ProjectModel
		if projects != nil {
			items, _ = projects.Snapshot()
		}
		body, err := Build(origin(c), items, time.Now())
		if err != nil {
			c.String(http.StatusInternalServerError, "error generating sitemap")
			return
		}
		c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
	})
	r.GET("/robots.txt", func(c *gin.Context) {
		c.String(http.StatusOK, Robots(origin(c), disallow))
	})
}

// Build renders the sitemap for the fixed pages plus one entry per project.
func Build(base string, projects []models.ProjectModel, now time.Time) ([]byte, error) {
	set := urlSet{Xmlns: xmlns}
	today := now.Format(time.DateOnly)
	for _, p := range staticPages {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        base + p.path,
			LastMod:    today,
			ChangeFreq: p.freq,
			Priority:   p.priority,
		})
	}
	for _, p := range projects {
		entry := urlEntry{
			Loc:        base + "/projetos/" + url.PathEscape(p.ID),
			ChangeFreq: "monthly",
			Priority:   0.7,
		}
		if !p.UpdatedAt.IsZero() {
			entry.LastMod = p.UpdatedAt.Format(time.DateOnly)
		}
		set.URLs = append(set.URLs, entry)
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// Robots lists the disallowed paths and points crawlers at the sitemap.
func Robots(base string, disallow []string) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	for _, p := range disallow {
		b.WriteString("Disallow: " + p + "\n")
	}
	b.WriteString("\nSitemap: " + base + "/sitemap.xml\n")
	return b.String()
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + r.Host
}
