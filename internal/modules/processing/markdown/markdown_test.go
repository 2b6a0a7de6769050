package markdown

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		contains []string
		excludes []string
	}{
		{"empty", "   ", nil, []string{"<p>"}},
		{"emphasis", "**Go** e _MySQL_", []string{"<strong>Go</strong>", "<em>MySQL</em>"}, nil},
		{"task list", "- [x] deploy\n- [ ] testes", []string{`type="checkbox"`}, nil},
		{"raw html dropped", "<script>alert(1)</script>\n\ntexto", []string{"texto"}, []string{"<script>"}},
		{"autolink", "veja https://example.com", []string{`href="https://example.com"`}, nil},
		{"mention", "código em GH@folio-space", []string{`href="https://github.com/folio-space"`}, nil},
		{"spoiler", "resultado ||secreto||", []string{`<span class="spoiler">secreto</span>`}, nil},
		{"figure", "![!Tela inicial](https://cdn.example.com/a.png)", []string{"<figure>", "<figcaption>Tela inicial</figcaption>", `loading="lazy"`}, []string{"<p><figure>"}},
		{"plain image", "![logo](/objects/logo.png)", []string{`<img src="/objects/logo.png" alt="logo" loading="lazy">`}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := string(Render(tt.in))
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	src := "# Problema\n\nA clínica usava **planilhas** e `papel`.\n\n```go\nfmt.Println()\n```\n\n- item um\n- item dois"
	assert.Equal(t, "Problema A clínica usava planilhas e papel. item um item dois", Excerpt(src, 0))
	assert.Equal(t, "Problema…", Excerpt(src, 9))
	assert.Equal(t, "", Excerpt("", 10))
}

func TestRenderHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler().RegisterRoutes(r.Group("/api/v1"), func(c *gin.Context) { c.Next() })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/markdown/render", strings.NewReader(`{"text":"**oi**"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		HTML string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.HTML, "<strong>oi</strong>")
}
