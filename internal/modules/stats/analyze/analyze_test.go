package analyze

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu     sync.Mutex
	visits []Visit
	done   chan struct{}
}

func newMemRecorder() *memRecorder { return &memRecorder{done: make(chan struct{}, 8)} }

func (m *memRecorder) Record(_ context.Context, v Visit) error {
	m.mu.Lock()
	m.visits = append(m.visits, v)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

func serve(t *testing.T, rec Recorder, req *http.Request) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(rec, "folio_token", nil))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/", ok)
	r.GET("/projetos/:id", ok)
	r.GET("/api/v1/projects", ok)
	r.GET("/sitemap.xml", ok)
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func browserRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/125.0")
	return req
}

func TestMiddlewareRecordsPageViews(t *testing.T) {
	rec := newMemRecorder()
	serve(t, rec, browserRequest("/projetos/abc"))

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("visit not recorded")
	}
	require.Len(t, rec.visits, 1)
	assert.Equal(t, "/projetos/abc", rec.visits[0].Path)
	assert.Len(t, rec.visits[0].Visitor, 24)
}

func TestMiddlewareSkipsNonPages(t *testing.T) {
	bot := httptest.NewRequest(http.MethodGet, "/", nil)
	bot.Header.Set("User-Agent", "Googlebot/2.1")
	admin := browserRequest("/")
	admin.AddCookie(&http.Cookie{Name: "folio_token", Value: "t"})

	for name, req := range map[string]*http.Request{
		"api":       browserRequest("/api/v1/projects"),
		"file":      browserRequest("/sitemap.xml"),
		"not found": browserRequest("/missing"),
		"bot":       bot,
		"admin":     admin,
	} {
		t.Run(name, func(t *testing.T) {
			rec := newMemRecorder()
			serve(t, rec, req)
			select {
			case <-rec.done:
				t.Fatalf("unexpected visit %+v", rec.visits)
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}

func TestVisitorIDRotatesDaily(t *testing.T) {
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := VisitorID("10.0.0.1", "ua", day)
	assert.Equal(t, a, VisitorID("10.0.0.1", "ua", day.Add(time.Hour)))
	assert.NotEqual(t, a, VisitorID("10.0.0.1", "ua", day.AddDate(0, 0, 1)))
	assert.NotContains(t, a, "10.0.0.1")
}

func TestTopPathsOrdering(t *testing.T) {
	got := topPaths(map[string]int64{"/": 5, "/sobre": 2, "/contato": 5, "/servicos": 1}, 3)
	assert.Equal(t, []PathCount{{"/", 5}, {"/contato", 5}, {"/sobre", 2}}, got)
}

func TestRedisStoreUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewRedisStore(rdb)

	assert.Error(t, store.Record(context.Background(), Visit{Path: "/", Visitor: "v", At: time.Now()}))
	_, err := store.Summary(context.Background(), 7, time.Now(), 5)
	assert.Error(t, err)
}

type stubSummarizer struct {
	days int
	err  error
}

func (s *stubSummarizer) Summary(_ context.Context, days int, _ time.Time, _ int) (*Summary, error) {
	s.days = days
	if s.err != nil {
		return nil, s.err
	}
	return &Summary{Views: 3}, nil
}

func TestHandlerValidatesDays(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		err   error
		code  int
		days  int
	}{
		{"", nil, http.StatusOK, defaultDays},
		{"?days=30", nil, http.StatusOK, 30},
		{"?days=0", nil, http.StatusUnprocessableEntity, 0},
		{"?days=abc", nil, http.StatusUnprocessableEntity, 0},
		{"", errors.New("down"), http.StatusInternalServerError, defaultDays},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			stub := &stubSummarizer{err: tt.err}
			r := gin.New()
			NewHandler(stub).RegisterRoutes(r.Group("/api/v1"), func(c *gin.Context) { c.Next() })
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/analytics"+tt.query, nil))
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.days, stub.days)
		})
	}
}
