package analyze

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const recordTimeout = 2 * time.Second

// skipPrefixes are never counted as page views.
var skipPrefixes = []string{"/api", "/assets", "/objects", "/socket.io", "/admin"}

var botKeywords = []string{"bot", "crawler", "spider", "headless", "wget", "curl", "python-requests", "go-http", "java/", "scrapy"}

// Middleware records successful public page GETs. Requests carrying
// sessionCookie (a signed-in admin) and bots are skipped.
func Middleware(rec Recorder, sessionCookie string, log *zap.Logger, extraSkip ...string) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	skip := append(append([]string{}, skipPrefixes...), extraSkip...)
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		path := c.Request.URL.Path
		if !isPagePath(path, skip) || isBotUA(c.Request.UserAgent()) {
			return
		}
		if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
			return
		}

		now := time.Now()
		visit := Visit{
			Path:    path,
			Visitor: VisitorID(c.ClientIP(), c.Request.UserAgent(), now),
			At:      now,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := rec.Record(ctx, visit); err != nil {
				log.Debug("record page view failed", zap.String("path", visit.Path), zap.Error(err))
			}
		}()
	}
}

func isPagePath(path string, skip []string) bool {
	if path == "" || strings.Contains(path, ".") {
		return false
	}
	for _, prefix := range skip {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return false
		}
	}
	return true
}

func isBotUA(ua string) bool {
	if strings.TrimSpace(ua) == "" {
		return true
	}
	lower := strings.ToLower(ua)
	for _, kw := range botKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
