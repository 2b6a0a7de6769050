package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  Query
	}{
		{"", Query{Page: 1, Size: DefaultSize}},
		{"?page=3&size=5", Query{Page: 3, Size: 5}},
		{"?page=-2&size=0", Query{Page: 1, Size: DefaultSize}},
		{"?page=x&size=500", Query{Page: 1, Size: MaxSize}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/messages"+tt.query, nil)
			assert.Equal(t, tt.want, FromContext(c))
		})
	}
}

func TestMeta(t *testing.T) {
	q := New(2, 10)
	assert.Equal(t, 10, q.Offset())

	meta := q.Meta(25)
	assert.Equal(t, 3, meta.TotalPage)
	assert.True(t, meta.HasNextPage)

	meta = New(3, 10).Meta(25)
	assert.False(t, meta.HasNextPage)

	meta = New(1, 10).Meta(0)
	assert.Equal(t, 0, meta.TotalPage)
	assert.False(t, meta.HasNextPage)
}
