package gateway

import (
	"github.com/gin-gonic/gin"

	"github.com/folio-space/core/internal/pkg/response"
)

// RegisterRoutes mounts the socket.io endpoint on the engine root and the
// stats endpoint on rg.
func RegisterRoutes(r gin.IRoutes, rg *gin.RouterGroup, hub *Hub) {
	handler := gin.WrapH(hub.Handler())
	r.Any("/socket.io", handler)
	r.Any("/socket.io/*any", handler)

	rg.GET("/gateway/stats", func(c *gin.Context) {
		response.OK(c, gin.H{
			"public":      hub.ClientCount(RoomPublic),
			"admin":       hub.ClientCount(RoomAdmin),
			"total":       hub.ClientCount(""),
			"peak_online": hub.PeakOnline(c.Request.Context()),
		})
	})
}
