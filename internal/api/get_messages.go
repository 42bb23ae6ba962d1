package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zebralog/zebralog/internal/storage/entity"
)

const defaultPageSize = 50

// registerGetMessages GET /api/messages
func (a *API) registerGetMessages() {
	a.router.GET("/api/messages", func(c *gin.Context) {
		var param struct {
			Channel uint64 `form:"channel"`
			User    uint64 `form:"user"`
			Limit   int    `form:"limit" binding:"min=0,max=200"`
		}
		if err := c.ShouldBindQuery(&param); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if param.Limit == 0 {
			param.Limit = defaultPageSize
		}

		ms, err := a.backend.Messages(a.ctx, entity.MessageFilter{
			ChannelID: param.Channel,
			AuthorID:  param.User,
			Limit:     param.Limit,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": ms, "count": len(ms)})
	})
}
