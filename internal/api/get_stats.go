package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zebralog/zebralog/internal/storage/entity"
)

const (
	rankingWindow = 7 * 24 * time.Hour
	rankingLimit  = 10
	activityDays  = 7
)

// registerGetStats GET /api/stats
func (a *API) registerGetStats() {
	type statsModel struct {
		Overview      *entity.Overview     `json:"overview"`
		TopChannels   []*entity.NamedCount `json:"top_channels"`
		TopUsers      []*entity.NamedCount `json:"top_users"`
		DailyActivity []*entity.DayCount   `json:"daily_activity"`
	}

	a.router.GET("/api/stats", func(c *gin.Context) {
		now := time.Now().UTC()
		since := now.Add(-rankingWindow)

		m := &statsModel{}
		var err error
		if m.Overview, err = a.backend.Overview(a.ctx, now); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if m.TopChannels, err = a.backend.TopChannels(a.ctx, since, rankingLimit); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if m.TopUsers, err = a.backend.TopUsers(a.ctx, since, rankingLimit); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if m.DailyActivity, err = a.backend.DailyActivity(a.ctx, now, activityDays); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, m)
	})
}
