package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zebralog/zebralog/internal/storage/entity"
)

type fakeBackend struct {
	overview *entity.Overview
	channels []*entity.NamedCount
	users    []*entity.NamedCount
	days     []*entity.DayCount
	messages []*entity.MessageRecord
	filter   entity.MessageFilter
	err      error
}

func (f *fakeBackend) Overview(context.Context, time.Time) (*entity.Overview, error) {
	return f.overview, f.err
}

func (f *fakeBackend) TopChannels(context.Context, time.Time, int) ([]*entity.NamedCount, error) {
	return f.channels, f.err
}

func (f *fakeBackend) TopUsers(context.Context, time.Time, int) ([]*entity.NamedCount, error) {
	return f.users, f.err
}

func (f *fakeBackend) DailyActivity(context.Context, time.Time, int) ([]*entity.DayCount, error) {
	return f.days, f.err
}

func (f *fakeBackend) Messages(_ context.Context, filter entity.MessageFilter) ([]*entity.MessageRecord, error) {
	f.filter = filter
	return f.messages, f.err
}

func newTestAPI(t *testing.T, backend Backend) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a := NewAPI(context.Background(), zap.NewNop().Sugar(), backend, NewConfig(0))
	a.registerGetStats()
	a.registerGetMessages()
	return a
}

func get(a *API, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	a.router.ServeHTTP(w, req)
	return w
}

func TestGetStats(t *testing.T) {
	backend := &fakeBackend{
		overview: &entity.Overview{TotalMessages: 42, TotalUsers: 7},
		channels: []*entity.NamedCount{{ID: 1, Name: "general", Count: 30}},
		users:    []*entity.NamedCount{{ID: 2, Name: "ana", Count: 12}},
		days:     []*entity.DayCount{{Date: "2024-03-01", Count: 5}},
	}
	w := get(newTestAPI(t, backend), "/api/stats")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Overview struct {
			TotalMessages int64 `json:"total_messages"`
		} `json:"overview"`
		TopChannels []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"top_channels"`
		TopUsers      []json.RawMessage `json:"top_users"`
		DailyActivity []json.RawMessage `json:"daily_activity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(42), body.Overview.TotalMessages)
	require.Len(t, body.TopChannels, 1)
	assert.Equal(t, "1", body.TopChannels[0].ID) // snowflakes serialize as strings
	assert.Equal(t, "general", body.TopChannels[0].Name)
	assert.Len(t, body.TopUsers, 1)
	assert.Len(t, body.DailyActivity, 1)
}

func TestGetStatsBackendError(t *testing.T) {
	w := get(newTestAPI(t, &fakeBackend{err: errors.New("boom")}), "/api/stats")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetMessagesDefaults(t *testing.T) {
	backend := &fakeBackend{messages: []*entity.MessageRecord{{ID: 9, Content: "hi"}}}
	w := get(newTestAPI(t, backend), "/api/messages")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.MessageFilter{Limit: 50}, backend.filter)

	var body struct {
		Messages []json.RawMessage `json:"messages"`
		Count    int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Len(t, body.Messages, 1)
}

func TestGetMessagesFilters(t *testing.T) {
	backend := &fakeBackend{}
	w := get(newTestAPI(t, backend), "/api/messages?channel=123&user=456&limit=5")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.MessageFilter{ChannelID: 123, AuthorID: 456, Limit: 5}, backend.filter)
}

func TestGetMessagesLimitCapped(t *testing.T) {
	w := get(newTestAPI(t, &fakeBackend{}), "/api/messages?limit=9999")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMessagesEmptyStore(t *testing.T) {
	backend := &fakeBackend{messages: []*entity.MessageRecord{}}
	w := get(newTestAPI(t, backend), "/api/messages")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Zero(t, body.Count)
}
