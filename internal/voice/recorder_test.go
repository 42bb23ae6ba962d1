package voice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewRecorderIntervalFloor(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		r := NewRecorder(context.Background(), zap.NewNop().Sugar(), nil, nil, Config{Enabled: true, Interval: interval})
		assert.Equal(t, defaultInterval, r.config.Interval)
	}

	r := NewRecorder(context.Background(), zap.NewNop().Sugar(), nil, nil, Config{Enabled: true, Interval: 5 * time.Second})
	assert.Equal(t, 5*time.Second, r.config.Interval)
}

func TestRecorderDisabled(t *testing.T) {
	r := NewRecorder(context.Background(), zap.NewNop().Sugar(), nil, nil, Config{})

	_, err := r.Start(nil, 1, 2)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = r.Stop(2)
	assert.ErrorIs(t, err, ErrNoActiveRecord)

	_, _, err = r.StopAny()
	assert.ErrorIs(t, err, ErrNoActiveRecord)
	assert.False(t, r.Active(2))
}
