package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnowflakeRoundTrip(t *testing.T) {
	id, err := ParseSnowflake("331307058660114433")
	require.NoError(t, err)
	assert.Equal(t, uint64(331307058660114433), id)
	assert.Equal(t, "331307058660114433", FormatSnowflake(id))
}

func TestParseSnowflakeRejectsGarbage(t *testing.T) {
	_, err := ParseSnowflake("not-a-snowflake")
	assert.Error(t, err)

	_, err = ParseSnowflake("")
	assert.Error(t, err)
}

func TestMustParseSnowflakePanics(t *testing.T) {
	assert.Panics(t, func() { MustParseSnowflake("nope") })
}

func TestSnowflakeAtRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id := SnowflakeAt(at)
	assert.Equal(t, at, SnowflakeTime(id).UTC())
}

func TestSnowflakeAtOrdering(t *testing.T) {
	early := SnowflakeAt(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	late := SnowflakeAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Less(t, early, late)
}
