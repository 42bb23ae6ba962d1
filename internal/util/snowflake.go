package util

import (
	"fmt"
	"strconv"
	"time"
)

// discordEpoch is the first millisecond of 2015, the origin of snowflake timestamps.
const discordEpoch = 1420070400000

func MustParseSnowflake(s string) uint64 {
	val, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		panic(fmt.Errorf("could not parse Snowflake ID string: %w", err))
	}
	return val
}

func ParseSnowflake(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func FormatSnowflake(s uint64) string {
	return strconv.FormatUint(s, 10)
}

// SnowflakeAt returns the smallest snowflake whose creation time is not
// before t. Used as an "after" cursor when paginating channel history.
func SnowflakeAt(t time.Time) uint64 {
	ms := t.UnixMilli() - discordEpoch
	if ms < 0 {
		ms = 0
	}
	return uint64(ms) << 22
}

// SnowflakeTime extracts the creation time encoded in a snowflake.
func SnowflakeTime(s uint64) time.Time {
	return time.UnixMilli(int64(s>>22) + discordEpoch).UTC()
}
