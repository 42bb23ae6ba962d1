package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, ReasonNone, Classify(nil))

	for _, msg := range []string{
		"monthly quota exceeded",
		"status code: 429",
		"rate limit reached, retry later",
		"billing hard limit has been reached",
	} {
		assert.Equal(t, ReasonQuota, Classify(errors.New(msg)), msg)
	}

	for _, msg := range []string{
		"connection refused",
		"context deadline exceeded",
		"internal server error",
	} {
		assert.Equal(t, ReasonRequestFailed, Classify(errors.New(msg)), msg)
	}
}
