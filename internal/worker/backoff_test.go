package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackoffGrowsAndCaps(t *testing.T) {
	assert.Equal(t, int32(20), Backoff(1))
	assert.Equal(t, int32(40), Backoff(2))
	assert.Equal(t, int32(80), Backoff(3))
	assert.Equal(t, int32(3600), Backoff(20))
}
