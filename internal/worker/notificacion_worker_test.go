package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeRetryBackoff(t *testing.T) {
	assert.Equal(t, 1*time.Minute, computeRetryBackoff(0))
	assert.Equal(t, 1*time.Minute, computeRetryBackoff(1))
	assert.Equal(t, 5*time.Minute, computeRetryBackoff(2))
	assert.Equal(t, 15*time.Minute, computeRetryBackoff(3))
	assert.Equal(t, 15*time.Minute, computeRetryBackoff(10))
}
