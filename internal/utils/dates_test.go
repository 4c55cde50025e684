package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_TruncateToDate(t *testing.T) {
	ts := time.Date(2025, 3, 14, 23, 59, 59, 10, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), TruncateToDate(ts))

	loc := time.FixedZone("UTC+3", 3*60*60)
	ts = time.Date(2025, 3, 15, 1, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), TruncateToDate(ts))
}
