package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first attempt", 1, 100 * time.Millisecond},
		{"doubles", 3, 400 * time.Millisecond},
		{"capped", 10, 2 * time.Second},
		{"large attempt stays capped", 80, 2 * time.Second},
		{"huge attempt stays capped", 1 << 20, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backoff(100*time.Millisecond, 2*time.Second, tt.attempt))
		})
	}
}
