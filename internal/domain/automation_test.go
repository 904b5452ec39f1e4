package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{5.9, "0:05"},
		{65, "1:05"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-3, "0:00"},
		{math.NaN(), "0:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.seconds), "seconds=%v", tt.seconds)
	}
}

func TestCompletion_Defaults(t *testing.T) {
	var c Completion
	assert.Zero(t, c.DurationOrZero())
	assert.Equal(t, 1.0, c.SpeedOrDefault())

	d, s := 90.0, 2.0
	c = Completion{Duration: &d, Speed: &s}
	assert.Equal(t, 90.0, c.DurationOrZero())
	assert.Equal(t, 2.0, c.SpeedOrDefault())
}
