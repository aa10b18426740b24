package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atlas-desktop/portfolio-sim/pkg/utils"
)

func TestFormatMoney(t *testing.T) {
	tests := map[float64]string{
		0:           "0.00",
		999.994:     "999.99",
		1000:        "1,000.00",
		1234567.891: "1,234,567.89",
		-25000.5:    "-25,000.50",
	}
	for in, want := range tests {
		assert.Equal(t, want, utils.FormatMoney(in), "%v", in)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "7.00%", utils.FormatPercent(0.07))
	assert.Equal(t, "-100.00%", utils.FormatPercent(-1))
}

func TestFormatOptionalRatio(t *testing.T) {
	v := 0.41234
	assert.Equal(t, "0.412", utils.FormatOptionalRatio(&v))
	assert.Equal(t, "n/a", utils.FormatOptionalRatio(nil))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1d 2h 3m", utils.FormatDuration(26*time.Hour+3*time.Minute))
	assert.Equal(t, "5m", utils.FormatDuration(5*time.Minute))
	assert.Equal(t, "1.5s", utils.FormatDuration(1500*time.Millisecond))
}
