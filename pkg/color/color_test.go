package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoints_WhenDisabled(t *testing.T) {
	Disable()
	defer Enable()

	assert.Equal(t, "+5", Points(5))
	assert.Equal(t, "-3", Points(-3))
	assert.Equal(t, "0", Points(0))
}

func TestPoints_WhenEnabled(t *testing.T) {
	Enable()
	defer Disable()

	assert.Contains(t, Points(5), "+5")
	assert.Contains(t, Points(5), Green)
	assert.Contains(t, Points(-3), Red)
	assert.Contains(t, Points(0), Gray)
}

func TestFormatters_PassThroughWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()

	assert.Equal(t, "ok", Success("ok"))
	assert.Equal(t, "bad", Error("bad"))
	assert.Equal(t, "warn", Warning("warn"))
	assert.Equal(t, "users", Category("users"))
	assert.Equal(t, "scorebox score", Code("scorebox score"))
}

func TestFormatters_WrapWhenEnabled(t *testing.T) {
	Enable()
	defer Disable()

	assert.Equal(t, Green+"ok"+Reset, Success("ok"))
	assert.Equal(t, Red+"bad"+Reset, Error("bad"))
	assert.Equal(t, Cyan+"users"+Reset, Category("users"))
}
