package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	Component("parking").Info("garage selected")

	out := buf.String()
	assert.Contains(t, out, "garage selected")
	assert.Contains(t, out, "parking")
}

func TestHelpersAcceptNilFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	assert.NotPanics(t, func() {
		Info(nil, "info")
		Warn(nil, "warn")
		Error(Fields{"frame": 3}, "error")
	})
	assert.Contains(t, buf.String(), "frame")
}
