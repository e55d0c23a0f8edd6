package logging

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	color.NoColor = true

	t.Run("debug disabled", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, false)
		l.Debugf("hidden %d", 1)
		l.Warnf("shown %d", 2)

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "WARN shown 2")
	})

	t.Run("debug enabled", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, true)
		l.Debugf("visible")

		assert.Contains(t, buf.String(), "DEBUG visible")
		assert.Contains(t, buf.String(), "tso: ")
	})

	t.Run("nil logger", func(t *testing.T) {
		var l *Logger
		assert.NotPanics(t, func() {
			l.Errorf("nothing")
			l.Debugf("nothing")
		})
		assert.False(t, l.DebugEnabled())
	})
}
