package mylog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity(t *testing.T) {
	t.Run("Parse known level", func(t *testing.T) {
		assert.Equal(t, SeverityWarn, parseSeverity(" warn "))
	})

	t.Run("Unknown level means everything", func(t *testing.T) {
		assert.Equal(t, SeverityDebug, parseSeverity("verbose"))
	})

	t.Run("Filter below minimum", func(t *testing.T) {
		org := minimumSeverity
		defer func() { minimumSeverity = org }()

		minimumSeverity = SeverityWarn
		assert.False(t, enabled(SeverityInfo))
		assert.True(t, enabled(SeverityWarn))
		assert.True(t, enabled(SeverityError))
	})
}

func TestEntry(t *testing.T) {
	t.Run("Render as cloud logging json", func(t *testing.T) {
		got := entry{
			Component: "blog",
			Labels:    map[string]string{"aggregate": "hello"},
			Severity:  string(SeverityInfo),
			Message:   "blog:created",
		}.String()
		assert.True(t, strings.HasPrefix(got, "{"))
		assert.Contains(t, got, `"severity":"INFO"`)
		assert.Contains(t, got, `"logging.googleapis.com/labels":{"aggregate":"hello"}`)
	})

	t.Run("Logging without request context does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			newGcloudLogger("test").Log(context.Background(), "", SeverityError, "boom %d", 1)
			newStandardLogger("test").Log(context.Background(), "", SeverityError, "boom %d", 1)
		})
	})
}
