package sentry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests here share the global hub and do not run in parallel.

func TestInitialize_EmptyDSN(t *testing.T) {
	require.NoError(t, Initialize(Config{}))
	assert.NotPanics(t, func() {
		CaptureException(context.Background(), errors.New("ignored"), nil)
		CaptureMessage("ignored")
	})
}

func TestInitialize_InvalidDSN(t *testing.T) {
	assert.Error(t, Initialize(Config{DSN: "not a dsn"}))
}

func TestInitialize_ValidConfig(t *testing.T) {
	err := Initialize(Config{
		DSN:         "https://public@o0.ingest.sentry.io/1",
		Environment: "test",
		Release:     "aulabot@test",
	})
	require.NoError(t, err)
	assert.True(t, IsEnabled())

	CaptureException(context.Background(), errors.New("boom"), map[string]string{"module": "test"})
	CaptureException(context.Background(), nil, nil)
	Flush(100 * time.Millisecond)

	sentry.CurrentHub().BindClient(nil)
	assert.False(t, IsEnabled())
}

func TestScrubUserText(t *testing.T) {
	event := &sentry.Event{Request: &sentry.Request{Data: `{"mensaje":"hola"}`, URL: "/chat"}}
	got := scrubUserText(event, nil)
	assert.Empty(t, got.Request.Data)
	assert.Equal(t, "/chat", got.Request.URL)

	assert.NotNil(t, scrubUserText(&sentry.Event{}, nil))
}
