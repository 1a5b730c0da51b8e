package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/aulabot-go/internal/bot"
)

type call struct {
	channel, userID, text string
}

func echo(calls *[]call) bot.ReplyFunc {
	return func(_ context.Context, channel, userID, text string) (string, error) {
		*calls = append(*calls, call{channel, userID, text})
		return "eco: " + text, nil
	}
}

func run(t *testing.T, ctx context.Context, reply bot.ReplyFunc, input string) string {
	t.Helper()
	var out bytes.Buffer
	c := New(reply, strings.NewReader(input), &out, Options{NoColor: true})
	require.NoError(t, c.Run(ctx))
	return out.String()
}

func TestRun_Conversation(t *testing.T) {
	t.Parallel()
	var calls []call
	out := run(t, context.Background(), echo(&calls), "hola\n\n  carreras  \nsalir\nnunca\n")

	want := "AulaBot: " + msgBanner + "\n" +
		"Tú: AulaBot: eco: hola\n" +
		"Tú: " +
		"Tú: AulaBot: eco: carreras\n" +
		"Tú: AulaBot: ¡Hasta luego!\n"
	assert.Equal(t, want, out)
	assert.Equal(t, []call{
		{bot.ChannelConsole, DefaultUserID, "hola"},
		{bot.ChannelConsole, DefaultUserID, "carreras"},
	}, calls)
}

func TestRun_ExitIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	var calls []call
	out := run(t, context.Background(), echo(&calls), "SALIR\n")
	assert.True(t, strings.HasSuffix(out, "AulaBot: ¡Hasta luego!\n"))
	assert.Empty(t, calls)
}

func TestRun_EndOfInput(t *testing.T) {
	t.Parallel()
	var calls []call
	out := run(t, context.Background(), echo(&calls), "hola")
	assert.Contains(t, out, "eco: hola")
	assert.True(t, strings.HasSuffix(out, "AulaBot: ¡Hasta luego!\n"))
}

func TestRun_TurnError(t *testing.T) {
	t.Parallel()
	failing := func(context.Context, string, string, string) (string, error) {
		return "", errors.New("boom")
	}
	out := run(t, context.Background(), failing, "hola\nsalir\n")
	assert.Contains(t, out, "AulaBot: "+msgError)
	assert.NotContains(t, out, "boom")
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls []call
	out := run(t, ctx, echo(&calls), "hola\n")
	assert.Equal(t, "AulaBot: "+msgBanner+"\nAulaBot: ¡Hasta luego!\n", out)
	assert.Empty(t, calls)
}

func TestNew_UserID(t *testing.T) {
	t.Parallel()
	var calls []call
	var out bytes.Buffer
	c := New(echo(&calls), strings.NewReader("hola\n"), &out, Options{UserID: "ana", NoColor: true})
	require.NoError(t, c.Run(context.Background()))
	require.Len(t, calls, 1)
	assert.Equal(t, "ana", calls[0].userID)
}
