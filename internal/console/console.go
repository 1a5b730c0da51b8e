// Package console runs AulaBot as an interactive terminal chat.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/garyellow/aulabot-go/internal/bot"
	apperrors "github.com/garyellow/aulabot-go/internal/errors"
	"github.com/garyellow/aulabot-go/internal/logger"
)

const (
	botName    = "AulaBot"
	userPrompt = "Tú: "
	exitWord   = "salir"

	msgBanner   = "¡Hola! Soy tu asistente educativo. Escribe 'salir' para terminar la conversación."
	msgFarewell = "¡Hasta luego!"
	msgError    = "Tuve un problema al responder. 😓 Inténtalo de nuevo."
)

// DefaultUserID is the session used when none is given.
const DefaultUserID = "consola"

// maxLineBytes bounds one input line.
const maxLineBytes = 64 * 1024

// Options configures a Console.
type Options struct {
	UserID  string
	NoColor bool
	Logger  *logger.Logger
}

// Console reads user lines from in and prints replies to out.
type Console struct {
	reply  bot.ReplyFunc
	in     io.Reader
	out    io.Writer
	userID string
	log    *logger.Logger

	botLabel  *color.Color
	userLabel *color.Color
	errLabel  *color.Color
}

// New creates a console over reply.
func New(reply bot.ReplyFunc, in io.Reader, out io.Writer, opts Options) *Console {
	userID := opts.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	c := &Console{
		reply:     reply,
		in:        in,
		out:       out,
		userID:    userID,
		log:       log.WithModule("console"),
		botLabel:  color.New(color.FgCyan, color.Bold),
		userLabel: color.New(color.FgGreen, color.Bold),
		errLabel:  color.New(color.FgRed),
	}
	if opts.NoColor {
		for _, col := range []*color.Color{c.botLabel, c.userLabel, c.errLabel} {
			col.DisableColor()
		}
	}
	return c
}

// Run loops until the user types "salir", input ends or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.say(msgBanner)

	sc := bufio.NewScanner(c.in)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for {
		if err := ctx.Err(); err != nil {
			c.say(msgFarewell)
			return nil
		}
		c.userLabel.Fprint(c.out, userPrompt)
		if !sc.Scan() {
			fmt.Fprintln(c.out)
			c.say(msgFarewell)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if strings.EqualFold(line, exitWord) {
			c.say(msgFarewell)
			return nil
		}
		if line == "" {
			continue
		}

		reply, err := c.reply(ctx, bot.ChannelConsole, c.userID, line)
		switch {
		case err == nil:
			c.say(reply)
		case errors.Is(err, apperrors.ErrEmptyMessage):
		default:
			c.log.WithError(err).Warn("Turn failed")
			c.errLabel.Fprintln(c.out, botName+": "+msgError)
		}
	}
}

func (c *Console) say(text string) {
	c.botLabel.Fprint(c.out, botName+":")
	fmt.Fprintln(c.out, " "+text)
}
