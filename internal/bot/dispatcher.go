// Package bot holds the conversation dispatcher: the per-turn state machine
// shared by every surface (HTTP, LINE, console).
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/ctxutil"
	apperrors "github.com/garyellow/aulabot-go/internal/errors"
	"github.com/garyellow/aulabot-go/internal/genai"
	"github.com/garyellow/aulabot-go/internal/intent"
	"github.com/garyellow/aulabot-go/internal/knowledge"
	"github.com/garyellow/aulabot-go/internal/learned"
	"github.com/garyellow/aulabot-go/internal/logger"
	"github.com/garyellow/aulabot-go/internal/metrics"
	"github.com/garyellow/aulabot-go/internal/session"
)

// Channels a turn can arrive from.
const (
	ChannelHTTP    = ctxutil.ChannelHTTP
	ChannelLINE    = ctxutil.ChannelLINE
	ChannelConsole = ctxutil.ChannelConsole
)

// Routes name the step that produced a reply.
const (
	routeReset    = "reset"
	routeName     = "name"
	routeLearning = "learning"
	routeLearned  = "learned"
	routeIntent   = "intent"
	routeMajor    = "major"
	routeCourses  = "courses"
	routeGeneral  = "general"
	routeModel    = "model"
	routeFallback = "fallback"
)

// Model answers questions no table covers.
type Model interface {
	Enabled() bool
	Ask(ctx context.Context, req genai.Request) (string, error)
}

// Retriever returns reference snippets for a question.
type Retriever interface {
	Context(query string, topN int) string
}

// Limiter admits or rejects a model call for a user.
type Limiter interface {
	Allow(key string) bool
}

// Config holds the dispatcher's dependencies. Model, Index, LLMLimiter and
// Ignored are optional.
type Config struct {
	Sessions    session.Store
	Catalog     knowledge.Source
	Intents     *intent.Classifier
	Majors      *intent.Classifier
	Learned     learned.Store
	Ignored     learned.IgnoredLog
	Index       Retriever
	Model       Model
	LLMLimiter  Limiter
	Thresholds  config.Thresholds
	Rephrase    bool
	ContextDocs int
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
}

// Dispatcher runs conversation turns.
type Dispatcher struct {
	sessions    session.Store
	catalog     knowledge.Source
	intents     *intent.Classifier
	majors      *intent.Classifier
	learned     learned.Store
	ignored     learned.IgnoredLog
	index       Retriever
	model       Model
	llmLimiter  Limiter
	thresholds  config.Thresholds
	rephrase    bool
	contextDocs int
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

// NewDispatcher creates a dispatcher. Missing classifiers default to the
// built-in tables at the configured intent threshold.
func NewDispatcher(cfg Config) *Dispatcher {
	th := cfg.Thresholds
	if th == (config.Thresholds{}) {
		th = config.DefaultThresholds()
	}
	intents := cfg.Intents
	if intents == nil {
		intents = intent.NewClassifier(intent.DefaultIntents(), th.Intent, nil)
	}
	majors := cfg.Majors
	if majors == nil {
		majors = intent.NewClassifier(intent.DefaultMajors(), th.Intent, nil)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		sessions:    cfg.Sessions,
		catalog:     cfg.Catalog,
		intents:     intents,
		majors:      majors,
		learned:     cfg.Learned,
		ignored:     cfg.Ignored,
		index:       cfg.Index,
		model:       cfg.Model,
		llmLimiter:  cfg.LLMLimiter,
		thresholds:  th,
		rephrase:    cfg.Rephrase,
		contextDocs: cfg.ContextDocs,
		logger:      log.WithModule("dispatcher"),
		metrics:     cfg.Metrics,
	}
}

// turn is the state of one message while it is being answered.
type turn struct {
	ctx    context.Context
	userID string
	text   string
	rec    session.Record
	cat    *knowledge.Catalog
	route  string
	topic  string
	log    *logger.Logger
}

// Reply answers one message from userID. Turns of the same user run one at
// a time. Blank messages are rejected with ErrEmptyMessage.
func (d *Dispatcher) Reply(ctx context.Context, channel, userID, text string) (string, error) {
	text = normalizeWhitespace(text)
	if text == "" {
		return "", apperrors.ErrEmptyMessage
	}

	start := time.Now()
	ctx = ctxutil.WithUserID(ctx, userID)
	ctx = ctxutil.WithChannel(ctx, channel)

	unlock := d.sessions.Lock(userID)
	defer unlock()

	t := &turn{
		ctx:    ctx,
		userID: userID,
		text:   text,
		rec:    d.sessions.Get(userID),
		cat:    d.catalog.Catalog(),
		log:    d.logger.WithField("user_id", userID),
	}

	reply := d.dispatch(t)

	// A reset leaves the session at its defaults.
	if t.route != routeReset {
		if t.rec.State == session.StateNew {
			d.apply(t, session.EventTalk)
		}
		t.rec.AppendTurn(text, reply)
		if t.topic == "" {
			t.topic = t.route
		}
		t.rec.LastTopic = t.topic
		d.sessions.Put(userID, t.rec)
	}

	d.metrics.RecordTurn(channel, t.route, time.Since(start).Seconds())
	d.metrics.SetSessions(d.sessions.Len())
	t.log.WithFields(map[string]any{
		"route":       t.route,
		"state":       t.rec.State.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Turn answered")

	return reply, nil
}

// dispatch runs the steps in order; the first that answers wins.
func (d *Dispatcher) dispatch(t *turn) string {
	inSubFlow := t.rec.AwaitingName() || t.rec.Learning()
	if isResetCommand(t.text, inSubFlow) {
		return d.reset(t)
	}

	steps := []func(*turn) (string, bool){
		d.subFlow,
		d.affirmative,
		d.learnedAnswer,
		d.intentAnswer,
		d.majorAnswer,
		d.courseAnswer,
		d.generalAnswer,
	}
	for _, step := range steps {
		if reply, ok := step(t); ok {
			return reply
		}
	}
	return d.fallback(t)
}

func (d *Dispatcher) apply(t *turn, ev session.Event) {
	if err := t.rec.Apply(ev); err != nil {
		t.log.WithError(err).Warn("Rejected state transition")
	}
}

func (d *Dispatcher) reset(t *turn) string {
	d.sessions.Reset(t.userID)
	t.rec = d.sessions.Get(t.userID)
	t.route = routeReset
	return msgReset
}

// subFlow consumes the message when a name or a lesson is pending.
func (d *Dispatcher) subFlow(t *turn) (string, bool) {
	switch t.rec.State {
	case session.StateAwaitingName:
		name, explicit := extractName(t.text)
		if name != "" && (explicit || !d.looksLikeRequest(t.text)) {
			t.rec.CapturedName = name
			d.apply(t, session.EventNameCaptured)
			t.route = routeName
			return fmt.Sprintf(msgNiceToMeetFm, name), true
		}
		// Not a name: drop the question and answer the message normally.
		d.apply(t, session.EventNameCaptured)
		return "", false

	case session.StateLearningQuestion:
		t.rec.PendingQuestion = t.text
		d.apply(t, session.EventQuestionCaptured)
		t.route = routeLearning
		return fmt.Sprintf(msgLearnQuestionFm, t.text), true

	case session.StateLearningAnswer:
		question := t.rec.PendingQuestion
		d.apply(t, session.EventAnswerCaptured)
		t.route = routeLearning
		t.topic = "aprender"
		if d.learned == nil {
			t.log.Warn("No learned store configured")
			return msgLearnFailed, true
		}
		if err := d.learned.Save(t.ctx, question, t.text); err != nil {
			t.log.WithError(err).Error("Failed to save learned answer")
			return msgLearnFailed, true
		}
		t.log.WithField("question", question).Info("Learned a new answer")
		return msgLearnSaved, true
	}
	return "", false
}

// looksLikeRequest reports whether text reads as a question for the bot
// rather than a name.
func (d *Dispatcher) looksLikeRequest(text string) bool {
	return acceptMatch(d.intents.Match(text), text) || acceptMatch(d.majors.Match(text), text)
}

// affirmative handles a bare "sí" after a major card. It runs before the
// classifiers because short words score high against long synonyms
// ("si" is a substring of "sistemas").
func (d *Dispatcher) affirmative(t *turn) (string, bool) {
	if t.rec.SelectedMajor == "" || !isOnly(t.text, affirmativeWords) {
		return "", false
	}
	return d.browse(t), true
}

func (d *Dispatcher) browse(t *turn) string {
	d.apply(t, session.EventBrowse)
	t.route = routeCourses
	t.topic = t.rec.SelectedMajor
	return fmt.Sprintf(msgBrowseFm, t.rec.SelectedMajor)
}

func (d *Dispatcher) learnedAnswer(t *turn) (string, bool) {
	if d.learned == nil {
		return "", false
	}
	answer, ok, err := learned.Lookup(t.ctx, d.learned, t.text, d.thresholds.Learned)
	if err != nil {
		t.log.WithError(err).Warn("Learned lookup failed")
		return "", false
	}
	if !ok {
		return "", false
	}
	t.route = routeLearned
	return answer, true
}

// fallback logs the question as unanswered and asks the model, if any.
func (d *Dispatcher) fallback(t *turn) string {
	t.route = routeFallback
	if d.ignored != nil {
		if err := d.ignored.Record(t.ctx, t.userID, t.text); err != nil {
			t.log.WithError(err).Warn("Failed to record ignored question")
		}
	}
	d.metrics.RecordIgnored()

	answer, ok := d.ask(t, genai.Request{Question: t.text, History: t.rec.RecentTurns})
	if !ok {
		return msgFallback
	}
	t.route = routeModel
	if d.learned != nil {
		if err := d.learned.Save(t.ctx, t.text, answer); err != nil {
			t.log.WithError(err).Warn("Failed to keep model answer")
		}
	}
	return answer
}

// ask calls the model when it is configured and the user's budget allows.
// Every failure collapses to "no answer".
func (d *Dispatcher) ask(t *turn, req genai.Request) (string, bool) {
	if d.model == nil || !d.model.Enabled() {
		return "", false
	}
	if d.llmLimiter != nil && !d.llmLimiter.Allow(t.userID) {
		t.log.Info("Model call skipped: user over LLM budget")
		return "", false
	}
	answer, err := d.model.Ask(t.ctx, req)
	if err != nil {
		t.log.WithError(err).WithField("status", genai.StatusLabel(err)).Warn("Model gave no answer")
		return "", false
	}
	answer = strings.TrimSpace(answer)
	return answer, answer != ""
}
