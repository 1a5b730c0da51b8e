// Package webhook serves the LINE Messaging API webhook: it verifies the
// signature, answers 200 at once and runs text messages through the
// dispatcher in the background.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/aulabot-go/internal/bot"
	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/ctxutil"
	"github.com/garyellow/aulabot-go/internal/lineutil"
	"github.com/garyellow/aulabot-go/internal/logger"
	"github.com/garyellow/aulabot-go/internal/metrics"
	"github.com/garyellow/aulabot-go/internal/ratelimit"
	"github.com/garyellow/aulabot-go/internal/sentry"
)

const (
	maxEventsPerWebhook = 100
	minReplyTokenLength = 10
	loadingSeconds      = 60
)

const (
	msgTextOnly = "Por ahora solo entiendo mensajes de texto. ✍️"
	msgBusy     = "Estoy recibiendo muchos mensajes. Inténtalo de nuevo en un momento. 🙏"
	msgError    = "Tuve un problema al responder. 😓 Inténtalo de nuevo."
)

// Client is the part of the LINE API the handler uses.
type Client interface {
	Reply(replyToken string, texts []string) error
	ShowLoading(chatID string) error
}

// Handler handles LINE webhook events.
type Handler struct {
	channelSecret string
	client        Client
	reply         bot.ReplyFunc
	welcome       string
	timeout       time.Duration
	globalLimiter *ratelimit.Limiter
	userLimiter   *ratelimit.KeyedLimiter
	metrics       *metrics.Metrics
	logger        *logger.Logger
	wg            sync.WaitGroup
}

// HandlerConfig holds configuration for creating a new Handler. Client is
// built from ChannelToken when nil. UserLimiter is optional.
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	Client        Client
	Reply         bot.ReplyFunc
	Welcome       string
	Timeout       time.Duration
	GlobalRPS     float64
	UserLimiter   *ratelimit.KeyedLimiter
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.ChannelSecret == "" {
		return nil, errors.New("webhook: channel secret is required")
	}
	if cfg.Reply == nil {
		return nil, errors.New("webhook: reply func is required")
	}
	client := cfg.Client
	if client == nil {
		c, err := NewLineClient(cfg.ChannelToken)
		if err != nil {
			return nil, err
		}
		client = c
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.WebhookProcessing
	}
	rps := cfg.GlobalRPS
	if rps <= 0 {
		rps = 100
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	return &Handler{
		channelSecret: cfg.ChannelSecret,
		client:        client,
		reply:         cfg.Reply,
		welcome:       cfg.Welcome,
		timeout:       timeout,
		globalLimiter: ratelimit.New(rps, rps),
		userLimiter:   cfg.UserLimiter,
		metrics:       cfg.Metrics,
		logger:        log.WithModule("webhook"),
	}, nil
}

// Handle is the gin handler for the webhook endpoint.
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			h.metrics.RecordWebhook("batch", "invalid_signature", 0)
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Error("Failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	// LINE expects 200 before the events are processed.
	c.Status(http.StatusOK)

	start := time.Now()
	h.metrics.RecordWebhook("batch", "received", 0)

	events := cb.Events
	if len(events) > maxEventsPerWebhook {
		h.logger.WithField("event_count", len(events)).Warn("Too many events in webhook batch; truncating")
		events = events[:maxEventsPerWebhook]
	}
	events = append([]webhook.EventInterface(nil), events...)

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
				sentry.CaptureException(context.Background(), fmt.Errorf("webhook: panic: %v", r), map[string]string{"module": "webhook"})
			}
		}()
		for _, event := range events {
			h.processEvent(context.Background(), event, start)
		}
	})
}

// processEvent answers one event.
func (h *Handler) processEvent(ctx context.Context, event webhook.EventInterface, batchStart time.Time) {
	eventStart := time.Now()

	eventID, redelivery := eventMeta(event)
	log := h.logger
	if eventID != "" {
		ctx = ctxutil.WithRequestID(ctx, eventID)
		log = log.WithRequestID(eventID)
	}
	if redelivery {
		log = log.WithField("is_redelivery", true)
	}

	var (
		eventType  string
		replyToken string
		texts      []string
		err        error
	)
	switch e := event.(type) {
	case webhook.MessageEvent:
		eventType = "message"
		replyToken = e.ReplyToken
		texts, err = h.handleMessage(ctx, e, log)
	case webhook.FollowEvent:
		eventType = "follow"
		replyToken = e.ReplyToken
		texts = h.welcomeTexts()
	case webhook.JoinEvent:
		eventType = "join"
		replyToken = e.ReplyToken
		texts = h.welcomeTexts()
	default:
		log.WithField("event_type", fmt.Sprintf("%T", e)).Debug("Unsupported event type")
		return
	}

	status := "success"
	if err != nil {
		status = "error"
		log.WithError(err).WithField("event_type", eventType).Error("Failed to handle event")
		texts = []string{msgError}
	}
	h.metrics.RecordWebhook(eventType, status, time.Since(eventStart).Seconds())

	if len(texts) > 0 {
		h.send(ctx, log, eventType, replyToken, texts)
	}

	log.WithFields(map[string]any{
		"event_type":        eventType,
		"event_duration_ms": time.Since(eventStart).Milliseconds(),
		"batch_duration_ms": time.Since(batchStart).Milliseconds(),
	}).Info("Event processed")
}

// handleMessage runs a text message through the dispatcher. Group and room
// messages are answered only when the bot is mentioned.
func (h *Handler) handleMessage(ctx context.Context, e webhook.MessageEvent, log *logger.Logger) ([]string, error) {
	_, personal := e.Source.(webhook.UserSource)

	textMsg, ok := e.Message.(webhook.TextMessageContent)
	if !ok {
		if personal {
			return []string{msgTextOnly}, nil
		}
		return nil, nil
	}

	text := textMsg.Text
	if !personal {
		if !isBotMentioned(textMsg) {
			return nil, nil
		}
		text = removeBotMentions(text, textMsg.Mention)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	userID := SessionID(e.Source)
	if h.userLimiter != nil && !h.userLimiter.Allow(userID) {
		log.Info("User over message budget")
		return []string{msgBusy}, nil
	}

	if chatID := ChatID(e.Source); chatID != "" {
		if err := h.client.ShowLoading(chatID); err != nil {
			log.WithError(err).Warn("Failed to show loading animation")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	reply, err := h.reply(ctx, bot.ChannelLINE, userID, text)
	if err != nil {
		return nil, err
	}
	return splitText(reply, lineutil.MaxTextMessageLength, lineutil.MaxMessagesPerReply), nil
}

func (h *Handler) welcomeTexts() []string {
	if h.welcome == "" {
		return nil
	}
	return []string{h.welcome}
}

// send replies with texts, waiting on the global limiter first.
func (h *Handler) send(ctx context.Context, log *logger.Logger, eventType, replyToken string, texts []string) {
	if len(replyToken) < minReplyTokenLength {
		log.WithField("token_length", len(replyToken)).Debug("Invalid reply token, skipping reply")
		return
	}

	if !h.globalLimiter.Allow() {
		log.Warn("Global rate limit exceeded; waiting")
		h.metrics.RecordRateLimiterDrop("global")
		waitCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.globalLimiter.Wait(waitCtx)
		cancel()
		if err != nil {
			log.WithError(err).Error("Gave up waiting for the global rate limiter")
			return
		}
	}

	if err := h.client.Reply(replyToken, texts); err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "Invalid reply token"):
			log.WithError(err).Debug("Reply token already used or invalid")
		case strings.Contains(errMsg, "rate limit"):
			log.WithError(err).Error("Rate limit exceeded")
		default:
			log.WithError(err).WithField("reply_token", replyToken[:8]+"...").Error("Failed to send reply")
		}
		h.metrics.RecordWebhook(eventType, "reply_error", 0)
	}
}

func eventMeta(event webhook.EventInterface) (string, bool) {
	var (
		id string
		dc *webhook.DeliveryContext
	)
	switch e := event.(type) {
	case webhook.MessageEvent:
		id, dc = e.WebhookEventId, e.DeliveryContext
	case webhook.FollowEvent:
		id, dc = e.WebhookEventId, e.DeliveryContext
	case webhook.JoinEvent:
		id, dc = e.WebhookEventId, e.DeliveryContext
	}
	return id, dc != nil && dc.IsRedelivery
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// menuQuickReply is attached to every reply so common requests are one
// tap away.
var menuQuickReply = []lineutil.QuickReplyItem{
	lineutil.QuickReplyText("📚 Carreras", "carreras"),
	lineutil.QuickReplyText("📖 Materias", "materias"),
	lineutil.QuickReplyText("🎓 Aprender", "aprender"),
	lineutil.QuickReplyText("❓ Ayuda", "ayuda"),
	lineutil.QuickReplyText("🔄 Menú", "menu"),
}

// lineClient adapts the Messaging API client to Client.
type lineClient struct {
	api *messaging_api.MessagingApiAPI
}

// NewLineClient creates a Client backed by the LINE Messaging API.
func NewLineClient(channelToken string) (Client, error) {
	api, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}
	return &lineClient{api: api}, nil
}

func (c *lineClient) Reply(replyToken string, texts []string) error {
	_, err := c.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   lineutil.TextMessages(texts, nil, menuQuickReply...),
	})
	return err
}

func (c *lineClient) ShowLoading(chatID string) error {
	// loadingSeconds must be a multiple of 5 between 5 and 60.
	_, err := c.api.ShowLoadingAnimation(&messaging_api.ShowLoadingAnimationRequest{
		ChatId:         chatID,
		LoadingSeconds: loadingSeconds,
	})
	if err != nil {
		return fmt.Errorf("show loading animation: %w", err)
	}
	return nil
}
