package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shelver/internal/config"
)

const userAgent = "shelver/0.1.0"

// Event identifies a notification-worthy occurrence.
type Event string

const (
	EventTaskEnqueued  Event = "task_enqueued"
	EventTaskCompleted Event = "task_completed"
	EventCfgCreated    Event = "cfg_created"
	EventLockStuck     Event = "lock_stuck"
	EventFatal         Event = "fatal"
	EventTest          Event = "test"
)

// Payload carries event fields keyed by name.
type Payload map[string]any

// Service publishes events to whichever transports are configured.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// Option customizes NewService.
type Option func(*options)

type options struct {
	telegramAPI string
}

// WithTelegramAPI overrides the Telegram Bot API base URL.
func WithTelegramAPI(baseURL string) Option {
	return func(o *options) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			o.telegramAPI = strings.TrimRight(baseURL, "/")
		}
	}
}

// NewService builds a notification service from configuration. ntfy and
// Telegram are enabled independently; with neither configured a noop
// implementation is returned.
func NewService(cfg *config.Config, opts ...Option) Service {
	o := options{telegramAPI: defaultTelegramAPI}
	for _, opt := range opts {
		opt(&o)
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var transports []transport
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		transports = append(transports, newNtfy(topic, timeout))
	}
	token := strings.TrimSpace(cfg.Notifications.TelegramBotToken)
	chatID := strings.TrimSpace(cfg.Notifications.TelegramChatID)
	if token != "" && chatID != "" {
		transports = append(transports, newTelegram(o.telegramAPI, token, chatID, timeout))
	}

	if len(transports) == 0 {
		return noopService{}
	}
	return &fanout{transports: transports}
}

// Configured reports whether cfg enables at least one transport.
func Configured(cfg *config.Config) bool {
	_, noop := NewService(cfg).(noopService)
	return !noop
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type transport interface {
	name() string
	send(ctx context.Context, msg message) error
}

type fanout struct {
	transports []transport
}

func (f *fanout) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	var errs []error
	for _, t := range f.transports {
		if err := t.send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.name(), err))
		}
	}
	return errors.Join(errs...)
}

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventTaskCompleted:
		body := fmt.Sprintf("📦 Archived: %s", payload.text("name"))
		if dest := payload.text("destination"); dest != "" {
			body = fmt.Sprintf("%s\nTo: %s", body, dest)
		}
		if linked := payload.text("linked"); linked != "" {
			body = fmt.Sprintf("%s\nFiles: %s", body, linked)
		}
		return message{
			title: "Shelver - Archived",
			body:  body,
			tags:  []string{"shelver", "archive", "completed"},
		}, true
	case EventCfgCreated:
		return message{
			title: "Shelver - Policy Saved",
			body:  fmt.Sprintf("Policy stored for content %s season %s", payload.text("content_id"), payload.text("season")),
			tags:  []string{"shelver", "cfg", "created"},
		}, true
	case EventLockStuck:
		body := fmt.Sprintf("🔒 Lock %s expired at %s without release", payload.text("lock"), payload.text("expires_at"))
		if token := payload.text("token"); token != "" {
			body = fmt.Sprintf("%s\nClear it with: shelver locks release %s %s", body, payload.text("lock"), token)
		}
		return message{
			title:    "Shelver - Lock Stuck",
			body:     body,
			tags:     []string{"shelver", "lock", "stuck"},
			priority: "high",
		}, true
	case EventFatal:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if stage := payload.text("stage"); stage != "" {
			builder.WriteString(" with ")
			builder.WriteString(stage)
		}
		builder.WriteString(": ")
		if errText := payload.text("error"); errText != "" {
			builder.WriteString(errText)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Shelver - Error",
			body:     builder.String(),
			tags:     []string{"shelver", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Shelver - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"shelver", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
