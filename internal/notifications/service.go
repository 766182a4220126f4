package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stream2frame/internal/config"
	"stream2frame/internal/history"
	"stream2frame/internal/queue"
)

const userAgent = "Stream2Frame/0.1.0"

// Service defines the notification surface exposed to the scheduler and the
// camera audit. All methods are best-effort: callers log failures and move on.
type Service interface {
	NotifyRunCompleted(ctx context.Context, date queue.Date, duration time.Duration) error
	NotifyRunFailed(ctx context.Context, date queue.Date, outcome history.Outcome, duration time.Duration) error
	NotifyRunInterrupted(ctx context.Context, date queue.Date) error
	NotifyCameraGap(ctx context.Context, date queue.Date, camera string, frames int) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned. The
// per-category toggles in the config suppress individual notification kinds
// without disabling the service.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		runs:     cfg.Notifications.Runs,
		errors:   cfg.Notifications.Errors,
		cameras:  cfg.Notifications.Cameras,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	runs     bool
	errors   bool
	cameras  bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, date queue.Date, duration time.Duration) error {
	if !n.runs {
		return nil
	}
	data := payload{
		title:   "Stream2Frame - Run Complete",
		message: fmt.Sprintf("Processed %s in %s", date, history.FormatDuration(duration)),
		tags:    []string{"stream2frame", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, date queue.Date, outcome history.Outcome, duration time.Duration) error {
	if !n.errors {
		return nil
	}
	data := payload{
		title:    "Stream2Frame - Run Failed",
		message:  fmt.Sprintf("Run for %s ended with %s after %s", date, outcome, history.FormatDuration(duration)),
		tags:     []string{"stream2frame", "run", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunInterrupted(ctx context.Context, date queue.Date) error {
	if !n.errors {
		return nil
	}
	data := payload{
		title:    "Stream2Frame - Run Interrupted",
		message:  fmt.Sprintf("Run for %s was interrupted by a signal", date),
		tags:     []string{"stream2frame", "run", "interrupted"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCameraGap(ctx context.Context, date queue.Date, camera string, frames int) error {
	if !n.cameras {
		return nil
	}
	camera = strings.TrimSpace(camera)
	data := payload{
		title:    "Stream2Frame - Camera Gap",
		message:  fmt.Sprintf("Camera %s produced %d frames for %s\nManual review required", camera, frames, date),
		tags:     []string{"stream2frame", "camera", "gap"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Stream2Frame - Error",
		message:  builder.String(),
		tags:     []string{"stream2frame", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Stream2Frame - Test",
		message:  "Notification system test",
		tags:     []string{"stream2frame", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, queue.Date, time.Duration) error { return nil }
func (noopService) NotifyRunFailed(context.Context, queue.Date, history.Outcome, time.Duration) error {
	return nil
}
func (noopService) NotifyRunInterrupted(context.Context, queue.Date) error         { return nil }
func (noopService) NotifyCameraGap(context.Context, queue.Date, string, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error               { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
