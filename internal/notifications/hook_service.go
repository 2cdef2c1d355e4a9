package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portsnotif "github.com/SscSPs/payment_ledger_app/internal/core/ports/notifications"
	"github.com/SscSPs/payment_ledger_app/internal/platform/config"
)

const (
	hookQueueKey       = "notifications"
	hookFailedQueueKey = "notifications:failed"
	maxDeliveryTries   = 3
	retryDelay         = 5 * time.Second
)

// hookJob is the queued form of an emitted event.
type hookJob struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Tries   int             `json:"tries"`
	Created time.Time       `json:"created"`
}

// hookDelivery is the body POSTed to the hook URL.
type hookDelivery struct {
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emittedAt"`
}

// HookService queues domain events in Redis and a worker goroutine delivers
// them to the configured hook URL. Emit never propagates failures; an event
// that cannot be queued is logged and dropped.
type HookService struct {
	redis   *redis.Client
	hookURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHookService builds the Redis-backed notifier. When OAuth client
// credentials are configured, outbound hook requests authenticate with them.
func NewHookService(cfg *config.Config, logger *slog.Logger) *HookService {
	if logger == nil {
		logger = slog.Default()
	}

	var httpClient *http.Client
	if cfg.NotifyOAuthClientID != "" && cfg.NotifyOAuthTokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.NotifyOAuthClientID,
			ClientSecret: cfg.NotifyOAuthClientSecret,
			TokenURL:     cfg.NotifyOAuthTokenURL,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = 10 * time.Second
	} else {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &HookService{
		redis: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}),
		hookURL: cfg.NotifyHookURL,
		client:  httpClient,
		logger:  logger,
	}
}

var _ portsnotif.Notifier = (*HookService)(nil)

// Emit implements portsnotif.Notifier
func (s *HookService) Emit(ctx context.Context, event domain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal event", slog.String("event", event.EventName()), slog.String("error", err.Error()))
		return
	}

	job := hookJob{
		Event:   event.EventName(),
		Payload: payload,
		Created: time.Now(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		s.logger.Error("Failed to marshal notification job", slog.String("event", job.Event), slog.String("error", err.Error()))
		return
	}

	if err := s.redis.LPush(ctx, hookQueueKey, data).Err(); err != nil {
		s.logger.Error("Failed to queue notification", slog.String("event", job.Event), slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("Notification queued", slog.String("event", job.Event))
}

// Start runs the delivery worker until the context is cancelled.
func (s *HookService) Start(ctx context.Context) {
	s.logger.Info("Notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Notification dispatcher stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *HookService) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, hookQueueKey).Result()
	if err != nil {
		return
	}

	var job hookJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		s.logger.Error("Bad notification data", slog.String("error", err.Error()))
		return
	}

	job.Tries++
	if err := s.deliver(ctx, job); err != nil {
		s.logger.Error("Notification delivery failed",
			slog.String("event", job.Event),
			slog.Int("attempt", job.Tries),
			slog.String("error", err.Error()))

		if job.Tries < maxDeliveryTries {
			time.Sleep(retryDelay)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), hookQueueKey, data)
		} else {
			s.saveFailed(job, err)
		}
		return
	}

	s.logger.Debug("Notification delivered", slog.String("event", job.Event))
}

func (s *HookService) deliver(ctx context.Context, job hookJob) error {
	if s.hookURL == "" {
		// No sink configured; surface the event in the log instead.
		s.logger.Info("Domain event", slog.String("event", job.Event), slog.String("payload", string(job.Payload)))
		return nil
	}

	body, err := json.Marshal(hookDelivery{
		Event:     job.Event,
		Payload:   job.Payload,
		EmittedAt: job.Created,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.hookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("hook returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *HookService) saveFailed(job hookJob, deliveryErr error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": deliveryErr.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), hookFailedQueueKey, data)
	s.logger.Error("Notification moved to failed queue", slog.String("event", job.Event))
}

// QueueLength reports the number of undelivered notifications.
func (s *HookService) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, hookQueueKey).Result()
	return length
}

// Close releases the Redis connection.
func (s *HookService) Close() error {
	return s.redis.Close()
}
