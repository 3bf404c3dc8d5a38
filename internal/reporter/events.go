package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grader/internal/models"
)

// VerdictEvent is the message published for every verdict.
type VerdictEvent struct {
	RunID   string             `json:"run_id"`
	CaseID  string             `json:"case_id"`
	Verdict models.RuleVerdict `json:"verdict"`
	SentAt  time.Time          `json:"sent_at"`
}

// EventReporter publishes verdicts to a Redis channel and/or a NATS subject.
type EventReporter struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewEventReporter builds a publisher. Either client may be nil. The NATS
// subject is derived from channel by replacing ':' with '.'.
func NewEventReporter(redisClient *redis.Client, natsConn *nats.Conn, channel string, logger zerolog.Logger) *EventReporter {
	return &EventReporter{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  strings.ReplaceAll(channel, ":", "."),
		logger:       logger.With().Str("component", "event_reporter").Logger(),
		now:          time.Now,
	}
}

// Name identifies the sink in logs and metrics.
func (r *EventReporter) Name() string {
	return "events"
}

// Record publishes one event per verdict. Every verdict is attempted; the
// returned error joins the individual failures.
func (r *EventReporter) Record(ctx context.Context, report models.GradingReport) error {
	var errs []error
	for _, entry := range report.Entries {
		if err := r.publish(ctx, report.RunID, entry); err != nil {
			r.logger.Warn().Err(err).Str("case_id", entry.CaseID).Msg("failed to publish verdict event")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *EventReporter) publish(ctx context.Context, runID string, entry models.ReportEntry) error {
	payload, err := json.Marshal(VerdictEvent{
		RunID:   runID,
		CaseID:  entry.CaseID,
		Verdict: entry.Verdict,
		SentAt:  r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode verdict event: %w", err)
	}

	if r.redis != nil && r.redisChannel != "" {
		if err := r.redis.Publish(ctx, r.redisChannel, payload).Err(); err != nil {
			return fmt.Errorf("publish to redis: %w", err)
		}
	}

	if r.nats != nil && r.natsSubject != "" {
		if err := r.nats.Publish(r.natsSubject, payload); err != nil {
			return fmt.Errorf("publish to nats: %w", err)
		}
	}

	return nil
}
