package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/gema-grader/internal/dto"
	"github.com/noah-isme/gema-grader/internal/observability"
)

const maxResponseBody = 64 << 10

// ErrRemoteStatus is returned when the scoring endpoint answers with a non-2xx status.
var ErrRemoteStatus = errors.New("unexpected response status")

// RemoteConfig configures the scoring endpoint client.
type RemoteConfig struct {
	Endpoint string
	Timeout  time.Duration
	Client   *http.Client
	Logger   zerolog.Logger
}

// RemoteReporter posts each verdict envelope to the scoring endpoint on its
// own goroutine. Callers never wait for a submission; Drain offers a
// best-effort wait before the process exits.
type RemoteReporter struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	logger   zerolog.Logger
	tracer   trace.Tracer
	group    errgroup.Group
	pending  atomic.Int64
}

// NewRemoteReporter builds the reporter. An empty endpoint disables submission.
func NewRemoteReporter(cfg RemoteConfig) *RemoteReporter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	return &RemoteReporter{
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
		client:   client,
		logger:   cfg.Logger.With().Str("component", "remote_reporter").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/gema-grader/internal/reporter/remote"),
	}
}

// Enabled reports whether an endpoint is configured.
func (r *RemoteReporter) Enabled() bool {
	return r.endpoint != ""
}

// Pending returns the number of submissions still in flight.
func (r *RemoteReporter) Pending() int64 {
	return r.pending.Load()
}

// Submit dispatches the envelope and returns immediately. Cancelling ctx
// does not abort a dispatched submission.
func (r *RemoteReporter) Submit(ctx context.Context, envelope dto.RemoteEnvelope) {
	if !r.Enabled() {
		r.logger.Debug().Str("case_id", envelope.CaseID()).Msg("remote endpoint disabled, skipping submission")
		return
	}

	detached := context.WithoutCancel(ctx)
	r.pending.Add(1)
	r.group.Go(func() error {
		defer r.pending.Add(-1)
		if err := r.Send(detached, envelope); err != nil {
			observability.SinkErrors().WithLabelValues("remote").Inc()
			r.logger.Error().Err(err).Str("case_id", envelope.CaseID()).Msg("failed to send result to scoring endpoint")
		}
		return nil
	})
}

// Send posts one envelope and waits for the response.
func (r *RemoteReporter) Send(parent context.Context, envelope dto.RemoteEnvelope) error {
	ctx, span := r.tracer.Start(parent, "remote.submit", trace.WithAttributes(
		attribute.String("case.id", envelope.CaseID()),
	))
	defer span.End()

	start := time.Now()
	err := r.post(ctx, envelope)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	observability.RemoteSubmissions().WithLabelValues(outcome).Inc()
	observability.RemoteSubmissionDuration().WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return err
}

func (r *RemoteReporter) post(ctx context.Context, envelope dto.RemoteEnvelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	r.logger.Info().Str("case_id", envelope.CaseID()).RawJSON("payload", body).Msg("sending result to scoring endpoint")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("post result: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d: %s", ErrRemoteStatus, resp.StatusCode, string(payload))
	}

	r.logger.Info().
		Str("case_id", envelope.CaseID()).
		Int("status", resp.StatusCode).
		Str("response", string(payload)).
		Msg("scoring endpoint response")
	return nil
}

// Drain waits for in-flight submissions until ctx is done. Submissions still
// running at the deadline are abandoned.
func (r *RemoteReporter) Drain(ctx context.Context) error {
	if r.Pending() == 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		_ = r.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if r.Pending() == 0 {
			return nil
		}
		return fmt.Errorf("%d remote submissions still in flight: %w", r.Pending(), ctx.Err())
	}
}
