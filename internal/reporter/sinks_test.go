package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/repository"
)

func sampleReport() models.GradingReport {
	return models.GradingReport{
		RunID: "run-42",
		Entries: []models.ReportEntry{
			{CaseID: "base", Verdict: models.NewPassVerdict("PromiseCreation", models.CategoryFunctional, 1, true)},
			{CaseID: "base-error-handling", Verdict: models.NewFailVerdict("ErrorHandling", models.CategoryFunctional, 1, true, "missing catch")},
		},
		CustomData: "custom",
	}
}

func TestHistoryReporterStoresRun(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GradingRun{}, &models.GradingCase{}))

	runs := repository.NewGradingRunRepository(db)
	history := NewHistoryReporter(runs, "../index.js", zerolog.Nop())
	require.Equal(t, "history", history.Name())

	require.NoError(t, history.Record(context.Background(), sampleReport()))

	stored, err := runs.GetByRunID(context.Background(), "run-42")
	require.NoError(t, err)
	require.Equal(t, "../index.js", stored.SubmissionPath)
	require.Equal(t, 1.0, stored.EarnedScore)
	require.Equal(t, 2.0, stored.MaxScore)
	require.Equal(t, 1, stored.PassedCases)
	require.Equal(t, 2, stored.TotalCases)
	require.Equal(t, len("custom"), stored.CustomDataLength)
	require.Len(t, stored.Cases, 2)
	require.Equal(t, "base-error-handling", stored.Cases[1].CaseID)
}

type failingRunRepo struct{}

func (failingRunRepo) Create(context.Context, *models.GradingRun) error {
	return errors.New("disk full")
}

func (failingRunRepo) GetByRunID(context.Context, string) (models.GradingRun, error) {
	return models.GradingRun{}, gorm.ErrRecordNotFound
}

func (failingRunRepo) ListRecent(context.Context, int) ([]models.GradingRun, error) {
	return nil, nil
}

func TestHistoryReporterWrapsStoreErrors(t *testing.T) {
	history := NewHistoryReporter(failingRunRepo{}, "index.js", zerolog.Nop())

	err := history.Record(context.Background(), sampleReport())
	require.ErrorContains(t, err, "store grading run run-42")
	require.ErrorContains(t, err, "disk full")
}

func TestEventReporterPublishesEachVerdictToRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	sub := client.Subscribe(context.Background(), "grader:verdicts")
	defer sub.Close()
	_, err = sub.Receive(context.Background())
	require.NoError(t, err)

	events := NewEventReporter(client, nil, "grader:verdicts", zerolog.Nop())
	events.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	require.Equal(t, "events", events.Name())
	require.Equal(t, "grader.verdicts", events.natsSubject)

	require.NoError(t, events.Record(context.Background(), sampleReport()))

	channel := sub.Channel()
	var received []VerdictEvent
	for len(received) < 2 {
		select {
		case msg := <-channel:
			var event VerdictEvent
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
			received = append(received, event)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected 2 events, got %d", len(received))
		}
	}

	require.Equal(t, "base", received[0].CaseID)
	require.Equal(t, "run-42", received[0].RunID)
	require.Equal(t, models.VerdictStatusFail, received[1].Verdict.Status)
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), received[1].SentAt)
}

func TestEventReporterJoinsPublishErrors(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	defer client.Close()
	server.Close()

	events := NewEventReporter(client, nil, "grader:verdicts", zerolog.Nop())
	err = events.Record(context.Background(), sampleReport())
	require.ErrorContains(t, err, "publish to redis")
}
