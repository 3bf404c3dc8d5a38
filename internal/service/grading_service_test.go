package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grader/internal/dto"
	"github.com/noah-isme/gema-grader/internal/models"
	"github.com/noah-isme/gema-grader/internal/reporter"
	"github.com/noah-isme/gema-grader/internal/rules"
	"github.com/noah-isme/gema-grader/pkg/jsparse"
)

const completeSubmission = `function getUser(id) {
  return new Promise((resolve) => resolve(id));
}

getUser(1)
  .then((id) => fetch("/users/" + id))
  .then((res) => res.json())
  .then((user) => fetch("/posts?user=" + user.id))
  .catch((err) => console.error(err));
`

type recordingSubmitter struct {
	mu        sync.Mutex
	envelopes []dto.RemoteEnvelope
}

func (r *recordingSubmitter) Submit(_ context.Context, envelope dto.RemoteEnvelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envelopes = append(r.envelopes, envelope)
}

type stubRecorder struct {
	name    string
	err     error
	reports []models.GradingReport
}

func (s *stubRecorder) Name() string { return s.name }

func (s *stubRecorder) Record(_ context.Context, report models.GradingReport) error {
	s.reports = append(s.reports, report)
	return s.err
}

type gradingFixture struct {
	dir        string
	submission string
	customData string
	artifacts  []string
}

func newGradingFixture(t *testing.T, source string) gradingFixture {
	t.Helper()

	dir := t.TempDir()
	fixture := gradingFixture{
		dir:        dir,
		submission: filepath.Join(dir, "index.js"),
		customData: filepath.Join(dir, "custom.ih"),
		artifacts: []string{
			filepath.Join(dir, "output_revised.txt"),
			filepath.Join(dir, "output_boundary_revised.txt"),
			filepath.Join(dir, "output_exception_revised.txt"),
			filepath.Join(dir, "test-report.xml"),
		},
	}
	require.NoError(t, os.WriteFile(fixture.submission, []byte(source), 0o644))
	require.NoError(t, os.WriteFile(fixture.customData, []byte("opaque"), 0o644))
	return fixture
}

func (f gradingFixture) service(t *testing.T, catalog []rules.Rule, remote RemoteSubmitter, recorders ...RunRecorder) GradingService {
	t.Helper()

	engine, err := rules.NewEngine(catalog, zerolog.Nop())
	require.NoError(t, err)

	deps := GradingDependencies{
		Artifacts:  NewArtifactLifecycle(f.artifacts, zerolog.Nop()),
		Loader:     NewSourceLoader(),
		Validator:  jsparse.NewValidator(),
		Engine:     engine,
		Aggregator: NewResultAggregator(testBaseCaseID, zerolog.Nop()),
		Remote:     remote,
		XML:        reporter.NewXMLReporter(f.artifacts[3]),
		Text: reporter.NewTextReporter(map[models.Category]string{
			models.CategoryFunctional: f.artifacts[0],
			models.CategoryBoundary:   f.artifacts[1],
			models.CategoryException:  f.artifacts[2],
		}),
		Recorders: recorders,
	}
	return NewGradingService(deps, GradingConfig{SubmissionPath: f.submission, CustomDataPath: f.customData}, zerolog.Nop())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGradingServiceRunWritesEverySink(t *testing.T) {
	fixture := newGradingFixture(t, completeSubmission)
	remote := &recordingSubmitter{}
	recorder := &stubRecorder{name: "history"}

	report, err := fixture.service(t, rules.DefaultCatalog(), remote, recorder).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Entries, 4)
	require.Equal(t, 4, report.PassedCount())
	require.Equal(t, "opaque", report.CustomData)

	require.Equal(t,
		"PromiseCreation=PASS\nPromiseChaining=PASS\nErrorHandling=PASS\nSequentialFetching=PASS\n",
		readFile(t, fixture.artifacts[0]))
	require.NoFileExists(t, fixture.artifacts[1])
	require.NoFileExists(t, fixture.artifacts[2])
	require.Equal(t,
		"<case><test-case-type>Pass</test-case-type><name>PromiseCreation</name><status>Pass</status></case>\n"+
			"<case><test-case-type>Pass</test-case-type><name>PromiseChaining</name><status>Pass</status></case>\n"+
			"<case><test-case-type>Pass</test-case-type><name>ErrorHandling</name><status>Pass</status></case>\n"+
			"<case><test-case-type>Pass</test-case-type><name>SequentialFetching</name><status>Pass</status></case>\n",
		readFile(t, fixture.artifacts[3]))

	require.Len(t, remote.envelopes, 4)
	require.Equal(t, testBaseCaseID, remote.envelopes[0].CaseID())
	require.Equal(t, testBaseCaseID+"-sequential-fetching", remote.envelopes[3].CaseID())
	require.Equal(t, "opaque", remote.envelopes[3].CustomData)

	require.Len(t, recorder.reports, 1)
	require.Equal(t, report.RunID, recorder.reports[0].RunID)
}

func TestGradingServiceRunIsIdempotent(t *testing.T) {
	fixture := newGradingFixture(t, "fetch('/a').then(r => r.json())")
	svc := fixture.service(t, rules.DefaultCatalog(), nil)

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	firstText := readFile(t, fixture.artifacts[0])
	firstXML := readFile(t, fixture.artifacts[3])

	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, firstText, readFile(t, fixture.artifacts[0]))
	require.Equal(t, firstXML, readFile(t, fixture.artifacts[3]))
	require.NotEqual(t, first.RunID, second.RunID)

	if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(models.GradingReport{}, "RunID")); diff != "" {
		t.Fatalf("reports differ between runs (-first +second):\n%s", diff)
	}
}

func TestGradingServiceRunFailsWhenSubmissionMissing(t *testing.T) {
	fixture := newGradingFixture(t, completeSubmission)
	require.NoError(t, os.Remove(fixture.submission))
	require.NoError(t, os.WriteFile(fixture.artifacts[0], []byte("stale"), 0o644))
	remote := &recordingSubmitter{}

	report, err := fixture.service(t, rules.DefaultCatalog(), remote).Run(context.Background())
	require.ErrorIs(t, err, ErrSourceUnreadable)
	require.Empty(t, report.Entries)
	require.Empty(t, remote.envelopes)
	require.NoFileExists(t, fixture.artifacts[0])
	require.NoFileExists(t, fixture.artifacts[3])
}

func TestGradingServiceGradesInvalidSyntax(t *testing.T) {
	fixture := newGradingFixture(t, "new Promise(( => { fetch(")

	report, err := fixture.service(t, rules.DefaultCatalog(), nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Entries, 4)

	verdict, ok := report.Verdict(testBaseCaseID)
	require.True(t, ok)
	require.True(t, verdict.Passed())

	verdict, ok = report.Verdict(testBaseCaseID + "-promise-chaining")
	require.True(t, ok)
	require.False(t, verdict.Passed())
	require.Equal(t, []string{"You must chain at least two promises using .then() for sequential operations."}, verdict.Feedback)
}

func TestGradingServiceSurvivesPanickingRule(t *testing.T) {
	catalog := rules.DefaultCatalog()
	catalog[1].Predicate = func(string) (bool, error) { panic("boom") }
	fixture := newGradingFixture(t, completeSubmission)

	report, err := fixture.service(t, catalog, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Entries, 4)
	require.Equal(t, 3, report.PassedCount())
	require.Equal(t,
		"PromiseCreation=PASS\nPromiseChaining=FAIL\nErrorHandling=PASS\nSequentialFetching=PASS\n",
		readFile(t, fixture.artifacts[0]))
}

func TestGradingServiceRemoteFailureDoesNotBlockFiles(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	remote := reporter.NewRemoteReporter(reporter.RemoteConfig{
		Endpoint: server.URL,
		Timeout:  5 * time.Second,
		Logger:   zerolog.Nop(),
	})
	fixture := newGradingFixture(t, completeSubmission)

	report, err := fixture.service(t, rules.DefaultCatalog(), remote).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Entries, 4)
	require.FileExists(t, fixture.artifacts[0])
	require.FileExists(t, fixture.artifacts[3])
	require.Positive(t, remote.Pending())

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, remote.Drain(ctx))
	require.Zero(t, remote.Pending())
}

func TestGradingServiceRecorderErrorsAreNotFatal(t *testing.T) {
	fixture := newGradingFixture(t, completeSubmission)
	failing := &stubRecorder{name: "events", err: errors.New("broker down")}
	healthy := &stubRecorder{name: "history"}

	_, err := fixture.service(t, rules.DefaultCatalog(), nil, failing, healthy).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, failing.reports, 1)
	require.Len(t, healthy.reports, 1)
}

func TestGradingServiceGradeInMemory(t *testing.T) {
	fixture := newGradingFixture(t, completeSubmission)
	svc := fixture.service(t, rules.DefaultCatalog(), nil)

	result := svc.Grade(context.Background(), "let x = ;", "custom")
	require.Error(t, result.SyntaxErr)
	require.Equal(t, "custom", result.Report.CustomData)
	require.Zero(t, result.Report.PassedCount())
	require.NoFileExists(t, fixture.artifacts[0])

	result = svc.Grade(context.Background(), completeSubmission, "")
	require.NoError(t, result.SyntaxErr)
	earned, max := result.Report.Score()
	require.Equal(t, 4.0, earned)
	require.Equal(t, 4.0, max)
}
