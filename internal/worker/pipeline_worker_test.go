package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hireflow/api/internal/client"
	"github.com/hireflow/api/internal/config"
	"github.com/hireflow/api/internal/model"
	"github.com/hireflow/api/internal/service"
	"github.com/hireflow/api/internal/store"
)

type fakeResumeScorer struct {
	score        float64
	err          error
	calls        int
	unconfigured bool
}

func (f *fakeResumeScorer) AnalyzeResume(ctx context.Context, req *client.AnalyzeResumeRequest) (*client.AnalyzeResumeResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &client.AnalyzeResumeResponse{
		Report: client.ResumeReport{PercentageScore: f.score},
	}, nil
}

func (f *fakeResumeScorer) IsConfigured() bool { return !f.unconfigured }

type fakeInterviewProvider struct {
	err   error
	calls int
}

func (f *fakeInterviewProvider) StartInterview(ctx context.Context, req *client.StartInterviewRequest) (*client.StartInterviewResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &client.StartInterviewResponse{
		SessionID: "int-1",
		Questions: json.RawMessage(`["Tell us about a project you shipped."]`),
	}, nil
}

func (f *fakeInterviewProvider) IsConfigured() bool { return true }

// pipelineFixture wires a pipeline against in-memory storage and fakes.
type pipelineFixture struct {
	pipeline   *Pipeline
	ledger     *store.MemoryLedger
	app        *model.Application
	resume     *fakeResumeScorer
	assessment *fakeAssessmentProvider
	interview  *fakeInterviewProvider
}

func newPipelineFixture(t *testing.T, resume *fakeResumeScorer, assessment *fakeAssessmentProvider, interview *fakeInterviewProvider, pollAttempts int) *pipelineFixture {
	t.Helper()
	ctx := context.Background()

	db := testDB(t)
	appRepo := store.NewApplicationRepository(db)
	jobRepo := store.NewJobRepository(db)
	assessmentRepo := store.NewAssessmentRepository(db)
	interviewRepo := store.NewInterviewRepository(db)
	ledger := store.NewMemoryLedger()

	// Serve resume bytes for the scoring stage to download
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 test resume"))
	}))
	t.Cleanup(srv.Close)

	job := &model.Job{
		ID:          uuid.New().String(),
		RecruiterID: "recruiter-1",
		Title:       "Backend Engineer",
		Company:     "Acme Corp",
		Description: "Build and operate Go services.",
		CreatedAt:   time.Now(),
	}
	if err := jobRepo.Create(ctx, job); err != nil {
		t.Fatalf("failed to seed job: %v", err)
	}

	app := &model.Application{
		ID:             uuid.New().String(),
		JobID:          job.ID,
		CandidateID:    "cand-1",
		CandidateName:  "Ada Lovelace",
		CandidateEmail: "ada@example.com",
		ResumeURL:      srv.URL + "/resume.pdf",
		Status:         model.ApplicationStatusPending,
		CreatedAt:      time.Now(),
	}
	if err := appRepo.Create(ctx, app); err != nil {
		t.Fatalf("failed to seed application: %v", err)
	}

	cfg := config.PipelineConfig{
		ResumeThreshold:      30,
		AssessmentThreshold:  5,
		PollMaxAttempts:      pollAttempts,
		PollInterval:         time.Millisecond,
		NumJobQuestions:      5,
		NumSoftQuestions:     5,
		NumAptitudeQuestions: 5,
	}

	assessmentService := service.NewAssessmentService(assessmentRepo, assessment, nil, config.AssessmentConfig{}, cfg)
	interviewService := service.NewInterviewService(interviewRepo, interview, nil, config.InterviewConfig{})
	poller := NewAssessmentPoller(assessmentRepo, assessment, cfg.PollMaxAttempts, cfg.PollInterval)

	return &pipelineFixture{
		pipeline:   NewPipeline(appRepo, jobRepo, ledger, resume, assessmentService, interviewService, poller, nil, cfg),
		ledger:     ledger,
		app:        app,
		resume:     resume,
		assessment: assessment,
		interview:  interview,
	}
}

func (f *pipelineFixture) records(t *testing.T) []model.StageRecord {
	t.Helper()
	records, err := f.ledger.Read(context.Background(), f.app.ID)
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 stage records, got %d", len(records))
	}
	return records
}

func assertStage(t *testing.T, rec model.StageRecord, status model.StageStatus) {
	t.Helper()
	if rec.StepStatus != status {
		t.Errorf("stage %d: expected %s, got %s", rec.Step, status, rec.StepStatus)
	}
}

func TestPipeline_FullRun(t *testing.T) {
	f := newPipelineFixture(t,
		&fakeResumeScorer{score: 45},
		&fakeAssessmentProvider{completeAt: 1, score: 60},
		&fakeInterviewProvider{},
		5,
	)

	if err := f.pipeline.Run(context.Background(), f.app.ID); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	records := f.records(t)

	assertStage(t, records[0], model.StageStatusCompleted)
	if records[0].Score == nil || *records[0].Score != 45 {
		t.Errorf("expected resume score 45, got %v", records[0].Score)
	}

	assertStage(t, records[1], model.StageStatusCompleted)
	if records[1].AssessmentSent == nil || !*records[1].AssessmentSent {
		t.Error("expected assessmentSent=true")
	}
	if records[1].AssessmentScore == nil || *records[1].AssessmentScore != 60 {
		t.Errorf("expected assessment score 60, got %v", records[1].AssessmentScore)
	}

	assertStage(t, records[2], model.StageStatusCompleted)
	if records[2].InterviewCreated == nil || !*records[2].InterviewCreated {
		t.Error("expected interviewCreated=true")
	}
	if f.interview.calls != 1 {
		t.Errorf("expected one interview call, got %d", f.interview.calls)
	}
}

func TestPipeline_ResumeBelowGate(t *testing.T) {
	f := newPipelineFixture(t,
		&fakeResumeScorer{score: 10},
		&fakeAssessmentProvider{},
		&fakeInterviewProvider{},
		5,
	)

	if err := f.pipeline.Run(context.Background(), f.app.ID); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	records := f.records(t)

	assertStage(t, records[0], model.StageStatusCompleted)
	if records[0].Score == nil || *records[0].Score != 10 {
		t.Errorf("expected resume score 10, got %v", records[0].Score)
	}

	// Skipped stages are a valid terminal outcome, not a failure
	assertStage(t, records[1], model.StageStatusCompleted)
	if records[1].AssessmentSent == nil || *records[1].AssessmentSent {
		t.Error("expected assessmentSent=false")
	}
	if records[1].AssessmentScore != nil {
		t.Errorf("expected no assessment score, got %v", records[1].AssessmentScore)
	}

	assertStage(t, records[2], model.StageStatusCompleted)
	if records[2].InterviewCreated == nil || *records[2].InterviewCreated {
		t.Error("expected interviewCreated=false")
	}

	// No external calls for the skipped stages
	if f.assessment.startCalls != 0 {
		t.Errorf("expected no assessment calls, got %d", f.assessment.startCalls)
	}
	if f.interview.calls != 0 {
		t.Errorf("expected no interview calls, got %d", f.interview.calls)
	}
}

func TestPipeline_ResumeServiceFails(t *testing.T) {
	f := newPipelineFixture(t,
		&fakeResumeScorer{err: client.ErrServiceUnavailable},
		&fakeAssessmentProvider{},
		&fakeInterviewProvider{},
		5,
	)

	if err := f.pipeline.Run(context.Background(), f.app.ID); err == nil {
		t.Fatal("expected pipeline error")
	}

	records := f.records(t)

	assertStage(t, records[0], model.StageStatusError)
	if records[0].Error == nil || *records[0].Error == "" {
		t.Error("expected error message on stage 1")
	}
	assertStage(t, records[1], model.StageStatusPending)
	assertStage(t, records[2], model.StageStatusPending)
}

func TestPipeline_AssessmentTimeout(t *testing.T) {
	f := newPipelineFixture(t,
		&fakeResumeScorer{score: 45},
		&fakeAssessmentProvider{}, // never completes
		&fakeInterviewProvider{},
		3,
	)

	if err := f.pipeline.Run(context.Background(), f.app.ID); err == nil {
		t.Fatal("expected pipeline error")
	}

	records := f.records(t)

	assertStage(t, records[0], model.StageStatusCompleted)

	assertStage(t, records[1], model.StageStatusError)
	if records[1].AssessmentSent == nil || !*records[1].AssessmentSent {
		t.Error("expected assessmentSent=true before the timeout")
	}

	assertStage(t, records[2], model.StageStatusPending)
	if f.interview.calls != 0 {
		t.Errorf("expected no interview calls after timeout, got %d", f.interview.calls)
	}
}

func TestPipeline_AssessmentStartFails(t *testing.T) {
	f := newPipelineFixture(t,
		&fakeResumeScorer{score: 45},
		&fakeAssessmentProvider{startErr: client.ErrServiceUnavailable},
		&fakeInterviewProvider{},
		3,
	)

	if err := f.pipeline.Run(context.Background(), f.app.ID); err == nil {
		t.Fatal("expected pipeline error")
	}

	records := f.records(t)
	assertStage(t, records[0], model.StageStatusCompleted)
	assertStage(t, records[1], model.StageStatusError)
	assertStage(t, records[2], model.StageStatusPending)
}

func TestPipeline_InterviewFailsKeepsEarlierStages(t *testing.T) {
	f := newPipelineFixture(t,
		&fakeResumeScorer{score: 45},
		&fakeAssessmentProvider{completeAt: 1, score: 60},
		&fakeInterviewProvider{err: errors.New("interview service exploded")},
		5,
	)

	if err := f.pipeline.Run(context.Background(), f.app.ID); err == nil {
		t.Fatal("expected pipeline error")
	}

	records := f.records(t)

	// Stage-local failure must not retroactively touch completed stages
	assertStage(t, records[0], model.StageStatusCompleted)
	assertStage(t, records[1], model.StageStatusCompleted)
	assertStage(t, records[2], model.StageStatusError)
}

func TestPipeline_AssessmentBelowGateSkipsInterview(t *testing.T) {
	f := newPipelineFixture(t,
		&fakeResumeScorer{score: 45},
		&fakeAssessmentProvider{completeAt: 1, score: 3}, // below the interview gate
		&fakeInterviewProvider{},
		5,
	)

	if err := f.pipeline.Run(context.Background(), f.app.ID); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	records := f.records(t)

	assertStage(t, records[1], model.StageStatusCompleted)
	if records[1].AssessmentScore == nil || *records[1].AssessmentScore != 3 {
		t.Errorf("expected assessment score 3, got %v", records[1].AssessmentScore)
	}

	assertStage(t, records[2], model.StageStatusCompleted)
	if records[2].InterviewCreated == nil || *records[2].InterviewCreated {
		t.Error("expected interviewCreated=false")
	}
	if f.interview.calls != 0 {
		t.Errorf("expected no interview calls, got %d", f.interview.calls)
	}
}

func TestPipeline_UnknownApplication(t *testing.T) {
	f := newPipelineFixture(t, &fakeResumeScorer{score: 45}, &fakeAssessmentProvider{}, &fakeInterviewProvider{}, 3)

	if err := f.pipeline.Run(context.Background(), "no-such-application"); err == nil {
		t.Fatal("expected error for unknown application")
	}
}

func TestPipeline_MockFallbackWhenUnconfigured(t *testing.T) {
	f := newPipelineFixture(t,
		&fakeResumeScorer{unconfigured: true},
		&fakeAssessmentProvider{unconfigured: true},
		&fakeInterviewProvider{},
		3,
	)

	if err := f.pipeline.Run(context.Background(), f.app.ID); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	records := f.records(t)
	for _, rec := range records {
		assertStage(t, rec, model.StageStatusCompleted)
	}
	if f.resume.calls != 0 {
		t.Errorf("expected no resume calls in mock mode, got %d", f.resume.calls)
	}
}
