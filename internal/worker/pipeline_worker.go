package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hireflow/api/internal/client"
	"github.com/hireflow/api/internal/config"
	"github.com/hireflow/api/internal/model"
	"github.com/hireflow/api/internal/service"
	"github.com/hireflow/api/internal/store"
	"github.com/hireflow/api/internal/websocket"
)

// Pipeline drives the three screening stages for one application:
// resume analysis, score-gated MCQ assessment, score-gated interview.
// It runs detached from the submitting request; every transition lands
// in the stage ledger so status queries always see current progress.
type Pipeline struct {
	apps        *store.ApplicationRepository
	jobs        *store.JobRepository
	ledger      store.Ledger
	resume      client.ResumeScorer
	assessments *service.AssessmentService
	interviews  *service.InterviewService
	poller      *AssessmentPoller
	hub         *websocket.Hub
	cfg         config.PipelineConfig
	httpClient  *http.Client
}

// pipelineContext carries the scores and flags accumulated while the
// stages run, so gate decisions don't have to re-read the ledger
type pipelineContext struct {
	app             *model.Application
	job             *model.Job
	resumeScore     *float64
	assessmentScore *float64
}

// NewPipeline creates a pipeline worker
func NewPipeline(apps *store.ApplicationRepository, jobs *store.JobRepository, ledger store.Ledger, resume client.ResumeScorer, assessments *service.AssessmentService, interviews *service.InterviewService, poller *AssessmentPoller, hub *websocket.Hub, cfg config.PipelineConfig) *Pipeline {
	return &Pipeline{
		apps:        apps,
		jobs:        jobs,
		ledger:      ledger,
		resume:      resume,
		assessments: assessments,
		interviews:  interviews,
		poller:      poller,
		hub:         hub,
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ProcessTask is the asynq entry point for pipeline tasks
func (w *Pipeline) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload struct {
		ApplicationID string `json:"applicationId"`
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	log.Printf("Starting pipeline for application %s", payload.ApplicationID)
	return w.Run(ctx, payload.ApplicationID)
}

// Run executes the full pipeline for one application. Stage failures
// are recorded in the ledger and stop forward progress; they never
// touch earlier completed stages.
func (w *Pipeline) Run(ctx context.Context, applicationID string) error {
	app, err := w.apps.GetByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("failed to load application %s: %w", applicationID, err)
	}
	job, err := w.jobs.GetByID(ctx, app.JobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", app.JobID, err)
	}

	if err := w.ledger.Initialize(ctx, app.ID); err != nil && !errors.Is(err, store.ErrLedgerExists) {
		return fmt.Errorf("failed to initialize ledger for %s: %w", app.ID, err)
	}

	pc := &pipelineContext{app: app, job: job}

	if err := w.runResumeStage(ctx, pc); err != nil {
		return err
	}
	if err := w.runAssessmentStage(ctx, pc); err != nil {
		return err
	}
	if err := w.runInterviewStage(ctx, pc); err != nil {
		return err
	}

	w.broadcastComplete(ctx, app.ID)
	log.Printf("Pipeline for application %s completed", app.ID)
	return nil
}

// runResumeStage scores the candidate's resume against the job posting
func (w *Pipeline) runResumeStage(ctx context.Context, pc *pipelineContext) error {
	if err := w.transition(ctx, pc.app.ID, model.StageResumeAnalysis, model.StageStatusInProgress, nil); err != nil {
		return err
	}

	if w.resume == nil || !w.resume.IsConfigured() {
		// Mock score for development without the scoring service
		score := 75.0
		log.Printf("Resume scoring for %s completed (mock)", pc.app.ID)
		pc.resumeScore = &score
		return w.transition(ctx, pc.app.ID, model.StageResumeAnalysis, model.StageStatusCompleted, &model.StageUpdate{Score: &score})
	}

	resumeBytes, err := w.fetchResume(ctx, pc.app.ResumeURL)
	if err != nil {
		return w.failStage(ctx, pc.app.ID, model.StageResumeAnalysis, fmt.Sprintf("Failed to fetch resume: %v", err))
	}

	resp, err := w.resume.AnalyzeResume(ctx, &client.AnalyzeResumeRequest{
		Resume:         resumeBytes,
		JobDescription: pc.job.Description,
		JobRole:        pc.job.Title,
	})
	if err != nil {
		return w.failStage(ctx, pc.app.ID, model.StageResumeAnalysis, fmt.Sprintf("Resume analysis failed: %v", err))
	}

	score := resp.Report.PercentageScore
	pc.resumeScore = &score
	return w.transition(ctx, pc.app.ID, model.StageResumeAnalysis, model.StageStatusCompleted, &model.StageUpdate{Score: &score})
}

// runAssessmentStage starts the MCQ assessment when the resume score
// clears the gate and waits for its result. A score below the gate
// skips the stage as a valid terminal outcome, not a failure.
func (w *Pipeline) runAssessmentStage(ctx context.Context, pc *pipelineContext) error {
	if pc.resumeScore == nil || *pc.resumeScore < w.cfg.ResumeThreshold {
		sent := false
		return w.transition(ctx, pc.app.ID, model.StageAssessment, model.StageStatusCompleted, &model.StageUpdate{AssessmentSent: &sent})
	}

	if err := w.transition(ctx, pc.app.ID, model.StageAssessment, model.StageStatusInProgress, nil); err != nil {
		return err
	}

	if !w.assessments.IsConfigured() {
		sent := true
		score := 60.0
		log.Printf("Assessment for %s completed (mock)", pc.app.ID)
		pc.assessmentScore = &score
		return w.transition(ctx, pc.app.ID, model.StageAssessment, model.StageStatusCompleted, &model.StageUpdate{AssessmentSent: &sent, AssessmentScore: &score})
	}

	session, err := w.assessments.Begin(ctx, pc.app, pc.job)
	if err != nil {
		return w.failStage(ctx, pc.app.ID, model.StageAssessment, fmt.Sprintf("Failed to start assessment: %v", err))
	}

	sent := true
	if err := w.transition(ctx, pc.app.ID, model.StageAssessment, model.StageStatusInProgress, &model.StageUpdate{AssessmentSent: &sent}); err != nil {
		return err
	}

	score, found, err := w.poller.Poll(ctx, pc.app.CandidateEmail, session.ReferenceCode)
	if err != nil {
		return w.failStage(ctx, pc.app.ID, model.StageAssessment, fmt.Sprintf("Assessment polling aborted: %v", err))
	}
	if !found {
		return w.failStage(ctx, pc.app.ID, model.StageAssessment, "Assessment was not completed within the polling window")
	}

	pc.assessmentScore = &score
	return w.transition(ctx, pc.app.ID, model.StageAssessment, model.StageStatusCompleted, &model.StageUpdate{AssessmentScore: &score})
}

// runInterviewStage creates the interview when the assessment score
// clears the gate. A missing or below-gate score skips the stage.
func (w *Pipeline) runInterviewStage(ctx context.Context, pc *pipelineContext) error {
	if pc.assessmentScore == nil || *pc.assessmentScore < w.cfg.AssessmentThreshold {
		created := false
		return w.transition(ctx, pc.app.ID, model.StageInterview, model.StageStatusCompleted, &model.StageUpdate{InterviewCreated: &created})
	}

	if err := w.transition(ctx, pc.app.ID, model.StageInterview, model.StageStatusInProgress, nil); err != nil {
		return err
	}

	created := true
	if !w.interviews.IsConfigured() {
		log.Printf("Interview for %s created (mock)", pc.app.ID)
		return w.transition(ctx, pc.app.ID, model.StageInterview, model.StageStatusCompleted, &model.StageUpdate{InterviewCreated: &created})
	}

	_, err := w.interviews.Begin(ctx, pc.app.ID, pc.app.CandidateName, pc.app.CandidateEmail, pc.job.Title)
	if err != nil {
		return w.failStage(ctx, pc.app.ID, model.StageInterview, fmt.Sprintf("Failed to create interview: %v", err))
	}

	return w.transition(ctx, pc.app.ID, model.StageInterview, model.StageStatusCompleted, &model.StageUpdate{InterviewCreated: &created})
}

// transition updates one ledger record and pushes the new state to any
// connected status watchers
func (w *Pipeline) transition(ctx context.Context, applicationID string, step int, status model.StageStatus, update *model.StageUpdate) error {
	if err := w.ledger.Transition(ctx, applicationID, step, status, update); err != nil {
		// Stage state is now indeterminate; surface loudly and stop
		log.Printf("Ledger transition failed for application %s stage %d: %v", applicationID, step, err)
		return fmt.Errorf("ledger transition failed for stage %d: %w", step, err)
	}
	w.broadcastStage(ctx, applicationID, step)
	return nil
}

// failStage records a stage failure and halts the pipeline. Later
// stages stay Pending; earlier completed stages are untouched.
func (w *Pipeline) failStage(ctx context.Context, applicationID string, step int, message string) error {
	log.Printf("Pipeline for application %s failed at stage %d: %s", applicationID, step, message)
	if err := w.ledger.Transition(ctx, applicationID, step, model.StageStatusError, &model.StageUpdate{Error: &message}); err != nil {
		log.Printf("Ledger transition failed for application %s stage %d: %v", applicationID, step, err)
	}
	w.broadcastStage(ctx, applicationID, step)
	if w.hub != nil {
		w.hub.BroadcastError(applicationID, "STAGE_FAILED", message)
	}
	return errors.New(message)
}

func (w *Pipeline) broadcastStage(ctx context.Context, applicationID string, step int) {
	if w.hub == nil {
		return
	}
	records, err := w.ledger.Read(ctx, applicationID)
	if err != nil || len(records) < step {
		return
	}
	w.hub.BroadcastStage(applicationID, records[step-1])
}

func (w *Pipeline) broadcastComplete(ctx context.Context, applicationID string) {
	if w.hub == nil {
		return
	}
	records, err := w.ledger.Read(ctx, applicationID)
	if err != nil {
		return
	}
	w.hub.BroadcastComplete(applicationID, records)
}

// fetchResume downloads the submitted resume so it can be forwarded to
// the scoring service
func (w *Pipeline) fetchResume(ctx context.Context, resumeURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resumeURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching resume", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
