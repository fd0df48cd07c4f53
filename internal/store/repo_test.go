package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hireflow/api/internal/config"
	"github.com/hireflow/api/internal/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             ":memory:",
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

func TestApplicationRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository(testDB(t))

	app := &model.Application{
		ID:             uuid.New().String(),
		JobID:          "job-1",
		CandidateID:    "cand-1",
		CandidateName:  "Ada Lovelace",
		CandidateEmail: "ada@example.com",
		ResumeURL:      "https://cdn.example.com/resume.pdf",
		Status:         model.ApplicationStatusPending,
		CreatedAt:      time.Now(),
	}
	if err := repo.Create(ctx, app); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.CandidateEmail != "ada@example.com" {
		t.Errorf("unexpected email %q", got.CandidateEmail)
	}
	if got.Status != model.ApplicationStatusPending {
		t.Errorf("expected pending status, got %s", got.Status)
	}
}

func TestApplicationRepository_UpdateStatusUnknown(t *testing.T) {
	repo := NewApplicationRepository(testDB(t))

	err := repo.UpdateStatus(context.Background(), "missing", model.ApplicationStatusReviewed)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestAssessmentRepository_MarkCompletedIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewAssessmentRepository(testDB(t))

	session := &model.AssessmentSession{
		SessionID:      "sess-1",
		ApplicationID:  "app-1",
		CandidateName:  "Ada Lovelace",
		CandidateEmail: "ada@example.com",
		ReferenceCode:  "APP-app-1",
		TotalQuestions: 15,
		CreatedAt:      time.Now(),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	details := json.RawMessage(`{"sections": 3}`)
	if err := repo.MarkCompleted(ctx, "sess-1", 72.5, details); err != nil {
		t.Fatalf("first mark failed: %v", err)
	}

	first, err := repo.GetBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !first.Completed || first.Score == nil || *first.Score != 72.5 {
		t.Fatalf("unexpected state after completion: %+v", first)
	}

	// Reapplying the same terminal score must not change anything
	if err := repo.MarkCompleted(ctx, "sess-1", 72.5, nil); err != nil {
		t.Fatalf("second mark failed: %v", err)
	}
	second, err := repo.GetBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Error("completion timestamp must not advance on idempotent reapply")
	}
}

func TestAssessmentRepository_LatestByEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewAssessmentRepository(testDB(t))

	// No session yet: nil without error
	got, err := repo.LatestByEmail(ctx, "ada@example.com", "")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil session, got %+v", got)
	}

	for _, ref := range []string{"APP-a", "APP-b"} {
		if err := repo.Create(ctx, &model.AssessmentSession{
			SessionID:      uuid.New().String(),
			CandidateName:  "Ada Lovelace",
			CandidateEmail: "ada@example.com",
			ReferenceCode:  ref,
			CreatedAt:      time.Now(),
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	got, err = repo.LatestByEmail(ctx, "ada@example.com", "APP-a")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil || got.ReferenceCode != "APP-a" {
		t.Errorf("expected session with reference APP-a, got %+v", got)
	}
}

func TestInterviewRepository_SaveResultsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewInterviewRepository(testDB(t))

	session := &model.InterviewSession{
		SessionID: "int-1",
		FullName:  "Ada Lovelace",
		Email:     "ada@example.com",
		JobRole:   "Backend Engineer",
		Questions: json.RawMessage(`["q1","q2"]`),
		Status:    model.InterviewStatusPending,
		CreatedAt: time.Now(),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	score := 81.0
	if err := repo.SaveResults(ctx, "int-1", json.RawMessage(`["a1","a2"]`), nil, &score); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	first, err := repo.GetBySession(ctx, "int-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if first.Status != model.InterviewStatusCompleted {
		t.Fatalf("expected completed status, got %s", first.Status)
	}

	if err := repo.SaveResults(ctx, "int-1", nil, nil, &score); err != nil {
		t.Fatalf("idempotent save failed: %v", err)
	}
	second, err := repo.GetBySession(ctx, "int-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Error("completion timestamp must not advance on idempotent reapply")
	}
}

func TestJobRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository(testDB(t))

	older := &model.Job{ID: "job-old", RecruiterID: "r1", Title: "Old", Company: "Acme", Description: "An older posting", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &model.Job{ID: "job-new", RecruiterID: "r1", Title: "New", Company: "Acme", Description: "A newer posting", CreatedAt: time.Now()}
	for _, j := range []*model.Job{older, newer} {
		if err := repo.Create(ctx, j); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	jobs, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "job-new" {
		t.Errorf("expected newest job first, got %s", jobs[0].ID)
	}
}
