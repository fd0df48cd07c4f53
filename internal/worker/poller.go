package worker

import (
	"context"
	"log"
	"time"

	"github.com/hireflow/api/internal/client"
	"github.com/hireflow/api/internal/store"
)

// AssessmentPoller waits for an externally-hosted assessment to finish.
// It prefers the locally persisted session state (updated by the
// completion callback) and falls back to asking the assessment service
// directly when a session id is known but no score has arrived yet.
type AssessmentPoller struct {
	sessions    *store.AssessmentRepository
	provider    client.AssessmentProvider
	maxAttempts int
	interval    time.Duration
}

// NewAssessmentPoller creates a poller with the given bounds
func NewAssessmentPoller(sessions *store.AssessmentRepository, provider client.AssessmentProvider, maxAttempts int, interval time.Duration) *AssessmentPoller {
	return &AssessmentPoller{
		sessions:    sessions,
		provider:    provider,
		maxAttempts: maxAttempts,
		interval:    interval,
	}
}

// Poll blocks until a completed assessment score is found for the
// candidate, the attempt budget runs out, or ctx is cancelled. The
// second return value reports whether a score was found; exhausting the
// budget is a timeout signal, not an error.
func (p *AssessmentPoller) Poll(ctx context.Context, candidateEmail, referenceCode string) (float64, bool, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		session, err := p.sessions.LatestByEmail(ctx, candidateEmail, referenceCode)
		if err != nil {
			log.Printf("[Poller] Attempt %d/%d: session lookup failed for %s: %v", attempt, p.maxAttempts, referenceCode, err)
		} else if session != nil {
			if session.Completed && session.Score != nil {
				return *session.Score, true, nil
			}

			// Callback hasn't landed yet; ask the service directly
			if p.provider != nil && p.provider.IsConfigured() {
				result, err := p.provider.FetchResult(ctx, session.SessionID)
				if err != nil {
					log.Printf("[Poller] Attempt %d/%d: result check failed for session %s: %v", attempt, p.maxAttempts, session.SessionID, err)
				} else if result.Completed && result.Score != nil {
					score := result.Score.Percentage
					if err := p.sessions.MarkCompleted(ctx, session.SessionID, score, nil); err != nil {
						log.Printf("[Poller] Failed to persist score for session %s: %v", session.SessionID, err)
					}
					return score, true, nil
				}
			}
		}

		if attempt == p.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return 0, false, ctx.Err()
		case <-time.After(p.interval):
		}
	}

	return 0, false, nil
}
