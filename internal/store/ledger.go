package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hireflow/api/internal/model"
)

// Ledger is the persisted stage-progress record of one application. It
// holds exactly three stage records and is the single source of truth
// for status queries. Transition must serialize per application so
// racing updates never drop each other's fields.
type Ledger interface {
	Initialize(ctx context.Context, applicationID string) error
	Transition(ctx context.Context, applicationID string, step int, status model.StageStatus, update *model.StageUpdate) error
	Read(ctx context.Context, applicationID string) ([]model.StageRecord, error)
}

var (
	// ErrLedgerExists is returned when Initialize finds a ledger already
	// present; initializing twice must not reset an advanced ledger.
	ErrLedgerExists = errors.New("ledger already initialized")

	// ErrLedgerNotFound is returned for applications with no ledger yet.
	ErrLedgerNotFound = errors.New("ledger not found")
)

// transitions retry this many times when a concurrent write invalidates
// the optimistic lock
const maxTxRetries = 5

// RedisLedger implements Ledger on a Redis record per application,
// updated under WATCH/MULTI optimistic locking.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func ledgerKey(applicationID string) string {
	return fmt.Sprintf("ledger:%s", applicationID)
}

// Initialize creates the three-record ledger, all Pending. Fails with
// ErrLedgerExists instead of overwriting an already-advanced ledger.
func (l *RedisLedger) Initialize(ctx context.Context, applicationID string) error {
	data, err := json.Marshal(model.NewStageLedger(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	ok, err := l.client.SetNX(ctx, ledgerKey(applicationID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}
	if !ok {
		return ErrLedgerExists
	}
	return nil
}

// Transition replaces one stage record's status and merges the update's
// fields, leaving the other two records untouched. The read-modify-write
// runs under WATCH so concurrent transitions for the same application
// serialize rather than overwrite each other.
func (l *RedisLedger) Transition(ctx context.Context, applicationID string, step int, status model.StageStatus, update *model.StageUpdate) error {
	key := ledgerKey(applicationID)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrLedgerNotFound
		}
		if err != nil {
			return err
		}

		var records []model.StageRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("failed to unmarshal ledger: %w", err)
		}

		if err := applyTransition(records, step, status, update); err != nil {
			return err
		}

		newData, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("failed to marshal ledger: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newData, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := l.client.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
	return fmt.Errorf("ledger transition for %s lost the optimistic lock %d times", applicationID, maxTxRetries)
}

// Read returns the current ledger snapshot. Safe to call concurrently
// with Transition.
func (l *RedisLedger) Read(ctx context.Context, applicationID string) ([]model.StageRecord, error) {
	data, err := l.client.Get(ctx, ledgerKey(applicationID)).Bytes()
	if err == redis.Nil {
		return nil, ErrLedgerNotFound
	}
	if err != nil {
		return nil, err
	}

	var records []model.StageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger: %w", err)
	}
	return records, nil
}

// applyTransition mutates the record for step in place, merging only the
// update fields that are set. Record order is never changed.
func applyTransition(records []model.StageRecord, step int, status model.StageStatus, update *model.StageUpdate) error {
	for i := range records {
		if records[i].Step != step {
			continue
		}

		records[i].StepStatus = status
		records[i].UpdatedAt = time.Now()
		if update != nil {
			if update.Score != nil {
				records[i].Score = update.Score
			}
			if update.AssessmentSent != nil {
				records[i].AssessmentSent = update.AssessmentSent
			}
			if update.AssessmentScore != nil {
				records[i].AssessmentScore = update.AssessmentScore
			}
			if update.InterviewCreated != nil {
				records[i].InterviewCreated = update.InterviewCreated
			}
			if update.Error != nil {
				records[i].Error = update.Error
			}
		}
		return nil
	}
	return fmt.Errorf("no stage record for step %d", step)
}

// MemoryLedger is an in-process Ledger used when Redis is unavailable
// (development fallback) and in tests.
type MemoryLedger struct {
	mu      sync.Mutex
	ledgers map[string][]model.StageRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{ledgers: make(map[string][]model.StageRecord)}
}

func (l *MemoryLedger) Initialize(ctx context.Context, applicationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.ledgers[applicationID]; ok {
		return ErrLedgerExists
	}
	l.ledgers[applicationID] = model.NewStageLedger(time.Now())
	return nil
}

func (l *MemoryLedger) Transition(ctx context.Context, applicationID string, step int, status model.StageStatus, update *model.StageUpdate) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	records, ok := l.ledgers[applicationID]
	if !ok {
		return ErrLedgerNotFound
	}
	return applyTransition(records, step, status, update)
}

func (l *MemoryLedger) Read(ctx context.Context, applicationID string) ([]model.StageRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	records, ok := l.ledgers[applicationID]
	if !ok {
		return nil, ErrLedgerNotFound
	}
	snapshot := make([]model.StageRecord, len(records))
	copy(snapshot, records)
	return snapshot, nil
}
