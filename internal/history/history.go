package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"proposal-autofill/internal/orchestrator"
	"proposal-autofill/pkg/utils"
)

// Status is the coarse result of a run
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusSkipped Status = "SKIPPED"
)

// StatusFor classifies an orchestrator outcome
func StatusFor(o orchestrator.Outcome) Status {
	switch o {
	case orchestrator.OutcomeGenerated, orchestrator.OutcomeCustom,
		orchestrator.OutcomeFallback, orchestrator.OutcomeRefilled:
		return StatusSuccess
	case orchestrator.OutcomeLimitReached, orchestrator.OutcomeAuthRequired:
		return StatusFailure
	default:
		return StatusSkipped
	}
}

// Run is one finished orchestrator run on a tab
type Run struct {
	RunID       string              `json:"run_id"`
	TabID       string              `json:"tab_id"`
	Status      Status              `json:"status"`
	Report      orchestrator.Report `json:"report"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt time.Time           `json:"completed_at"`
}

// NewRun builds a run record from a report that just completed
func NewRun(tabID string, report orchestrator.Report) *Run {
	now := time.Now()
	return &Run{
		RunID:       uuid.NewString(),
		TabID:       tabID,
		Status:      StatusFor(report.Outcome),
		Report:      report,
		CreatedAt:   now.Add(-report.Duration),
		CompletedAt: now,
	}
}

// Store keeps run records
type Store interface {
	Store(ctx context.Context, run *Run) error
	Get(ctx context.Context, runID string) (*Run, error)
	// ListByTab returns a tab's runs, newest first
	ListByTab(ctx context.Context, tabID string) ([]*Run, error)
	DeleteTab(ctx context.Context, tabID string) error
	// Cleanup drops runs older than maxAge
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// InMemoryStore keeps at most perTab runs for every tab
type InMemoryStore struct {
	mu     sync.RWMutex
	runs   map[string]*Run
	byTab  map[string][]string
	perTab int
}

// NewInMemoryStore creates a store; perTab <= 0 keeps everything
func NewInMemoryStore(perTab int) *InMemoryStore {
	return &InMemoryStore{
		runs:   make(map[string]*Run),
		byTab:  make(map[string][]string),
		perTab: perTab,
	}
}

func (s *InMemoryStore) Store(ctx context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.RunID] = run
	ids := append(s.byTab[run.TabID], run.RunID)
	if s.perTab > 0 && len(ids) > s.perTab {
		for _, old := range ids[:len(ids)-s.perTab] {
			delete(s.runs, old)
		}
		ids = append([]string(nil), ids[len(ids)-s.perTab:]...)
	}
	s.byTab[run.TabID] = ids
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, utils.NewRunNotFoundError(runID)
	}
	return run, nil
}

func (s *InMemoryStore) ListByTab(ctx context.Context, tabID string) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byTab[tabID]
	out := make([]*Run, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, s.runs[ids[i]])
	}
	return out, nil
}

func (s *InMemoryStore) DeleteTab(ctx context.Context, tabID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byTab[tabID] {
		delete(s.runs, id)
	}
	delete(s.byTab, tabID)
	return nil
}

func (s *InMemoryStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for tabID, ids := range s.byTab {
		kept := ids[:0]
		for _, id := range ids {
			if s.runs[id].CompletedAt.Before(cutoff) {
				delete(s.runs, id)
				continue
			}
			kept = append(kept, id)
		}
		if len(kept) == 0 {
			delete(s.byTab, tabID)
		} else {
			s.byTab[tabID] = kept
		}
	}
	return nil
}

// Len is the number of stored runs
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Tabs lists tab IDs with recorded runs, sorted
func (s *InMemoryStore) Tabs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.byTab))
	for id := range s.byTab {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
