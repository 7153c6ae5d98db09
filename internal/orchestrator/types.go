package orchestrator

import (
	"context"
	"sync"
	"time"

	"proposal-autofill/internal/logging"
	"proposal-autofill/pkg/models"
)

// State of the per-page generation run
type State int

const (
	StateIdle State = iota
	StateExtracting
	StateAwaitingGeneration
	StateFilling
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExtracting:
		return "extracting"
	case StateAwaitingGeneration:
		return "awaiting_generation"
	case StateFilling:
		return "filling"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// TriggerReason says what started a run
type TriggerReason string

const (
	TriggerApplyClick TriggerReason = "apply_click"
	TriggerURLMatch   TriggerReason = "url_match"
	TriggerManual     TriggerReason = "manual"
)

// Outcome of a trigger
type Outcome string

const (
	OutcomeGenerated    Outcome = "generated"
	OutcomeCustom       Outcome = "custom"
	OutcomeFallback     Outcome = "fallback"
	OutcomeLimitReached Outcome = "limit_reached"
	OutcomeAuthRequired Outcome = "auth_required"
	OutcomeRefilled     Outcome = "refilled"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeDisabled     Outcome = "disabled"
	OutcomeCancelled    Outcome = "cancelled"
)

// QuestionsStatus reports how the question phase ended
type QuestionsStatus string

const (
	QuestionsNotRun   QuestionsStatus = "not_run"
	QuestionsNone     QuestionsStatus = "none"
	QuestionsComplete QuestionsStatus = "complete"
	QuestionsPartial  QuestionsStatus = "partial"
	QuestionsFailed   QuestionsStatus = "failed"
)

// Report describes one trigger
type Report struct {
	Trigger   TriggerReason      `json:"trigger,omitempty"`
	Outcome   Outcome            `json:"outcome"`
	Filled    bool               `json:"filled"`
	Job       *models.JobPosting `json:"job,omitempty"`
	Questions QuestionsStatus    `json:"questions"`
	Answered  int                `json:"answered"`
	Total     int                `json:"total"`
	Reason    string             `json:"reason,omitempty"`
	Duration  time.Duration      `json:"duration"`
}

// Snapshot is a read-only view of the orchestrator
type Snapshot struct {
	State                string             `json:"state"`
	GenerationInProgress bool               `json:"generationInProgress"`
	Generated            bool               `json:"generated"`
	AuthBlocked          bool               `json:"authBlocked"`
	LastLetter           string             `json:"lastLetter,omitempty"`
	Job                  *models.JobPosting `json:"job,omitempty"`
	CachedAnswers        int                `json:"cachedAnswers"`
}

// Generator produces text for the page; it is the background service
type Generator interface {
	Settings(ctx context.Context) (models.Settings, error)
	GenerateCoverLetter(ctx context.Context, job models.JobPosting, settings models.Settings) models.GenerationResult
	GenerateAnswers(ctx context.Context, job models.JobPosting, questions []models.ApplicationQuestion, settings models.Settings) models.GenerationResult
}

// Level of a user-facing notice
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a message shown to the user
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Notifier surfaces notices to the user
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Recorder keeps notices in memory and logs them
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
	logger  logging.Logger
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{logger: logging.GetGlobalLogger().WithField("component", "notifier")}
}

func (r *Recorder) Notify(_ context.Context, n Notice) {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
	r.logger.Info("Notice", map[string]interface{}{"level": string(n.Level), "message": n.Message})
}

// Notices returns a copy of every recorded notice
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}
