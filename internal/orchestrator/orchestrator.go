// Package orchestrator runs one generation per page: wait for the form,
// extract the job, generate, fill the cover letter and answer the screening
// questions.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/dom"
	"proposal-autofill/internal/extractor"
	"proposal-autofill/internal/fill"
	"proposal-autofill/internal/logging"
	"proposal-autofill/internal/prompts"
	"proposal-autofill/internal/questions"
	"proposal-autofill/internal/readiness"
	"proposal-autofill/pkg/models"
)

const (
	limitReachedNotice = "Free limit reached! Upgrade to Premium for unlimited proposals."
	authNotice         = "Please log in to generate proposals."
	failureNotice      = "Could not generate a proposal, a basic draft was filled in instead."
)

// Options are the orchestrator's timings and budgets
type Options struct {
	ExtractionRetryDelay time.Duration
	QuestionAttempts     int
	QuestionRetryDelay   time.Duration
	FieldAttempts        int
	FieldRetryDelay      time.Duration
	MaxDescriptionLength int
}

// OptionsFromConfig reads the orchestrator section
func OptionsFromConfig(cfg *config.Config) Options {
	o := cfg.Orchestrator
	return Options{
		ExtractionRetryDelay: o.ExtractionRetryDelay,
		QuestionAttempts:     o.QuestionAttempts,
		QuestionRetryDelay:   o.QuestionRetryDelay,
		FieldAttempts:        o.FieldAttempts,
		FieldRetryDelay:      o.FieldRetryDelay,
		MaxDescriptionLength: o.MaxDescriptionLength,
	}
}

// Orchestrator drives one page. Triggers that arrive while a run is in
// flight, or after it finished, are dropped.
type Orchestrator struct {
	mu           sync.Mutex
	state        State
	inProgress   bool
	generated    bool
	authBlocked  bool
	lastLetter   string
	lastPriority fill.Priority
	job          *models.JobPosting
	answers      map[string]string

	doc       dom.Document
	fill      *fill.Controller
	extractor *extractor.Extractor
	detector  *questions.Detector
	waiter    *readiness.Waiter
	gen       Generator
	notifier  Notifier
	opts      Options
	logger    logging.Logger
}

// New creates an orchestrator for doc
func New(doc dom.Document, gen Generator, notifier Notifier, cfg *config.Config) *Orchestrator {
	return NewWithParts(doc, gen, notifier,
		fill.NewController(doc, fill.PolicyFromConfig(cfg)),
		readiness.NewWaiter(cfg),
		OptionsFromConfig(cfg))
}

// NewWithParts creates an orchestrator from pre-built collaborators
func NewWithParts(doc dom.Document, gen Generator, notifier Notifier, fc *fill.Controller, waiter *readiness.Waiter, opts Options) *Orchestrator {
	if notifier == nil {
		notifier = NewRecorder()
	}
	if opts.QuestionAttempts < 1 {
		opts.QuestionAttempts = 1
	}
	if opts.FieldAttempts < 1 {
		opts.FieldAttempts = 1
	}
	return &Orchestrator{
		state:     StateIdle,
		answers:   make(map[string]string),
		doc:       doc,
		fill:      fc,
		extractor: extractor.New(),
		detector:  questions.NewDetector(),
		waiter:    waiter,
		gen:       gen,
		notifier:  notifier,
		opts:      opts,
		logger:    logging.GetGlobalLogger().WithField("component", "orchestrator"),
	}
}

// Fill returns the page's fill controller
func (o *Orchestrator) Fill() *fill.Controller {
	return o.fill
}

// Snapshot reports state, flags and the cached letter
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		State:                o.state.String(),
		GenerationInProgress: o.inProgress,
		Generated:            o.generated,
		AuthBlocked:          o.authBlocked,
		LastLetter:           o.lastLetter,
		Job:                  o.job,
		CachedAnswers:        len(o.answers),
	}
}

// Reset forgets the previous run, for example after navigating to another job
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateIdle
	o.generated = false
	o.authBlocked = false
	o.lastLetter = ""
	o.job = nil
	o.answers = make(map[string]string)
	o.fill.Ledger().Reset()
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// acquire takes the single-flight guard
func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inProgress || o.generated {
		return false
	}
	o.inProgress = true
	o.authBlocked = false
	o.state = StateExtracting
	return true
}

// Unblock lets page changes start runs again after an auth failure, for
// example once the user has logged in
func (o *Orchestrator) Unblock() {
	o.mu.Lock()
	o.authBlocked = false
	o.mu.Unlock()
}

func (o *Orchestrator) release(generated bool, next State) {
	o.mu.Lock()
	o.inProgress = false
	o.generated = o.generated || generated
	o.state = next
	o.mu.Unlock()
}

// Trigger runs the pipeline once. It never blocks on a second caller: a
// trigger while a run is in flight or done is reported as skipped.
func (o *Orchestrator) Trigger(ctx context.Context, reason TriggerReason) Report {
	start := time.Now()
	if !o.acquire() {
		o.logger.Debug("Trigger dropped", map[string]interface{}{"trigger": string(reason)})
		return Report{Trigger: reason, Outcome: OutcomeSkipped, Questions: QuestionsNotRun}
	}

	logger := o.logger.WithField("trigger", string(reason))
	logger.Info("Generation started")

	report := o.run(ctx, logger)
	report.Trigger = reason
	report.Duration = time.Since(start)

	logger.Info("Generation finished", map[string]interface{}{
		"outcome":   string(report.Outcome),
		"filled":    report.Filled,
		"questions": string(report.Questions),
		"duration":  report.Duration.String(),
	})
	return report
}

func (o *Orchestrator) run(ctx context.Context, logger logging.Logger) Report {
	report := Report{Questions: QuestionsNotRun}

	settings, err := o.gen.Settings(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to load settings, using defaults")
	}
	if !settings.IsEnabled() {
		o.release(false, StateIdle)
		report.Outcome = OutcomeDisabled
		return report
	}

	if err := o.waiter.AwaitPageReady(ctx, o.doc); err != nil {
		if ctx.Err() != nil {
			o.release(false, StateIdle)
			report.Outcome = OutcomeCancelled
			return report
		}
		logger.WithError(err).Warn("Page not ready, extracting anyway")
	}

	job, err := o.extract(ctx)
	if err != nil {
		o.release(false, StateIdle)
		report.Outcome = OutcomeCancelled
		return report
	}

	name := o.extractor.ResolveDisplayName(o.doc, prompts.SignatureName(settings))

	if job == nil {
		logger.Warn("No job data found, filling generic proposal")
		text := prompts.GenericProposal(o.extractor.ExtractTitle(o.doc), name)
		report.Outcome = OutcomeFallback
		report.Reason = "no job data found"
		report.Filled = o.writeLetter(ctx, text, fill.PriorityFallback)
		o.release(true, StateDone)
		return report
	}

	truncated := job.Truncated(o.opts.MaxDescriptionLength)
	job = &truncated
	report.Job = job

	o.mu.Lock()
	o.job = job
	o.state = StateAwaitingGeneration
	o.mu.Unlock()

	result := o.gen.GenerateCoverLetter(ctx, *job, settings)

	var text string
	var priority fill.Priority
	switch result.Kind {
	case models.GenerationAuthRequired:
		msg := result.Reason
		if msg == "" {
			msg = authNotice
		}
		o.notifier.Notify(ctx, Notice{Level: LevelWarning, Message: msg})
		o.mu.Lock()
		o.authBlocked = true
		o.mu.Unlock()
		o.release(false, StateIdle)
		report.Outcome = OutcomeAuthRequired
		report.Reason = msg
		return report

	case models.GenerationLimitReached:
		o.notifier.Notify(ctx, Notice{Level: LevelWarning, Message: limitReachedNotice})
		text, priority = prompts.FallbackProposal(*job, name), fill.PriorityFallback
		report.Outcome = OutcomeLimitReached
		report.Reason = result.Reason

	case models.GenerationSuccess:
		text, priority = result.Text, fill.PriorityAIGenerated
		report.Outcome = OutcomeGenerated
		if result.Custom {
			priority = fill.PriorityBasic
			report.Outcome = OutcomeCustom
		}

	default:
		logger.Warn("Generation failed, using fallback", map[string]interface{}{"reason": result.Reason})
		o.notifier.Notify(ctx, Notice{Level: LevelError, Message: failureNotice})
		text, priority = prompts.FallbackProposal(*job, name), fill.PriorityFallback
		report.Outcome = OutcomeFallback
		report.Reason = result.Reason
	}

	o.setState(StateFilling)
	report.Filled = o.writeLetter(ctx, text, priority)
	if !report.Filled {
		logger.Warn("Cover letter field not found")
	}

	if report.Outcome == OutcomeGenerated && settings.AnswerQuestions() {
		report.Questions, report.Answered, report.Total = o.answerQuestions(ctx, *job, settings, logger)
	}

	if report.Outcome == OutcomeGenerated && report.Filled {
		o.notifier.Notify(ctx, Notice{Level: LevelSuccess, Message: "Proposal generated and filled in."})
	}
	o.release(true, StateDone)
	return report
}

// extract retries once after ExtractionRetryDelay. A nil job with a nil
// error means nothing usable was found.
func (o *Orchestrator) extract(ctx context.Context) (*models.JobPosting, error) {
	job := o.extractor.ExtractJobPosting(o.doc)
	if o.extractor.Validate(job) {
		return job, nil
	}
	o.logger.Debug("Extraction missed, retrying once")
	if err := fill.Sleep(ctx, o.opts.ExtractionRetryDelay); err != nil {
		return nil, err
	}
	job = o.extractor.ExtractJobPosting(o.doc)
	if o.extractor.Validate(job) {
		return job, nil
	}
	return nil, nil
}

// writeLetter fills the cover letter with bounded retries while the field is
// missing, and caches the text for later refills
func (o *Orchestrator) writeLetter(ctx context.Context, text string, p fill.Priority) bool {
	o.mu.Lock()
	if o.lastLetter == "" || p >= o.lastPriority {
		o.lastLetter, o.lastPriority = text, p
	}
	o.mu.Unlock()

	for attempt := 0; attempt < o.opts.FieldAttempts; attempt++ {
		if attempt > 0 {
			if err := fill.Sleep(ctx, o.opts.FieldRetryDelay); err != nil {
				return false
			}
		}
		if o.fill.FillCoverLetter(ctx, text, p) {
			return true
		}
		// a higher priority already owns the letter
		if cur, ok := o.fill.Ledger().Current(fill.SlotFor(fill.RoleCoverLetter, "")); ok && cur > p {
			return false
		}
	}
	return false
}

// answerQuestions detects the screening questions and fills them, asking
// the generator only for labels not answered yet
func (o *Orchestrator) answerQuestions(ctx context.Context, job models.JobPosting, settings models.Settings, logger logging.Logger) (QuestionsStatus, int, int) {
	answered, total := 0, 0
	stop := false

	for attempt := 0; attempt < o.opts.QuestionAttempts && !stop; attempt++ {
		if attempt > 0 {
			if err := fill.Sleep(ctx, o.opts.QuestionRetryDelay); err != nil {
				break
			}
		}

		found := o.detector.Detect(o.doc)
		if len(found) == 0 {
			continue
		}
		total = len(found)

		missing := o.unanswered(found)
		if len(missing) > 0 {
			res := o.gen.GenerateAnswers(ctx, job, missing, settings)
			switch res.Kind {
			case models.GenerationSuccess:
				o.cacheAnswers(missing, res.Answers)
			case models.GenerationLimitReached:
				o.notifier.Notify(ctx, Notice{Level: LevelWarning, Message: limitReachedNotice})
				stop = true
			case models.GenerationAuthRequired:
				stop = true
			default:
				logger.Warn("Answer generation failed", map[string]interface{}{
					"attempt": attempt + 1,
					"reason":  res.Reason,
				})
			}
		}

		answered = o.fillAnswers(ctx, found)
		logger.Debug("Question round", map[string]interface{}{
			"attempt":  attempt + 1,
			"answered": answered,
			"total":    total,
		})
		if answered == total {
			return QuestionsComplete, answered, total
		}
	}

	switch {
	case total == 0:
		return QuestionsNone, 0, 0
	case answered == 0:
		return QuestionsFailed, 0, total
	default:
		return QuestionsPartial, answered, total
	}
}

func (o *Orchestrator) unanswered(found []models.ApplicationQuestion) []models.ApplicationQuestion {
	o.mu.Lock()
	defer o.mu.Unlock()
	var missing []models.ApplicationQuestion
	seen := make(map[string]bool)
	for _, q := range found {
		if _, ok := o.answers[q.Label]; ok || seen[q.Label] {
			continue
		}
		seen[q.Label] = true
		missing = append(missing, q)
	}
	return missing
}

func (o *Orchestrator) cacheAnswers(asked []models.ApplicationQuestion, answers []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, q := range asked {
		if i >= len(answers) {
			break
		}
		o.answers[q.Label] = answers[i]
	}
}

func (o *Orchestrator) fillAnswers(ctx context.Context, found []models.ApplicationQuestion) int {
	filled := 0
	for _, q := range found {
		o.mu.Lock()
		answer, ok := o.answers[q.Label]
		o.mu.Unlock()
		if !ok {
			continue
		}
		if o.fill.Fill(ctx, fill.RoleQuestion, q.FieldKey, answer, fill.PriorityAIGenerated) {
			filled++
		}
	}
	return filled
}

// OnMutation is called whenever the page changes. It starts a run on an
// application URL and, once done, restores emptied fields from the cache
// without calling the generator again. After an auth failure it waits for
// Reset, Unblock or an explicit Trigger.
func (o *Orchestrator) OnMutation(ctx context.Context) Report {
	o.mu.Lock()
	inProgress, generated, blocked := o.inProgress, o.generated, o.authBlocked
	o.mu.Unlock()

	switch {
	case inProgress, blocked:
		return Report{Outcome: OutcomeSkipped, Questions: QuestionsNotRun}
	case generated:
		return o.refill(ctx)
	case extractor.IsApplicationURL(o.doc.URL()):
		return o.Trigger(ctx, TriggerURLMatch)
	default:
		return Report{Outcome: OutcomeSkipped, Questions: QuestionsNotRun}
	}
}

func (o *Orchestrator) refill(ctx context.Context) Report {
	o.mu.Lock()
	letter, priority := o.lastLetter, o.lastPriority
	o.mu.Unlock()

	report := Report{Outcome: OutcomeSkipped, Questions: QuestionsNotRun}

	if value, ok := o.fill.CoverLetterValue(); ok && value == "" && letter != "" {
		if o.fill.FillCoverLetter(ctx, letter, priority) {
			report.Outcome = OutcomeRefilled
			report.Filled = true
		}
	}

	var empty []models.ApplicationQuestion
	for _, q := range o.detector.Detect(o.doc) {
		if field := dom.Lookup(o.doc, q.FieldKey); field != nil && field.Value() == "" {
			empty = append(empty, q)
		}
	}
	if n := o.fillAnswers(ctx, empty); n > 0 {
		report.Outcome = OutcomeRefilled
		report.Answered = n
	}

	if report.Outcome == OutcomeRefilled {
		o.logger.Debug("Refilled from cache", map[string]interface{}{
			"cover_letter": report.Filled,
			"answers":      report.Answered,
		})
	}
	return report
}

// FillCoverLetter writes text chosen by the user; it outranks every
// generated result
func (o *Orchestrator) FillCoverLetter(ctx context.Context, text string) bool {
	if !o.writeLetter(ctx, text, fill.PriorityUserOverride) {
		return false
	}
	o.mu.Lock()
	o.generated = true
	if !o.inProgress {
		o.state = StateDone
	}
	o.mu.Unlock()
	return true
}

// DetectQuestions lists the screening questions currently on the page
func (o *Orchestrator) DetectQuestions() []models.ApplicationQuestion {
	return o.detector.Detect(o.doc)
}

// ExtractJob extracts the job posting without starting a run
func (o *Orchestrator) ExtractJob() (*models.JobPosting, error) {
	job := o.extractor.ExtractJobPosting(o.doc)
	if !o.extractor.Validate(job) {
		return nil, errNoJobData
	}
	t := job.Truncated(o.opts.MaxDescriptionLength)
	return &t, nil
}

var errNoJobData = errors.New("could not extract job data")

// IsNoJobData reports an extraction miss from ExtractJob
func IsNoJobData(err error) bool {
	return errors.Is(err, errNoJobData)
}
