package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/tiklens/internal/clock"
	"github.com/timmy/tiklens/internal/content"
	"github.com/timmy/tiklens/internal/dialog"
	"github.com/timmy/tiklens/internal/domain"
	"github.com/timmy/tiklens/internal/logger"
	"github.com/timmy/tiklens/internal/stream"
)

// PreferenceKeyInstruction is the preference store key holding the last-used
// custom analysis instruction.
const PreferenceKeyInstruction = "analysis.custom_instruction"

// BackendAPI is the remote job surface the orchestrator drives. Implemented
// by backend.Client; tests substitute scripted fakes.
type BackendAPI interface {
	StartCollection(ctx context.Context, subjectID, subjectURL string) (string, error)
	CollectionStatus(ctx context.Context, jobID string) (domain.JobSnapshot, error)
	CancelCollection(ctx context.Context) error
	StartAnalysis(ctx context.Context, collectionJobID, customInstruction string) (string, error)
	AnalysisStatus(ctx context.Context, jobID string) (domain.JobSnapshot, error)
	CancelAnalysis(ctx context.Context, jobID string) error
}

// PreferenceStore is the persisted client state, consumed read-only at
// session start and written back after a successful analysis start.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// SessionStore records orchestration runs for history.
type SessionStore interface {
	Create(ctx context.Context, session *domain.AnalysisSession) error
	Update(ctx context.Context, session *domain.AnalysisSession) error
}

// Exporter renders and stores a report from the sanitized analysis text.
type Exporter interface {
	Export(ctx context.Context, sessionID, sanitized string) (string, error)
}

// OrchestratorConfig holds the timing knobs of a session.
type OrchestratorConfig struct {
	PollInterval time.Duration
	// Preroll is the fixed delay between collection completion and the
	// analysis start call. Zero skips it.
	Preroll time.Duration
}

// Orchestrator sequences one collection job and one analysis job, drives the
// dialog machine through the run, and hands the formatted result to the
// stream player. Only one session runs at a time.
type Orchestrator struct {
	backend BackendAPI
	dialog  *dialog.Machine
	player  *stream.Player
	sink    stream.Sink
	clock   clock.Clock
	cfg     OrchestratorConfig

	prefs    PreferenceStore // optional
	sessions SessionStore    // optional
	exporter Exporter        // optional

	logger *logger.Logger

	mu       sync.Mutex
	polling  *Polling
	playback *stream.Playback
	running  bool
}

// NewOrchestrator creates a task orchestrator.
// Parameters:
//   - api: remote backend surface.
//   - machine: dialog state machine owned by this session.
//   - player: stream player for the reveal phase.
//   - sink: reveal event consumer (the presentation adapter).
//   - clk: clock for preroll pacing; nil uses the system clock.
//   - cfg: timing configuration.
//   - log: base logger; nil uses the default.
//
// Returns:
//   - *Orchestrator: initialized orchestrator.
func NewOrchestrator(
	api BackendAPI,
	machine *dialog.Machine,
	player *stream.Player,
	sink stream.Sink,
	clk clock.Clock,
	cfg OrchestratorConfig,
	log *logger.Logger,
) *Orchestrator {
	if clk == nil {
		clk = clock.System()
	}
	if log == nil {
		log = logger.GetDefault()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Orchestrator{
		backend: api,
		dialog:  machine,
		player:  player,
		sink:    sink,
		clock:   clk,
		cfg:     cfg,
		logger:  log,
	}
}

// WithPreferences attaches the persisted client state store.
func (o *Orchestrator) WithPreferences(prefs PreferenceStore) *Orchestrator {
	o.prefs = prefs
	return o
}

// WithSessions attaches the session history store.
func (o *Orchestrator) WithSessions(sessions SessionStore) *Orchestrator {
	o.sessions = sessions
	return o
}

// WithExporter attaches the report exporter.
func (o *Orchestrator) WithExporter(exporter Exporter) *Orchestrator {
	o.exporter = exporter
	return o
}

// StartParams describes one orchestration session.
type StartParams struct {
	SubjectID  string
	SubjectURL string
	// CustomInstruction overrides the saved preference when non-empty. Empty
	// falls back to the preference store, then to the backend default.
	CustomInstruction string
}

// Run executes one full session: collection, analysis, content pipeline,
// reveal. It blocks until the reveal finishes or the session dies. Run never
// returns an error to its caller: failures surface through the dialog as an
// error banner plus the Hidden state.
// Parameters:
//   - ctx: session context; cancelling it cancels the active job and reveal.
//   - params: subject and options for this session.
func (o *Orchestrator) Run(ctx context.Context, params StartParams) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		o.logger.Warn("Session already running, ignoring start")
		return
	}
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.polling = nil
		o.playback = nil
		o.mu.Unlock()
	}()

	sessionID := uuid.New().String()
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldSessionID: sessionID,
		logger.FieldComponent: "orchestrator",
	})

	// A fresh session forcibly resets the dialog first.
	o.dialog.Reset()

	record := &domain.AnalysisSession{
		ID:         sessionID,
		SubjectID:  params.SubjectID,
		SubjectURL: params.SubjectURL,
		Status:     domain.SessionStatusRunning,
		StartedAt:  o.clock.Now(),
	}
	o.createSession(ctx, record)

	logger.CtxInfo(ctx, "Starting session for subject %s", params.SubjectID)

	// Step 1: collection.
	collectionID, err := o.backend.StartCollection(ctx, params.SubjectID, params.SubjectURL)
	if err != nil {
		o.fail(ctx, record, "", err.Error())
		return
	}
	record.CollectionJobID = collectionID

	o.dialog.ShowCollecting(dialog.Progress{Message: "Starting collection..."})

	collectionPoller := NewPoller(domain.JobKindCollection, o.backend.CollectionStatus,
		func(ctx context.Context, _ string) error { return o.backend.CancelCollection(ctx) }, o.clock)

	final, ok := o.pollJob(ctx, collectionPoller, collectionID, func(snap domain.JobSnapshot) {
		o.dialog.ShowCollecting(dialog.Progress{
			Percent:   snap.Progress,
			Message:   snap.Message,
			ItemCount: domain.CommentCount(snap.Stats),
		})
	})
	if !ok {
		o.cancelledOut(ctx, record)
		return
	}

	switch final.Status {
	case domain.JobStatusFailed:
		o.failJob(ctx, record, &domain.JobFailedError{
			JobID: collectionID, Kind: domain.JobKindCollection, Message: failureMessage(final)})
		return
	case domain.JobStatusCancelled:
		logger.CtxInfo(ctx, "%v", &domain.JobCancelledError{JobID: collectionID, Kind: domain.JobKindCollection})
		o.cancelledOut(ctx, record)
		return
	}

	commentCount := domain.CommentCount(final.Stats)
	record.CommentCount = commentCount
	logger.FromContext(ctx).WithField(logger.FieldCount, commentCount).Info("Collection completed")

	// Short fixed pre-roll before the analysis start call.
	if o.cfg.Preroll > 0 {
		select {
		case <-ctx.Done():
			o.cancelledOut(ctx, record)
			return
		case <-o.clock.After(o.cfg.Preroll):
		}
	}

	// Step 2: analysis, keyed by the collection job id.
	instruction := o.resolveInstruction(ctx, params.CustomInstruction)
	analysisID, err := o.backend.StartAnalysis(ctx, collectionID, instruction)
	if err != nil {
		o.fail(ctx, record, collectionID, err.Error())
		return
	}
	record.AnalysisJobID = analysisID
	o.saveInstruction(ctx, params.CustomInstruction)

	o.dialog.ShowAnalyzing(dialog.Progress{Message: "Starting analysis...", ItemCount: commentCount})

	analysisPoller := NewPoller(domain.JobKindAnalysis, o.backend.AnalysisStatus,
		o.backend.CancelAnalysis, o.clock)

	final, ok = o.pollJob(ctx, analysisPoller, analysisID, func(snap domain.JobSnapshot) {
		// The collection count stands in until the analysis job reports its
		// own authoritative count.
		count := domain.CommentCount(snap.Stats)
		if count == 0 {
			count = commentCount
		}
		o.dialog.ShowAnalyzing(dialog.Progress{
			Percent:   snap.Progress,
			Message:   snap.Message,
			ItemCount: count,
		})
	})
	if !ok {
		o.cancelledOut(ctx, record)
		return
	}

	switch final.Status {
	case domain.JobStatusFailed:
		o.failJob(ctx, record, &domain.JobFailedError{
			JobID: analysisID, Kind: domain.JobKindAnalysis, Message: failureMessage(final)})
		return
	case domain.JobStatusCancelled:
		logger.CtxInfo(ctx, "%v", &domain.JobCancelledError{JobID: analysisID, Kind: domain.JobKindAnalysis})
		o.cancelledOut(ctx, record)
		return
	}

	if final.Result == nil || final.Result.Text == "" {
		o.fail(ctx, record, analysisID, "analysis completed without result text")
		return
	}

	// Step 3: content pipeline and reveal.
	sanitized := content.Sanitize(final.Result.Text)
	blocks := content.Format(sanitized)
	record.BlockCount = len(blocks)
	logger.CtxInfo(ctx, "Formatted analysis into %d blocks", len(blocks))

	o.dialog.Present(blocks)

	playback := o.player.Play(blocks, o.sink)
	o.mu.Lock()
	o.playback = playback
	o.mu.Unlock()

	select {
	case <-ctx.Done():
		playback.Cancel()
		<-playback.Done()
		o.cancelledOut(ctx, record)
		return
	case <-playback.Done():
	}

	if o.exporter != nil {
		url, err := o.exporter.Export(ctx, sessionID, sanitized)
		if err != nil {
			logger.CtxWarn(ctx, "Report export failed: %v", err)
		} else {
			record.ReportURL = url
		}
	}

	o.finish(ctx, record, domain.SessionStatusCompleted)
	logger.CtxInfo(ctx, "Session completed")
}

// Cancel stops the active session: the running poller, any reveal in
// progress, and the dialog. Safe to call at any time.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	polling := o.polling
	playback := o.playback
	o.mu.Unlock()

	if polling != nil {
		polling.Cancel()
	}
	if playback != nil {
		playback.Cancel()
	}
	o.dialog.Hide()
}

// pollJob runs one poller to termination, forwarding non-terminal snapshots
// as same-state dialog updates. Returns the terminal snapshot and false when
// the session was cancelled before one arrived.
func (o *Orchestrator) pollJob(ctx context.Context, poller *Poller, jobID string, update func(domain.JobSnapshot)) (domain.JobSnapshot, bool) {
	var (
		mu    sync.Mutex
		final domain.JobSnapshot
		got   bool
	)

	polling := poller.Start(ctx, jobID, o.cfg.PollInterval, func(snap domain.JobSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		if snap.Status.IsTerminal() {
			final = snap
			got = true
			return
		}
		update(snap)
	})

	o.mu.Lock()
	o.polling = polling
	o.mu.Unlock()

	<-polling.Done()

	o.mu.Lock()
	o.polling = nil
	o.mu.Unlock()

	mu.Lock()
	defer mu.Unlock()
	return final, got
}

// resolveInstruction picks the custom instruction for this session: caller
// parameter first, then the saved preference, then empty (backend default).
func (o *Orchestrator) resolveInstruction(ctx context.Context, fromParams string) string {
	if fromParams != "" {
		return fromParams
	}
	if o.prefs == nil {
		return ""
	}
	saved, err := o.prefs.Get(ctx, PreferenceKeyInstruction)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to read saved instruction: %v", err)
		return ""
	}
	return saved
}

// saveInstruction remembers a caller-supplied instruction for future
// sessions. Empty instructions leave the preference untouched.
func (o *Orchestrator) saveInstruction(ctx context.Context, instruction string) {
	if instruction == "" || o.prefs == nil {
		return
	}
	if err := o.prefs.Set(ctx, PreferenceKeyInstruction, instruction); err != nil {
		logger.CtxWarn(ctx, "Failed to save instruction: %v", err)
	}
}

// fail surfaces the error on the dialog and marks the session failed.
func (o *Orchestrator) fail(ctx context.Context, record *domain.AnalysisSession, jobID, msg string) {
	logger.CtxError(ctx, "Session failed (job=%s): %s", jobID, msg)
	record.ErrorLog = msg
	o.finish(ctx, record, domain.SessionStatusFailed)
	o.dialog.Fail(msg)
}

// failJob is fail for a job that reached the failed terminal state. The
// dialog shows only the failure message, not the job identity.
func (o *Orchestrator) failJob(ctx context.Context, record *domain.AnalysisSession, jobErr *domain.JobFailedError) {
	logger.CtxError(ctx, "%v", jobErr)
	record.ErrorLog = jobErr.Message
	o.finish(ctx, record, domain.SessionStatusFailed)
	o.dialog.Fail(jobErr.Message)
}

// cancelledOut silently returns the dialog to hidden.
func (o *Orchestrator) cancelledOut(ctx context.Context, record *domain.AnalysisSession) {
	logger.CtxInfo(ctx, "Session cancelled")
	o.finish(ctx, record, domain.SessionStatusCancelled)
	o.dialog.Hide()
}

func (o *Orchestrator) createSession(ctx context.Context, record *domain.AnalysisSession) {
	if o.sessions == nil {
		return
	}
	if err := o.sessions.Create(ctx, record); err != nil {
		logger.CtxWarn(ctx, "Failed to record session start: %v", err)
	}
}

func (o *Orchestrator) finish(ctx context.Context, record *domain.AnalysisSession, status domain.SessionStatus) {
	record.Status = status
	now := o.clock.Now()
	record.FinishedAt = &now
	if o.sessions == nil {
		return
	}
	if err := o.sessions.Update(ctx, record); err != nil {
		logger.CtxWarn(ctx, "Failed to record session outcome: %v", err)
	}
}

// failureMessage prefers the server-provided error over the status message.
func failureMessage(snap domain.JobSnapshot) string {
	if snap.Error != "" {
		return snap.Error
	}
	if snap.Message != "" {
		return snap.Message
	}
	return "job failed without a message"
}
