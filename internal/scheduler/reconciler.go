package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inboxpilot/scheduler/internal/calendar"
	"github.com/inboxpilot/scheduler/internal/interpreter"
	"github.com/inboxpilot/scheduler/internal/models"
	"github.com/inboxpilot/scheduler/internal/storage"
	"github.com/inboxpilot/scheduler/internal/timeparse"
	"github.com/inboxpilot/scheduler/pkg/metrics"
)

// Config carries the per-identity settings the reconciler needs.
type Config struct {
	Identity     string
	Timezone     string
	Defaults     Defaults
	ContextTurns int
}

// Reconciler sequences one message through dedup check, interpretation,
// the state machine, the resolvers, the calendar backend, and the
// atomic state+ledger commit. It is the only component that mutates
// anything.
type Reconciler struct {
	cfg      Config
	loc      *time.Location
	store    storage.Store
	interp   interpreter.Interpreter
	resolver timeparse.Resolver
	backend  calendar.Backend
	machine  *Machine
	logger   *zap.Logger

	now func() time.Time
}

func NewReconciler(
	cfg Config,
	store storage.Store,
	interp interpreter.Interpreter,
	resolver timeparse.Resolver,
	backend calendar.Backend,
	machine *Machine,
	logger *zap.Logger,
) (*Reconciler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.ContextTurns <= 0 {
		cfg.ContextTurns = 3
	}
	if machine == nil {
		machine = NewMachine(nil)
	}
	return &Reconciler{
		cfg:      cfg,
		loc:      loc,
		store:    store,
		interp:   interp,
		resolver: resolver,
		backend:  backend,
		machine:  machine,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Process runs the full sequencing contract for one message. The
// returned error is non-nil only for storage faults, which abort the
// current cycle; every domain failure is absorbed into the outcome and
// the thread's audit history.
func (r *Reconciler) Process(ctx context.Context, msg models.InboundMessage) (models.Outcome, error) {
	processed, err := r.store.HasProcessed(ctx, r.cfg.Identity, msg.ID)
	if err != nil {
		return "", fmt.Errorf("ledger lookup failed for %s: %w", msg.ID, err)
	}
	if processed {
		metrics.DuplicatesSkipped.WithLabelValues(r.cfg.Identity).Inc()
		r.logger.Debug("Skipping already processed message",
			zap.String("message_id", msg.ID),
			zap.String("thread_id", msg.ThreadID))
		return models.OutcomeDuplicate, nil
	}

	now := r.now().In(r.loc)

	state, err := r.store.GetThread(ctx, r.cfg.Identity, msg.ThreadID)
	if err != nil {
		return "", fmt.Errorf("thread lookup failed for %s: %w", msg.ThreadID, err)
	}

	interpStart := time.Now()
	proposal, interpErr := r.interp.Analyze(ctx, interpreter.AnalysisInput{
		Subject:               msg.Subject,
		Body:                  msg.BodyText,
		SideChannelRecipients: msg.SideChannelRecipients,
		ConversationContext:   state.ContextSummary(r.cfg.ContextTurns),
		Timezone:              r.cfg.Timezone,
	})
	metrics.InterpreterDuration.Observe(time.Since(interpStart).Seconds())

	if interpErr != nil {
		// Terminal: the message is marked processed so a poison message
		// never loops, at the cost of not retrying transient faults.
		r.logger.Warn("Interpretation failed, marking message processed",
			zap.Error(interpErr),
			zap.String("message_id", msg.ID))
		if state != nil {
			r.appendTurn(state, msg, nil, "interpretation failed", models.OutcomeInterpretError, now)
			state.LastUpdated = now
		}
		return r.finish(ctx, state, msg, models.OutcomeInterpretError, now)
	}

	decision := r.machine.Decide(state, proposal)
	r.logger.Info("Decided action for message",
		zap.String("message_id", msg.ID),
		zap.String("thread_id", msg.ThreadID),
		zap.String("intent", string(proposal.Intent)),
		zap.String("action", string(decision.Action)),
		zap.String("reason", decision.Reason))

	if decision.Action == ActionIgnore {
		// Unrelated messages never create thread state.
		return r.finish(ctx, state, msg, models.OutcomeUnrelated, now)
	}

	if state == nil {
		state = &models.ThreadState{ThreadID: msg.ThreadID}
	}
	state.IntentHistory = append(state.IntentHistory, proposal.Intent)
	r.addParticipant(state, msg.Sender)
	r.addParticipant(state, r.cfg.Identity)
	state.Topic = ResolveTopic(proposal, state, msg.Subject, r.cfg.Defaults)

	var outcome models.Outcome
	switch decision.Action {
	case ActionRecord:
		r.setStatus(state, models.StatusAnalyzed)
		outcome = models.OutcomeRecorded
	case ActionSkip:
		r.setStatus(state, models.StatusScheduled)
		outcome = models.OutcomeSkipped
	case ActionClarify:
		r.setStatus(state, models.StatusNeedsClarification)
		outcome = models.OutcomeClarification
	case ActionCreate, ActionUpdate:
		outcome, err = r.execSchedule(ctx, msg, state, proposal, decision.Action, now)
		if err != nil {
			return "", err
		}
	case ActionCancel:
		outcome, err = r.execCancel(ctx, msg, state, now)
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unhandled action %q", decision.Action)
	}

	r.appendTurn(state, msg, proposal, decision.Reason, outcome, now)
	state.LastUpdated = now
	return r.finish(ctx, state, msg, outcome, now)
}

// execSchedule resolves the proposed time and fields, then creates or
// updates the calendar event inside a two-phase intent record.
func (r *Reconciler) execSchedule(ctx context.Context, msg models.InboundMessage, state *models.ThreadState, proposal *models.Proposal, action Action, now time.Time) (models.Outcome, error) {
	phrase := proposal.FirstTimePhrase()
	ref := ReferenceTime(action, state, now, r.loc)

	start, err := r.resolver.Resolve(ctx, phrase, ref, r.loc)
	if err != nil {
		metrics.ResolverFailures.WithLabelValues(r.cfg.Identity).Inc()
		r.logger.Warn("Could not resolve time phrase",
			zap.Error(err),
			zap.String("phrase", phrase),
			zap.Time("reference", ref))
		r.setStatus(state, models.StatusNeedsClarification)
		return models.OutcomeClarification, nil
	}

	duration := ResolveDuration(proposal, state, r.cfg.Defaults)
	end := start.Add(time.Duration(duration) * time.Minute)
	topic := ResolveTopic(proposal, state, msg.Subject, r.cfg.Defaults)
	attendees := ResolveAttendees(state.Participants, msg.Sender, r.cfg.Identity, proposal.AttendeeHints)

	input := calendar.EventInput{
		Summary:     topic,
		Start:       start,
		End:         end,
		Timezone:    r.cfg.Timezone,
		Attendees:   attendees,
		Description: ResolveDescription(proposal, state, msg, topic),
		Location:    ResolveLocation(proposal, state, r.cfg.Defaults),
	}

	intent := models.PendingIntent{
		ID:        uuid.New().String(),
		MessageID: msg.ID,
		ThreadID:  msg.ThreadID,
		CreatedAt: now,
	}

	var result calendar.EventResult
	var callErr error
	if action == ActionUpdate {
		intent.Op = models.OpUpdate
		intent.EventID = state.ScheduledEvent.EventID
		if err := r.store.BeginMutation(ctx, r.cfg.Identity, intent); err != nil {
			return "", fmt.Errorf("recording update intent failed: %w", err)
		}
		result, callErr = r.backend.Update(ctx, state.ScheduledEvent.EventID, input)
		metrics.RecordBackendCall(string(models.OpUpdate), callErr)
	} else {
		intent.Op = models.OpCreate
		if err := r.store.BeginMutation(ctx, r.cfg.Identity, intent); err != nil {
			return "", fmt.Errorf("recording create intent failed: %w", err)
		}
		result, callErr = r.backend.Create(ctx, input)
		metrics.RecordBackendCall(string(models.OpCreate), callErr)
	}

	if err := r.store.ResolveMutation(ctx, r.cfg.Identity, intent.ID, callErr == nil); err != nil {
		r.logger.Warn("Failed to resolve mutation intent",
			zap.Error(err),
			zap.String("intent_id", intent.ID))
	}

	if callErr != nil {
		// The prior scheduled event, if any, stays untouched.
		r.logger.Error("Calendar backend call failed",
			zap.Error(callErr),
			zap.String("thread_id", msg.ThreadID),
			zap.String("op", string(intent.Op)))
		r.setStatus(state, models.StatusScheduleFailed)
		return models.OutcomeFailed, nil
	}

	state.ScheduledEvent = &models.EventRef{
		EventID:      result.ID,
		Summary:      input.Summary,
		Start:        start,
		End:          end,
		Timezone:     r.cfg.Timezone,
		Attendees:    attendees,
		Description:  input.Description,
		Location:     input.Location,
		ExternalLink: result.ExternalLink,
	}
	state.Participants = attendees
	r.setStatus(state, models.StatusScheduled)

	if action == ActionUpdate {
		return models.OutcomeUpdated, nil
	}
	return models.OutcomeCreated, nil
}

// execCancel deletes the live event. A backend notFound counts as
// success so redelivered cancellations stay idempotent.
func (r *Reconciler) execCancel(ctx context.Context, msg models.InboundMessage, state *models.ThreadState, now time.Time) (models.Outcome, error) {
	intent := models.PendingIntent{
		ID:        uuid.New().String(),
		MessageID: msg.ID,
		ThreadID:  msg.ThreadID,
		Op:        models.OpDelete,
		EventID:   state.ScheduledEvent.EventID,
		CreatedAt: now,
	}
	if err := r.store.BeginMutation(ctx, r.cfg.Identity, intent); err != nil {
		return "", fmt.Errorf("recording delete intent failed: %w", err)
	}

	callErr := r.backend.Delete(ctx, state.ScheduledEvent.EventID)
	metrics.RecordBackendCall(string(models.OpDelete), callErr)

	if err := r.store.ResolveMutation(ctx, r.cfg.Identity, intent.ID, callErr == nil); err != nil {
		r.logger.Warn("Failed to resolve mutation intent",
			zap.Error(err),
			zap.String("intent_id", intent.ID))
	}

	if callErr != nil {
		r.logger.Error("Calendar delete failed",
			zap.Error(callErr),
			zap.String("thread_id", msg.ThreadID),
			zap.String("event_id", intent.EventID))
		r.setStatus(state, models.StatusScheduleFailed)
		return models.OutcomeFailed, nil
	}

	state.ScheduledEvent = nil
	state.Participants = nil // cancellation resets the participant set
	r.setStatus(state, models.StatusCancelled)
	return models.OutcomeCancelled, nil
}

// finish commits the thread state (possibly nil) together with the
// ledger record, then records metrics.
func (r *Reconciler) finish(ctx context.Context, state *models.ThreadState, msg models.InboundMessage, outcome models.Outcome, now time.Time) (models.Outcome, error) {
	rec := models.MessageRecord{
		MessageID:   msg.ID,
		ThreadID:    msg.ThreadID,
		ProcessedAt: now,
		Outcome:     outcome,
	}
	if err := r.store.Commit(ctx, r.cfg.Identity, state, rec); err != nil {
		return "", fmt.Errorf("commit failed for message %s: %w", msg.ID, err)
	}
	metrics.RecordMessage(r.cfg.Identity, string(outcome))
	return outcome, nil
}

func (r *Reconciler) appendTurn(state *models.ThreadState, msg models.InboundMessage, proposal *models.Proposal, summary string, outcome models.Outcome, now time.Time) {
	actor := models.ActorExternal
	if strings.EqualFold(msg.Sender, r.cfg.Identity) {
		actor = models.ActorAgent
	}
	state.NegotiationHistory = append(state.NegotiationHistory, models.NegotiationTurn{
		ID:        uuid.New().String(),
		Actor:     actor,
		Summary:   fmt.Sprintf("message %s (%s): %s", msg.ID, truncate(msg.Subject, 80), summary),
		Proposal:  proposal,
		Timestamp: now,
		Outcome:   outcome,
	})
}

func (r *Reconciler) addParticipant(state *models.ThreadState, addr string) {
	resolved := ResolveAttendees(state.Participants, addr, addr, nil)
	if len(resolved) > len(state.Participants) {
		state.Participants = resolved
	}
}

// setStatus applies a status transition, rejecting and logging any move
// the state machine does not permit.
func (r *Reconciler) setStatus(state *models.ThreadState, to models.ThreadStatus) {
	next, err := Transition(state.Status, to)
	if err != nil {
		r.logger.Error("Rejected illegal status transition",
			zap.Error(err),
			zap.String("thread_id", state.ThreadID))
		return
	}
	state.Status = next
}

// RecoverDangling reports mutation intents that were begun but never
// resolved, i.e. possible duplicate calendar mutations left by a crash
// between a backend call and the local commit. Recovery is deliberate
// inspection, not automatic replay.
func (r *Reconciler) RecoverDangling(ctx context.Context) ([]models.PendingIntent, error) {
	dangling, err := r.store.DanglingMutations(ctx, r.cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("listing dangling mutations failed: %w", err)
	}
	for _, intent := range dangling {
		r.logger.Warn("Unresolved mutation intent from a previous run",
			zap.String("intent_id", intent.ID),
			zap.String("thread_id", intent.ThreadID),
			zap.String("op", string(intent.Op)),
			zap.Time("created_at", intent.CreatedAt))
	}
	return dangling, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
