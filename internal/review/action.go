// Package review holds the reviewer-facing actions: confirmed status
// decisions, batch decisions and metrics refresh. Collaborators are injected so
// the same actions back the web forms and the CLI.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/modboard/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrInvalidStatus is returned for a decision other than approved or rejected.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrNotConfirmed is returned when the reviewer did not confirm the action.
	ErrNotConfirmed = errors.New("action not confirmed")
)

// DefaultBatchNotes is recorded when a batch decision carries no notes.
const DefaultBatchNotes = "Batch action"

// StatusUpdater records a decision upstream.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id int64, update models.StatusUpdate) error
}

// ParseStatus accepts a decision as a status ("approved") or as a verb
// ("approve"), case-insensitively.
func ParseStatus(s string) (models.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved", "approve":
		return models.StatusApproved, nil
	case "rejected", "reject":
		return models.StatusRejected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Option configures an action.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets a logger for action outcomes.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// StatusAction approves or rejects content after asking the Confirmer.
type StatusAction struct {
	confirmer Confirmer
	updater   StatusUpdater
	logger    *zap.Logger
}

// NewStatusAction returns a StatusAction.
func NewStatusAction(confirmer Confirmer, updater StatusUpdater, opts ...Option) *StatusAction {
	o := buildOptions(opts)
	return &StatusAction{confirmer: confirmer, updater: updater, logger: o.logger}
}

// Submit validates status, asks for confirmation and sends the decision.
// Nothing is sent unless the reviewer confirms.
func (a *StatusAction) Submit(ctx context.Context, id int64, status models.Status, notes string) error {
	if status != models.StatusApproved && status != models.StatusRejected {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := a.confirm(ctx, fmt.Sprintf("Mark content %d as %s?", id, status)); err != nil {
		return err
	}
	if err := a.updater.UpdateStatus(ctx, id, models.StatusUpdate{Status: status, Notes: notes}); err != nil {
		a.logger.Error("status update failed", zap.Int64("content_id", id), zap.String("status", string(status)), zap.Error(err))
		return fmt.Errorf("update status of %d: %w", id, err)
	}
	a.logger.Info("status updated", zap.Int64("content_id", id), zap.String("status", string(status)))
	return nil
}

// BatchResult counts the outcome of a batch decision.
type BatchResult struct {
	Status    models.Status `json:"status"`
	Succeeded int           `json:"succeeded"`
	Total     int           `json:"total"`
	Failed    []int64       `json:"failed,omitempty"`
	// Invalid holds submitted ids that could not be parsed. They count
	// towards Total but were never sent.
	Invalid []string `json:"invalid,omitempty"`
}

// AddInvalid records unparseable ids as failed items.
func (r *BatchResult) AddInvalid(ids ...string) {
	r.Invalid = append(r.Invalid, ids...)
	r.Total += len(ids)
}

// String renders the result as a flash message, e.g. "Successfully approved 2 of 3 items".
func (r *BatchResult) String() string {
	return fmt.Sprintf("Successfully %s %d of %d items", r.Status, r.Succeeded, r.Total)
}

// Batch applies one confirmed decision to every id. A failing id is logged and
// counted; it does not stop the rest.
func (a *StatusAction) Batch(ctx context.Context, ids []int64, status models.Status, notes string) (*BatchResult, error) {
	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if len(ids) == 0 {
		return nil, errors.New("no items selected")
	}
	if notes == "" {
		notes = DefaultBatchNotes
	}
	if err := a.confirm(ctx, fmt.Sprintf("Mark %d items as %s?", len(ids), status)); err != nil {
		return nil, err
	}
	res := &BatchResult{Status: status, Total: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := a.updater.UpdateStatus(ctx, id, models.StatusUpdate{Status: status, Notes: notes}); err != nil {
			a.logger.Error("batch status update failed", zap.Int64("content_id", id), zap.Error(err))
			res.Failed = append(res.Failed, id)
			continue
		}
		res.Succeeded++
	}
	a.logger.Info("batch status update", zap.String("status", string(status)),
		zap.Int("succeeded", res.Succeeded), zap.Int("total", res.Total))
	return res, nil
}

func (a *StatusAction) confirm(ctx context.Context, prompt string) error {
	if a.confirmer == nil {
		return ErrNotConfirmed
	}
	ok, err := a.confirmer.Confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		return ErrNotConfirmed
	}
	return nil
}
