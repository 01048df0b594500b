// Package journal records every dispatch outcome so consignments whose
// order write-back failed can be found and reconciled later.
package journal

import (
	"context"
	"errors"
	"time"
)

// ErrEntryNotFound is returned when a journal entry does not exist.
var ErrEntryNotFound = errors.New("journal entry not found")

// Outcome classifies a dispatch attempt.
type Outcome string

const (
	// OutcomeCreated means the consignment was created and the order marked shipped.
	OutcomeCreated Outcome = "created"
	// OutcomeFailed means the courier rejected the order.
	OutcomeFailed Outcome = "failed"
	// OutcomePartial means the consignment exists but the order status was not updated.
	OutcomePartial Outcome = "partial"
	// OutcomeUntracked means the courier accepted the order without returning
	// a tracking id, so the order could not be marked shipped.
	OutcomeUntracked Outcome = "untracked"
)

// Entry is one dispatch attempt.
type Entry struct {
	ID              string     `json:"id"`
	CompanyID       string     `json:"companyId"`
	OrderID         string     `json:"orderId"`
	Provider        string     `json:"provider"`
	TrackingID      string     `json:"trackingId"`
	MerchantOrderID string     `json:"merchantOrderId"`
	City            string     `json:"city,omitempty"`
	Outcome         Outcome    `json:"outcome"`
	StatusUpdated   bool       `json:"statusUpdated"`
	Error           string     `json:"error,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ReconciledAt    *time.Time `json:"reconciledAt,omitempty"`
}

// Journal stores dispatch outcomes.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	// ListUnreconciled returns partial and untracked outcomes not yet
	// reconciled, oldest first.
	ListUnreconciled(ctx context.Context, companyID string) ([]Entry, error)
	MarkReconciled(ctx context.Context, id string) error
}

// Nop is a Journal that keeps nothing. It is used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) ListUnreconciled(context.Context, string) ([]Entry, error) { return nil, nil }

func (Nop) MarkReconciled(context.Context, string) error { return ErrEntryNotFound }
