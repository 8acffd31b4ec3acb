package repository

import (
	"time"

	"github.com/dannyswat/outreach/internal/model"
)

// SentRecord is one successful delivery
type SentRecord struct {
	Email    string    `json:"email" yaml:"email"`
	BatchNum int       `json:"batchNum" yaml:"batch_num"`
	Reminder bool      `json:"reminder" yaml:"reminder"`
	SentAt   time.Time `json:"sentAt" yaml:"sent_at"`
}

// LedgerRepository records which recipients were sent to and the failures
// seen per recipient. It grows monotonically for the lifetime of a run and
// is not safe for concurrent use.
type LedgerRepository struct {
	sent     map[string]struct{}
	sentList []SentRecord
	failures map[string][]model.FailureRecord
}

// NewLedgerRepository creates an empty ledger
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		sent:     make(map[string]struct{}),
		failures: make(map[string][]model.FailureRecord),
	}
}

// MarkSent adds a recipient to the sent set. A recipient can only be marked once.
func (r *LedgerRepository) MarkSent(rec SentRecord) error {
	if rec.Email == "" {
		return ErrInvalidInput
	}
	if _, ok := r.sent[rec.Email]; ok {
		return ErrDuplicate
	}
	r.sent[rec.Email] = struct{}{}
	r.sentList = append(r.sentList, rec)
	return nil
}

// IsSent reports whether the recipient is in the sent set
func (r *LedgerRepository) IsSent(email string) bool {
	_, ok := r.sent[email]
	return ok
}

// SentCount returns the size of the sent set
func (r *LedgerRepository) SentCount() int {
	return len(r.sentList)
}

// SentList returns the successful deliveries in send order
func (r *LedgerRepository) SentList() []SentRecord {
	out := make([]SentRecord, len(r.sentList))
	copy(out, r.sentList)
	return out
}

// RecordFailure appends a failure record for the recipient
func (r *LedgerRepository) RecordFailure(email string, rec model.FailureRecord) {
	r.failures[email] = append(r.failures[email], rec)
}

// Failures returns the failure records of one recipient in the order they happened
func (r *LedgerRepository) Failures(email string) []model.FailureRecord {
	recs := r.failures[email]
	out := make([]model.FailureRecord, len(recs))
	copy(out, recs)
	return out
}

// AllFailures returns a copy of every recipient's failure history
func (r *LedgerRepository) AllFailures() map[string][]model.FailureRecord {
	out := make(map[string][]model.FailureRecord, len(r.failures))
	for email, recs := range r.failures {
		cp := make([]model.FailureRecord, len(recs))
		copy(cp, recs)
		out[email] = cp
	}
	return out
}
