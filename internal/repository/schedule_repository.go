package repository

import (
	"fmt"
	"sort"
	"time"

	"github.com/dannyswat/outreach/internal/model"
)

// ScheduleRepository is the in-memory pending queue of scheduled emails.
// It is not safe for concurrent use; the owning service serializes access.
type ScheduleRepository struct {
	items []model.ScheduledEmail
	byID  map[string]int
}

// NewScheduleRepository creates an empty pending queue
func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{byID: make(map[string]int)}
}

// Add appends a scheduled email to the queue
func (r *ScheduleRepository) Add(item model.ScheduledEmail) error {
	if item.ID == "" || item.RecipientEmail == "" {
		return fmt.Errorf("failed to add scheduled email: %w", ErrInvalidInput)
	}
	if _, ok := r.byID[item.ID]; ok {
		return fmt.Errorf("failed to add scheduled email %s: %w", item.ID, ErrDuplicate)
	}
	r.byID[item.ID] = len(r.items)
	r.items = append(r.items, item)
	return nil
}

// GetByID returns the scheduled email with the given ID
func (r *ScheduleRepository) GetByID(id string) (model.ScheduledEmail, error) {
	idx, ok := r.byID[id]
	if !ok {
		return model.ScheduledEmail{}, ErrNotFound
	}
	return r.items[idx], nil
}

// All returns a copy of the queue in insertion order
func (r *ScheduleRepository) All() []model.ScheduledEmail {
	out := make([]model.ScheduledEmail, len(r.items))
	copy(out, r.items)
	return out
}

// Due returns the items whose send time has arrived, ordered by send time.
// Items with equal send times keep their insertion order.
func (r *ScheduleRepository) Due(now time.Time) []model.ScheduledEmail {
	var due []model.ScheduledEmail
	for _, item := range r.items {
		if item.Due(now) {
			due = append(due, item)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].SendTime.Before(due[j].SendTime)
	})
	return due
}

// Next returns the earliest send time in the queue
func (r *ScheduleRepository) Next() (time.Time, bool) {
	if len(r.items) == 0 {
		return time.Time{}, false
	}
	next := r.items[0].SendTime
	for _, item := range r.items[1:] {
		if item.SendTime.Before(next) {
			next = item.SendTime
		}
	}
	return next, true
}

// Remove deletes a scheduled email from the queue
func (r *ScheduleRepository) Remove(id string) error {
	idx, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	r.items = append(r.items[:idx], r.items[idx+1:]...)
	delete(r.byID, id)
	for i := idx; i < len(r.items); i++ {
		r.byID[r.items[i].ID] = i
	}
	return nil
}

// Len returns the number of pending items
func (r *ScheduleRepository) Len() int {
	return len(r.items)
}
