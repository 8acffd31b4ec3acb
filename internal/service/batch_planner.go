package service

import (
	"github.com/dannyswat/outreach/internal/company"
	"github.com/dannyswat/outreach/internal/logger"
	"github.com/dannyswat/outreach/internal/model"
)

// BatchPlanner partitions company-tagged contacts into outreach rounds
type BatchPlanner struct {
	matcher *company.Matcher
	// maxSize is the size a batch should not exceed; zero disables the check
	maxSize int
	log     *logger.Logger
}

// NewBatchPlanner creates a new BatchPlanner
func NewBatchPlanner(matcher *company.Matcher, maxSize int, log *logger.Logger) *BatchPlanner {
	return &BatchPlanner{
		matcher: matcher,
		maxSize: maxSize,
		log:     log.WithComponent("batch_planner"),
	}
}

// CreateBatches builds batches round by round. Every company with contacts
// left contributes up to its quota per round. A batch is complete when every
// company in it contributed its full quota.
//
// The first incomplete batch is emitted and ends planning, even if other
// companies still have contacts. Those contacts are never batched.
func (p *BatchPlanner) CreateBatches(index *model.CompanyContactIndex, quota int) []model.Batch {
	if index == nil || quota <= 0 {
		return nil
	}

	companies := index.Companies()
	cursors := make(map[string]int, len(companies))

	var batches []model.Batch
	for {
		batch := model.Batch{Number: len(batches) + 1}
		complete := true

		for _, co := range companies {
			contacts := index.Contacts(co)
			start := cursors[co]
			if start >= len(contacts) {
				continue
			}

			q := p.quota(co, quota)
			end := min(start+q, len(contacts))
			batch.Entries = append(batch.Entries, model.CompanyContacts{
				Company:  co,
				Contacts: contacts[start:end],
			})
			cursors[co] = end
			complete = complete && end-start == q
		}

		if len(batch.Entries) == 0 {
			break
		}

		if p.maxSize > 0 && batch.Size() > p.maxSize {
			p.log.Warn().
				Int("batch", batch.Number).
				Int("size", batch.Size()).
				Int("max_size", p.maxSize).
				Msg("batch exceeds configured size")
		}

		batches = append(batches, batch)
		if !complete {
			break
		}
	}

	if dropped := index.Total() - totalContacts(batches); dropped > 0 {
		p.log.Warn().Int("dropped", dropped).Msg("short batch ended planning; remaining contacts were not batched")
	}
	p.log.Info().Int("batches", len(batches)).Msg("created batches")

	return batches
}

func (p *BatchPlanner) quota(co string, quota int) int {
	if p.matcher == nil {
		return quota
	}
	return p.matcher.Quota(co, quota)
}

func totalContacts(batches []model.Batch) int {
	n := 0
	for _, b := range batches {
		n += b.Size()
	}
	return n
}
