package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dannyswat/outreach/internal/company"
	"github.com/dannyswat/outreach/internal/logger"
	"github.com/dannyswat/outreach/internal/model"
)

type companyCount struct {
	company string
	n       int
}

func makeIndex(counts ...companyCount) *model.CompanyContactIndex {
	idx := model.NewCompanyContactIndex()
	for _, cc := range counts {
		for i := 0; i < cc.n; i++ {
			idx.Add(cc.company, model.Contact{
				Name:  fmt.Sprintf("Contact %d", i),
				Email: fmt.Sprintf("c%d@%s.com", i, cc.company),
				Role:  "Engineer",
			})
		}
	}
	return idx
}

func newTestPlanner(quotas map[string]int) *BatchPlanner {
	return NewBatchPlanner(company.NewMatcher(quotas), 0, logger.Nop())
}

func batchCounts(b model.Batch) map[string]int {
	out := make(map[string]int)
	for _, e := range b.Entries {
		out[e.Company] = len(e.Contacts)
	}
	return out
}

func TestCreateBatches_EvenCompanies(t *testing.T) {
	p := newTestPlanner(nil)

	batches := p.CreateBatches(makeIndex(companyCount{"amazon", 5}, companyCount{"meta", 5}), 2)
	require.Len(t, batches, 3)

	for i, b := range batches {
		assert.Equal(t, i+1, b.Number)
	}
	assert.Equal(t, map[string]int{"amazon": 2, "meta": 2}, batchCounts(batches[0]))
	assert.Equal(t, map[string]int{"amazon": 2, "meta": 2}, batchCounts(batches[1]))
	assert.Equal(t, map[string]int{"amazon": 1, "meta": 1}, batchCounts(batches[2]))

	seen := make(map[string]int)
	for _, b := range batches {
		for _, e := range b.Entries {
			for _, c := range e.Contacts {
				seen[c.Email]++
			}
		}
	}
	assert.Len(t, seen, 10)
	for email, n := range seen {
		assert.Equal(t, 1, n, email)
	}
}

func TestCreateBatches_ShortBatchStopsEverything(t *testing.T) {
	p := newTestPlanner(nil)

	batches := p.CreateBatches(makeIndex(companyCount{"amazon", 3}, companyCount{"meta", 5}), 2)
	require.Len(t, batches, 2)

	assert.Equal(t, map[string]int{"amazon": 2, "meta": 2}, batchCounts(batches[0]))
	assert.Equal(t, map[string]int{"amazon": 1, "meta": 2}, batchCounts(batches[1]))
	assert.Equal(t, 7, totalContacts(batches))

	// meta's fifth contact is never batched
	for _, b := range batches {
		for _, c := range b.Company("meta") {
			assert.NotEqual(t, "c4@meta.com", c.Email)
		}
	}
}

func TestCreateBatches_ExhaustedOnBoundaryKeepsGoing(t *testing.T) {
	p := newTestPlanner(nil)

	batches := p.CreateBatches(makeIndex(companyCount{"amazon", 4}, companyCount{"meta", 6}), 2)
	require.Len(t, batches, 3)
	assert.Equal(t, map[string]int{"meta": 2}, batchCounts(batches[2]))
	assert.Equal(t, 10, totalContacts(batches))
}

func TestCreateBatches_PreservesOrder(t *testing.T) {
	p := newTestPlanner(nil)

	batches := p.CreateBatches(makeIndex(companyCount{"meta", 2}, companyCount{"amazon", 2}), 2)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Entries, 2)
	assert.Equal(t, "meta", batches[0].Entries[0].Company)
	assert.Equal(t, "c0@meta.com", batches[0].Entries[0].Contacts[0].Email)
	assert.Equal(t, "c1@meta.com", batches[0].Entries[0].Contacts[1].Email)
}

func TestCreateBatches_CompanyQuotaOverride(t *testing.T) {
	p := newTestPlanner(map[string]int{"meta": 3})

	batches := p.CreateBatches(makeIndex(companyCount{"amazon", 4}, companyCount{"meta", 6}), 2)
	require.Len(t, batches, 2)
	assert.Equal(t, map[string]int{"amazon": 2, "meta": 3}, batchCounts(batches[0]))
	assert.Equal(t, map[string]int{"amazon": 2, "meta": 3}, batchCounts(batches[1]))
}

func TestCreateBatches_Empty(t *testing.T) {
	p := newTestPlanner(nil)

	assert.Empty(t, p.CreateBatches(model.NewCompanyContactIndex(), 2))
	assert.Empty(t, p.CreateBatches(nil, 2))
	assert.Empty(t, p.CreateBatches(makeIndex(companyCount{"amazon", 3}), 0))
}
