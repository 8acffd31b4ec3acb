package company

import (
	"regexp"
	"strings"

	"github.com/dannyswat/outreach/internal/model"
)

// Known company identifiers
const (
	Amazon = "amazon"
	Meta   = "meta"
	Google = "google"
	Apple  = "apple"
)

// pattern ties a company to the domain patterns that identify it.
// Declaration order is match order.
//
// gmail.com maps to google: personal Gmail addresses are treated as Google
// employees. This is a product decision kept from the contact sheets this
// tool was built for, not an oversight.
var patterns = []struct {
	company  string
	patterns []string
}{
	{Amazon, []string{`@amazon\.`, `@a2z\.`}},
	{Meta, []string{`@meta\.`, `@fb\.`, `@facebook\.`}},
	{Google, []string{`@google\.`, `@gmail\.`}},
	{Apple, []string{`@apple\.`, `@icloud\.`}},
}

type compiledCompany struct {
	company  string
	patterns []*regexp.Regexp
}

// Matcher identifies an employer from an email address
type Matcher struct {
	companies []compiledCompany
	quotas    map[string]int
}

// NewMatcher compiles the company table. quotas holds per-company overrides
// of the batch quota; companies without an override use the caller's default.
func NewMatcher(quotas map[string]int) *Matcher {
	m := &Matcher{quotas: make(map[string]int, len(quotas))}
	for _, p := range patterns {
		cc := compiledCompany{company: p.company}
		for _, expr := range p.patterns {
			cc.patterns = append(cc.patterns, regexp.MustCompile(`(?i)`+expr))
		}
		m.companies = append(m.companies, cc)
	}
	for company, q := range quotas {
		if q > 0 {
			m.quotas[strings.ToLower(company)] = q
		}
	}
	return m
}

// IdentifyCompany returns the first company whose pattern matches, or model.CompanyUnknown
func (m *Matcher) IdentifyCompany(address string) string {
	email := strings.ToLower(strings.TrimSpace(address))
	if email == "" {
		return model.CompanyUnknown
	}

	for _, cc := range m.companies {
		for _, re := range cc.patterns {
			if re.MatchString(email) {
				return cc.company
			}
		}
	}
	return model.CompanyUnknown
}

// Quota returns the per-batch quota for a company
func (m *Matcher) Quota(company string, defaultQuota int) int {
	if q, ok := m.quotas[company]; ok {
		return q
	}
	return defaultQuota
}

// Companies returns the known company identifiers in match order
func (m *Matcher) Companies() []string {
	out := make([]string, 0, len(m.companies))
	for _, cc := range m.companies {
		out = append(out, cc.company)
	}
	return out
}

// MissingCompanies returns the known companies that have no contacts in the index
func (m *Matcher) MissingCompanies(index *model.CompanyContactIndex) []string {
	var missing []string
	for _, cc := range m.companies {
		if index == nil || len(index.Contacts(cc.company)) == 0 {
			missing = append(missing, cc.company)
		}
	}
	return missing
}
