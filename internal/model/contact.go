package model

// Contact represents one validated spreadsheet row
type Contact struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Role  string `json:"role" yaml:"role"`
}

// CompanyUnknown is the identifier for addresses that match no known employer
const CompanyUnknown = "unknown"

// CompanyContactIndex groups contacts by company. Companies are kept in the
// order they were first added and contacts in insertion order.
type CompanyContactIndex struct {
	order    []string
	contacts map[string][]Contact
}

// NewCompanyContactIndex creates an empty index
func NewCompanyContactIndex() *CompanyContactIndex {
	return &CompanyContactIndex{contacts: make(map[string][]Contact)}
}

// Add appends a contact to the company's sequence. Unknown-company contacts are dropped.
func (i *CompanyContactIndex) Add(company string, c Contact) bool {
	if company == "" || company == CompanyUnknown {
		return false
	}
	if _, ok := i.contacts[company]; !ok {
		i.order = append(i.order, company)
	}
	i.contacts[company] = append(i.contacts[company], c)
	return true
}

// Companies returns the companies in first-seen order
func (i *CompanyContactIndex) Companies() []string {
	out := make([]string, len(i.order))
	copy(out, i.order)
	return out
}

// Contacts returns the contacts for a company
func (i *CompanyContactIndex) Contacts(company string) []Contact {
	return i.contacts[company]
}

// Counts returns the number of contacts per company
func (i *CompanyContactIndex) Counts() map[string]int {
	counts := make(map[string]int, len(i.order))
	for _, company := range i.order {
		counts[company] = len(i.contacts[company])
	}
	return counts
}

// Total returns the number of contacts across all companies
func (i *CompanyContactIndex) Total() int {
	total := 0
	for _, contacts := range i.contacts {
		total += len(contacts)
	}
	return total
}

// CompanyContacts is one company's slice of a batch
type CompanyContacts struct {
	Company  string    `json:"company" yaml:"company"`
	Contacts []Contact `json:"contacts" yaml:"contacts"`
}

// Batch is one outreach round across all companies
type Batch struct {
	Number  int               `json:"number" yaml:"number"`
	Entries []CompanyContacts `json:"entries" yaml:"entries"`
}

// Size returns the number of contacts in the batch
func (b Batch) Size() int {
	n := 0
	for _, e := range b.Entries {
		n += len(e.Contacts)
	}
	return n
}

// Company returns the contacts a company contributed to the batch
func (b Batch) Company(company string) []Contact {
	for _, e := range b.Entries {
		if e.Company == company {
			return e.Contacts
		}
	}
	return nil
}
