package email

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"text/template/parse"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Template types
const (
	TemplateInitial  = "initial"
	TemplateReminder = "reminder"
)

// Template errors
var (
	ErrUnknownCompany      = errors.New("no template found for company")
	ErrInvalidTemplateType = errors.New("invalid template type")
	ErrMissingSubstitution = errors.New("missing required template value")
)

// TemplateError carries the company, type or key a template lookup or render failed on
type TemplateError struct {
	Err     error
	Company string
	Type    string
	Key     string
}

func (e *TemplateError) Error() string {
	switch {
	case errors.Is(e.Err, ErrMissingSubstitution):
		return fmt.Sprintf("%v: %s", e.Err, e.Key)
	case errors.Is(e.Err, ErrInvalidTemplateType):
		return fmt.Sprintf("%v: %s", e.Err, e.Type)
	default:
		return fmt.Sprintf("%v: %s", e.Err, e.Company)
	}
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

const initialBody = `Dear {{.name}},

I hope this email finds you well. My name is {{.sender_name}}, and I'm reaching out regarding potential data science opportunities at {{.company}}.

{{.sender_headline}} I've gained valuable experience in:

{{.achievements}}

I would be grateful for the opportunity to discuss how my skills and experience could contribute to {{.company}}'s data science initiatives. I've attached my resume for your reference.

Thank you for your time and consideration.

Best regards,
{{.sender_name}}
{{.sender_phone}}
LinkedIn: {{.sender_linkedin}}
`

const reminderBody = `Dear {{.name}},

I hope you're doing well. I wanted to follow up on my previous email regarding data science opportunities at {{.company}}.

Given my background in AI/ML and my current work leading AI development projects, I believe I could bring valuable expertise to {{.company}}'s data science initiatives.

{{.achievements}}

I would welcome the opportunity to discuss how my experience aligns with your team's needs.

Best regards,
{{.sender_name}}
{{.sender_phone}}
`

// DefaultAchievements are the company-specific bullet lists
var DefaultAchievements = map[string]string{
	"amazon": `- Created LLM-based reasoning engines improving compliance metrics by 30%
- Developed ML classification systems achieving 75% accuracy with distributed computing
- Built scalable ETL pipelines reducing processing time by 65%`,

	"meta": `- Engineered AI chatbots reducing query latency by 40% using ColBERT and cross-encoder reranking
- Implemented advanced embedding techniques for semantic search and document classification
- Led AI development teams increasing sprint velocity by 25%`,

	"google": `- Developed vector embedding systems for time series analysis using HNSW algorithm
- Created ML models with 88% accuracy in customer lifetime value prediction
- Implemented distributed computing solutions using Ray framework`,

	"apple": `- Built end-to-end A/B testing pipelines improving conversion by 23%
- Developed custom RAG systems with advanced chunking strategies
- Created ML-based notification systems increasing conversion rates by 15%`,
}

// Profile is the sender's signature data
type Profile struct {
	Name     string
	Headline string
	Phone    string
	LinkedIn string
}

// TemplateOptions configures a TemplateManager
type TemplateOptions struct {
	// Companies lists the companies that get templates
	Companies []string
	Profile   Profile
	// Achievements overrides DefaultAchievements per company
	Achievements map[string]string
	// Dir may hold initial.tmpl and reminder.tmpl replacing the built-in bodies
	Dir string
}

// Template is one company's body for one pass. Values the caller does not
// need to supply (company, achievements, signature) are bound at construction.
type Template struct {
	Company string
	Type    string

	tmpl     *template.Template
	defaults map[string]string
	keys     []string
}

// TemplateManager holds the initial and reminder templates for every company
type TemplateManager struct {
	templates map[string]map[string]*Template
	companies []string
}

// NewTemplateManager builds all templates once; they are read-only afterwards.
func NewTemplateManager(opts TemplateOptions) (*TemplateManager, error) {
	bodies := map[string]string{
		TemplateInitial:  initialBody,
		TemplateReminder: reminderBody,
	}
	if opts.Dir != "" {
		for typ := range bodies {
			data, err := os.ReadFile(filepath.Join(opts.Dir, typ+".tmpl"))
			if err == nil {
				bodies[typ] = string(data)
			} else if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read %s template: %w", typ, err)
			}
		}
	}

	m := &TemplateManager{templates: make(map[string]map[string]*Template)}
	for _, company := range opts.Companies {
		company = strings.ToLower(company)
		achievements, ok := opts.Achievements[company]
		if !ok {
			achievements = DefaultAchievements[company]
		}

		defaults := map[string]string{
			"company":         CompanyDisplayName(company),
			"achievements":    achievements,
			"sender_name":     opts.Profile.Name,
			"sender_headline": opts.Profile.Headline,
			"sender_phone":    opts.Profile.Phone,
			"sender_linkedin": opts.Profile.LinkedIn,
		}

		m.templates[company] = make(map[string]*Template, len(bodies))
		for typ, body := range bodies {
			tmpl, err := template.New(company + "_" + typ).Option("missingkey=error").Parse(body)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s template: %w", typ, err)
			}
			m.templates[company][typ] = &Template{
				Company:  company,
				Type:     typ,
				tmpl:     tmpl,
				defaults: defaults,
				keys:     placeholders(tmpl),
			}
		}
		m.companies = append(m.companies, company)
	}

	return m, nil
}

// Companies returns the companies that have templates
func (m *TemplateManager) Companies() []string {
	out := make([]string, len(m.companies))
	copy(out, m.companies)
	return out
}

// GetTemplate returns the template for a company (case-insensitive) and type
func (m *TemplateManager) GetTemplate(company, templateType string) (*Template, error) {
	byType, ok := m.templates[strings.ToLower(strings.TrimSpace(company))]
	if !ok {
		return nil, &TemplateError{Err: ErrUnknownCompany, Company: company, Type: templateType}
	}
	t, ok := byType[templateType]
	if !ok {
		return nil, &TemplateError{Err: ErrInvalidTemplateType, Company: company, Type: templateType}
	}
	return t, nil
}

// FormatTemplate renders a template. Every placeholder must be resolved by the
// substitutions or the values bound at construction.
func (m *TemplateManager) FormatTemplate(t *Template, subs map[string]string) (string, error) {
	data := make(map[string]string, len(t.defaults)+len(subs))
	for k, v := range t.defaults {
		data[k] = v
	}
	for k, v := range subs {
		data[k] = v
	}

	for _, key := range t.keys {
		if _, ok := data[key]; !ok {
			return "", &TemplateError{Err: ErrMissingSubstitution, Company: t.Company, Type: t.Type, Key: key}
		}
	}

	var b strings.Builder
	if err := t.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render %s template for %s: %w", t.Type, t.Company, err)
	}
	return b.String(), nil
}

// CompanyDisplayName title-cases a company identifier
func CompanyDisplayName(company string) string {
	return cases.Title(language.English).String(company)
}

// placeholders returns the top-level keys a template references, sorted
func placeholders(t *template.Template) []string {
	keys := make(map[string]struct{})
	if t.Tree != nil {
		collectKeys(t.Tree.Root, keys)
	}
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func collectKeys(node parse.Node, keys map[string]struct{}) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			collectKeys(child, keys)
		}
	case *parse.ActionNode:
		collectKeys(n.Pipe, keys)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			for _, arg := range cmd.Args {
				collectKeys(arg, keys)
			}
		}
	case *parse.FieldNode:
		if len(n.Ident) > 0 {
			keys[n.Ident[0]] = struct{}{}
		}
	case *parse.IfNode:
		collectBranch(&n.BranchNode, keys)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, keys)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, keys)
	}
}

func collectBranch(b *parse.BranchNode, keys map[string]struct{}) {
	collectKeys(b.Pipe, keys)
	collectKeys(b.List, keys)
	collectKeys(b.ElseList, keys)
}
