package email

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCompanies = []string{"amazon", "meta", "google", "apple"}

func newTestManager(t *testing.T) *TemplateManager {
	t.Helper()
	m, err := NewTemplateManager(TemplateOptions{
		Companies: testCompanies,
		Profile:   Profile{Name: "Pat Lee", Headline: "Senior Data Scientist.", Phone: "555-0100", LinkedIn: "https://example.com/pat"},
	})
	require.NoError(t, err)
	return m
}

func TestGetTemplate(t *testing.T) {
	m := newTestManager(t)

	for _, company := range testCompanies {
		for _, typ := range []string{TemplateInitial, TemplateReminder} {
			tpl, err := m.GetTemplate(company, typ)
			require.NoError(t, err)
			assert.Equal(t, company, tpl.Company)
			assert.Equal(t, typ, tpl.Type)
		}
	}

	tpl, err := m.GetTemplate("  AMAZON ", TemplateInitial)
	require.NoError(t, err)
	assert.Equal(t, "amazon", tpl.Company)
}

func TestGetTemplate_UnknownCompany(t *testing.T) {
	m := newTestManager(t)

	_, err := m.GetTemplate("unknown_co", TemplateInitial)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCompany)
	assert.Contains(t, err.Error(), "unknown_co")
}

func TestGetTemplate_InvalidType(t *testing.T) {
	m := newTestManager(t)

	_, err := m.GetTemplate("amazon", "bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTemplateType)

	var tplErr *TemplateError
	require.True(t, errors.As(err, &tplErr))
	assert.Equal(t, "bogus", tplErr.Type)
}

func TestFormatTemplate(t *testing.T) {
	m := newTestManager(t)

	tpl, err := m.GetTemplate("meta", TemplateInitial)
	require.NoError(t, err)

	body, err := m.FormatTemplate(tpl, map[string]string{"name": "Jane Smith"})
	require.NoError(t, err)

	assert.Contains(t, body, "Dear Jane Smith,")
	assert.Contains(t, body, "opportunities at Meta.")
	assert.Contains(t, body, "ColBERT")
	assert.Contains(t, body, "Pat Lee")
	assert.NotContains(t, body, "{{")

	reminder, err := m.GetTemplate("apple", TemplateReminder)
	require.NoError(t, err)
	body, err = m.FormatTemplate(reminder, map[string]string{"name": "Alice Brown"})
	require.NoError(t, err)
	assert.Contains(t, body, "follow up")
	assert.Contains(t, body, "A/B testing")
}

func TestFormatTemplate_MissingSubstitution(t *testing.T) {
	m := newTestManager(t)

	tpl, err := m.GetTemplate("google", TemplateInitial)
	require.NoError(t, err)

	_, err = m.FormatTemplate(tpl, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSubstitution)

	var tplErr *TemplateError
	require.True(t, errors.As(err, &tplErr))
	assert.Equal(t, "name", tplErr.Key)
}

func TestNewTemplateManager_DirOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "initial.tmpl"), []byte("Hi {{.name}} at {{.company}} ({{.team}})"), 0o600))

	m, err := NewTemplateManager(TemplateOptions{Companies: []string{"apple"}, Dir: dir})
	require.NoError(t, err)

	tpl, err := m.GetTemplate("apple", TemplateInitial)
	require.NoError(t, err)

	_, err = m.FormatTemplate(tpl, map[string]string{"name": "Tim"})
	var tplErr *TemplateError
	require.True(t, errors.As(err, &tplErr))
	assert.Equal(t, "team", tplErr.Key)

	body, err := m.FormatTemplate(tpl, map[string]string{"name": "Tim", "team": "ML"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Tim at Apple (ML)", body)

	// reminder keeps the built-in body
	reminder, err := m.GetTemplate("apple", TemplateReminder)
	require.NoError(t, err)
	body, err = m.FormatTemplate(reminder, map[string]string{"name": "Tim"})
	require.NoError(t, err)
	assert.Contains(t, body, "Dear Tim,")
}

func TestNewTemplateManager_AchievementOverride(t *testing.T) {
	m, err := NewTemplateManager(TemplateOptions{
		Companies:    []string{"amazon"},
		Achievements: map[string]string{"amazon": "- Shipped things"},
	})
	require.NoError(t, err)

	tpl, err := m.GetTemplate("amazon", TemplateInitial)
	require.NoError(t, err)
	body, err := m.FormatTemplate(tpl, map[string]string{"name": "A"})
	require.NoError(t, err)
	assert.Contains(t, body, "- Shipped things")
	assert.NotContains(t, body, "LLM-based")
}

func TestCompanyDisplayName(t *testing.T) {
	assert.Equal(t, "Amazon", CompanyDisplayName("amazon"))
	assert.Equal(t, "Meta", CompanyDisplayName("META"))
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("Dear Jane,\n\n- one\n- two\n\n<script>x</script>")
	require.NoError(t, err)

	assert.Contains(t, html, "<p>Dear Jane,</p>")
	assert.Contains(t, html, "<li>one</li>")
	assert.NotContains(t, html, "<script>")
}
