package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dannyswat/outreach/internal/company"
	"github.com/dannyswat/outreach/internal/logger"
)

const sampleCSV = `Name,Email,Role,Notes
john doe,john.doe@amazon.com,Data Scientist,met at conf
  jane   smith ,jane.smith@meta.com,ML Engineer,
bob wilson,bob.wilson@google.com,Research Scientist,
alice brown,alice.brown@apple.com,Data Analyst,
invalid user,not-an-email,Engineer,
linked user,someone@linkedin.com,Recruiter,
other user,other@example.com,Engineer,
`

func newTestIngester() *Ingester {
	return NewIngester(company.NewMatcher(nil), logger.Nop())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeXLSX(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad_CSV(t *testing.T) {
	ing := newTestIngester()

	report, err := ing.LoadReport(context.Background(), writeFile(t, "contacts.csv", sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 7, report.Rows)
	assert.Equal(t, 4, report.Accepted())
	assert.Equal(t, 2, report.InvalidEmail)
	assert.Equal(t, 1, report.UnknownCompany)

	idx := report.Index
	assert.Equal(t, []string{"amazon", "meta", "google", "apple"}, idx.Companies())

	meta := idx.Contacts("meta")
	require.Len(t, meta, 1)
	assert.Equal(t, "Jane Smith", meta[0].Name)
	assert.Equal(t, "jane.smith@meta.com", meta[0].Email)
	assert.Equal(t, "ML Engineer", meta[0].Role)
}

func TestLoad_PreservesRowOrder(t *testing.T) {
	ing := newTestIngester()

	idx, err := ing.Load(context.Background(), writeFile(t, "contacts.csv", `Email,Role,Name
c@amazon.com,r,c
a@amazon.com,r,a
b@amazon.com,r,b
`))
	require.NoError(t, err)

	var emails []string
	for _, c := range idx.Contacts("amazon") {
		emails = append(emails, c.Email)
	}
	assert.Equal(t, []string{"c@amazon.com", "a@amazon.com", "b@amazon.com"}, emails)
}

func TestLoad_XLSX(t *testing.T) {
	ing := newTestIngester()

	path := writeXLSX(t, [][]any{
		{"Name", "Email", "Role"},
		{"JOHN DOE", "john.doe@a2z.com", "Data Scientist"},
		{"sam", "sam@gmail.com", "Student"},
		{"no role", "norole@icloud.com"},
	})

	idx, err := ing.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Total())
	require.Len(t, idx.Contacts("amazon"), 1)
	assert.Equal(t, "John Doe", idx.Contacts("amazon")[0].Name)

	// personal gmail addresses are grouped under google
	require.Len(t, idx.Contacts("google"), 1)
	assert.Equal(t, "sam@gmail.com", idx.Contacts("google")[0].Email)

	require.Len(t, idx.Contacts("apple"), 1)
	assert.Empty(t, idx.Contacts("apple")[0].Role)
}

func TestLoad_MissingColumns(t *testing.T) {
	ing := newTestIngester()

	_, err := ing.Load(context.Background(), writeFile(t, "contacts.csv", "Name,Email\nJohn,john@amazon.com\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStructure)

	var structErr *StructureError
	require.True(t, errors.As(err, &structErr))
	assert.Equal(t, []string{"Role"}, structErr.Missing)
}

func TestLoad_HeadersAreCaseSensitive(t *testing.T) {
	ing := newTestIngester()

	_, err := ing.Load(context.Background(), writeFile(t, "contacts.csv", "name,email,role\nJohn,john@amazon.com,x\n"))
	assert.ErrorIs(t, err, ErrInvalidStructure)
}

func TestLoad_CSVWithByteOrderMark(t *testing.T) {
	ing := newTestIngester()

	idx, err := ing.Load(context.Background(), writeFile(t, "contacts.csv", "\ufeffName,Email,Role\nJane,jane@amazon.com,DS\n"))
	require.NoError(t, err)
	require.Len(t, idx.Contacts("amazon"), 1)
	assert.Equal(t, "Jane", idx.Contacts("amazon")[0].Name)
}

func TestLoad_Empty(t *testing.T) {
	ing := newTestIngester()

	_, err := ing.Load(context.Background(), writeFile(t, "contacts.csv", "Name,Email,Role\n"))
	require.Error(t, err)

	var structErr *StructureError
	require.True(t, errors.As(err, &structErr))
	assert.True(t, structErr.Empty)

	_, err = ing.Load(context.Background(), writeFile(t, "contacts.csv", ""))
	assert.ErrorIs(t, err, ErrInvalidStructure)
}

func TestLoad_NoUsableRows(t *testing.T) {
	ing := newTestIngester()

	report, err := ing.LoadRows(context.Background(), [][]string{
		{"Name", "Email", "Role"},
		{"x", "x@example.com", "r"},
		{"y", "", "r"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Accepted())
	assert.Empty(t, report.Index.Companies())
}

func TestLoad_FileNotFound(t *testing.T) {
	ing := newTestIngester()

	_, err := ing.Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrInvalidStructure)
}

func TestLoad_Cancelled(t *testing.T) {
	ing := newTestIngester()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ing.LoadRows(ctx, [][]string{
		{"Name", "Email", "Role"},
		{"a", "a@amazon.com", "r"},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
