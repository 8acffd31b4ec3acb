package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dannyswat/outreach/internal/company"
	"github.com/dannyswat/outreach/internal/logger"
	"github.com/dannyswat/outreach/internal/model"
	"github.com/dannyswat/outreach/internal/validation"
)

// utf8BOM prefixes the first cell of CSV files exported as "CSV UTF-8"
const utf8BOM = "\ufeff"

// Required column headers (case-sensitive)
const (
	ColumnName  = "Name"
	ColumnEmail = "Email"
	ColumnRole  = "Role"
)

var requiredColumns = []string{ColumnName, ColumnEmail, ColumnRole}

// ErrInvalidStructure is matched by every StructureError
var ErrInvalidStructure = errors.New("invalid spreadsheet structure")

// StructureError is returned when the spreadsheet lacks required columns or rows
type StructureError struct {
	Missing []string
	Empty   bool
}

func (e *StructureError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%v: missing required columns: %s", ErrInvalidStructure, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%v: spreadsheet has no rows", ErrInvalidStructure)
}

func (e *StructureError) Unwrap() error {
	return ErrInvalidStructure
}

// Report describes one ingestion run
type Report struct {
	Index          *model.CompanyContactIndex
	Rows           int
	InvalidEmail   int
	UnknownCompany int
}

// Accepted returns the number of contacts that made it into the index
func (r *Report) Accepted() int {
	return r.Index.Total()
}

// Ingester reads contact spreadsheets into a company-tagged index
type Ingester struct {
	matcher *company.Matcher
	log     *logger.Logger
}

// NewIngester creates a new Ingester
func NewIngester(matcher *company.Matcher, log *logger.Logger) *Ingester {
	return &Ingester{
		matcher: matcher,
		log:     log.WithComponent("ingest"),
	}
}

// Load reads the spreadsheet at path and returns the contacts grouped by company
func (i *Ingester) Load(ctx context.Context, path string) (*model.CompanyContactIndex, error) {
	report, err := i.LoadReport(ctx, path)
	if err != nil {
		return nil, err
	}
	return report.Index, nil
}

// LoadReport reads the spreadsheet at path. .xlsx/.xlsm files are read with
// excelize (first sheet); anything else is parsed as CSV.
func (i *Ingester) LoadReport(ctx context.Context, path string) (*Report, error) {
	i.log.Info().Str("path", path).Msg("processing contacts file")

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		var f *os.File
		f, err = os.Open(path)
		if err == nil {
			rows, err = readCSV(f)
			f.Close()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read contacts file: %w", err)
	}

	return i.process(ctx, rows)
}

// LoadRows ingests an already-read table whose first row is the header
func (i *Ingester) LoadRows(ctx context.Context, rows [][]string) (*Report, error) {
	return i.process(ctx, rows)
}

func (i *Ingester) process(ctx context.Context, rows [][]string) (*Report, error) {
	if len(rows) == 0 {
		return nil, &StructureError{Missing: requiredColumns}
	}

	colIdx := make(map[string]int, len(rows[0]))
	for idx, h := range rows[0] {
		if idx == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		if _, dup := colIdx[h]; !dup {
			colIdx[h] = idx
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		i.log.Error().Strs("missing", missing).Msg("missing required columns in contacts file")
		return nil, &StructureError{Missing: missing}
	}

	data := rows[1:]
	if len(data) == 0 {
		i.log.Error().Msg("contacts file is empty")
		return nil, &StructureError{Empty: true}
	}

	getCol := func(row []string, col string) string {
		idx := colIdx[col]
		if idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	report := &Report{Index: model.NewCompanyContactIndex(), Rows: len(data)}
	for n, row := range data {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		email := getCol(row, ColumnEmail)
		if !validation.IsValidEmail(email) {
			report.InvalidEmail++
			i.log.Debug().Int("row", n+2).Str("email", email).Msg("skipping row with invalid email")
			continue
		}

		co := i.matcher.IdentifyCompany(email)
		if co == model.CompanyUnknown {
			report.UnknownCompany++
			i.log.Debug().Int("row", n+2).Str("email", email).Msg("skipping row with unknown company")
			continue
		}

		report.Index.Add(co, model.Contact{
			Name:  validation.NormalizeName(getCol(row, ColumnName)),
			Email: strings.TrimSpace(email),
			Role:  getCol(row, ColumnRole),
		})
	}

	i.log.Info().
		Int("rows", report.Rows).
		Int("accepted", report.Accepted()).
		Int("invalid_email", report.InvalidEmail).
		Int("unknown_company", report.UnknownCompany).
		Msg("processed contacts")

	return report, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}
