package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dannyswat/outreach/internal/model"
	"github.com/dannyswat/outreach/internal/repository"
)

// Report is the end-of-run snapshot of the ledger and the pending queue
type Report struct {
	RunID       string                           `yaml:"run_id" json:"runId"`
	GeneratedAt time.Time                        `yaml:"generated_at" json:"generatedAt"`
	Provider    string                           `yaml:"provider" json:"provider"`
	DailyCount  int                              `yaml:"daily_count" json:"dailyCount"`
	LastSend    *time.Time                       `yaml:"last_send,omitempty" json:"lastSend,omitempty"`
	Batches     int                              `yaml:"batches" json:"batches"`
	Sent        []repository.SentRecord          `yaml:"sent" json:"sent"`
	Failures    map[string][]model.FailureRecord `yaml:"failures" json:"failures"`
	Pending     []model.ScheduledEmail           `yaml:"pending" json:"pending"`
}

// Report returns a snapshot of the run so far
func (s *OutreachService) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Report{
		RunID:       s.runID,
		GeneratedAt: s.now(),
		Provider:    s.cfg.Email.Provider,
		DailyCount:  s.dailyCount,
		Batches:     len(s.batches),
		Sent:        s.ledger.SentList(),
		Failures:    s.ledger.AllFailures(),
		Pending:     s.queue.All(),
	}
	if !s.lastSend.IsZero() {
		last := s.lastSend
		r.LastSend = &last
	}
	return r
}

// WriteReport writes the run report as YAML to <dir>/report-<run_id>.yaml
// and returns the path
func WriteReport(dir string, r Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, "report-"+r.RunID+".yaml")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
