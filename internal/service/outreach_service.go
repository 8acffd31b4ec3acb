package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dannyswat/outreach/internal/config"
	"github.com/dannyswat/outreach/internal/email"
	"github.com/dannyswat/outreach/internal/ingest"
	"github.com/dannyswat/outreach/internal/logger"
	"github.com/dannyswat/outreach/internal/model"
	"github.com/dannyswat/outreach/internal/repository"
)

// Outcome is the result of a send attempt that did not fail
type Outcome string

const (
	OutcomeSent              Outcome = "sent"
	OutcomeSkippedDuplicate  Outcome = "skipped_duplicate"
	OutcomeSkippedDailyLimit Outcome = "skipped_daily_limit"
)

// Outreach errors
var (
	ErrNoBatches          = errors.New("no batches to schedule")
	ErrCoolingInterrupted = errors.New("cooling period interrupted")
)

const (
	day         = 24 * time.Hour
	dateLayout  = "2006-01-02"
	clockLayout = "15:04:05"
)

// OutreachService schedules batches into initial and reminder passes and
// delivers them. It owns the pending queue, the send ledger and the daily
// counter; one mutex guards all of them.
type OutreachService struct {
	cfg       *config.Config
	provider  config.ProviderConfig
	ingester  *ingest.Ingester
	planner   *BatchPlanner
	templates *email.TemplateManager
	sender    email.Sender
	log       *logger.Logger

	runID      string
	attachment *email.Attachment
	limiter    *rate.Limiter
	now        func() time.Time

	mu         sync.Mutex
	queue      *repository.ScheduleRepository
	ledger     *repository.LedgerRepository
	batches    []model.Batch
	dailyCount int
	dailyDate  string
	lastSend   time.Time
}

// NewOutreachService creates a new OutreachService
func NewOutreachService(
	cfg *config.Config,
	ingester *ingest.Ingester,
	planner *BatchPlanner,
	templates *email.TemplateManager,
	sender email.Sender,
	log *logger.Logger,
) (*OutreachService, error) {
	provider, err := cfg.ActiveProvider()
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	s := &OutreachService{
		cfg:       cfg,
		provider:  provider,
		ingester:  ingester,
		planner:   planner,
		templates: templates,
		sender:    sender,
		log:       log.WithComponent("outreach").WithRunID(runID),
		runID:     runID,
		limiter:   newCoolingLimiter(cfg.Outreach.CoolingDuration()),
		now:       time.Now,
		queue:     repository.NewScheduleRepository(),
		ledger:    repository.NewLedgerRepository(),
	}

	s.attachment, err = loadAttachment(cfg.Paths.AttachmentPath())
	if err != nil {
		return nil, err
	}
	if s.attachment == nil && cfg.Paths.Attachment != "" {
		s.log.Warn().Str("path", cfg.Paths.AttachmentPath()).Msg("attachment not found, sending without it")
	}

	return s, nil
}

// newCoolingLimiter allows one send immediately and one per cooling period after that
func newCoolingLimiter(cooling time.Duration) *rate.Limiter {
	if cooling <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(cooling), 1)
}

// RunID returns the identifier of this run
func (s *OutreachService) RunID() string {
	return s.runID
}

// ScheduleEmails loads the configured contacts file, plans batches and
// schedules both passes for every batch
func (s *OutreachService) ScheduleEmails(ctx context.Context) ([]model.Batch, error) {
	path := s.cfg.Paths.ContactsPath()
	index, err := s.ingester.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}

	batches := s.planner.CreateBatches(index, s.cfg.Outreach.CompanyQuota)
	if len(batches) == 0 {
		return nil, ErrNoBatches
	}

	if _, err := s.ScheduleBatches(batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// ScheduleBatches appends one ScheduledEmail per (contact, pass) to the
// pending queue. Batch n sends its initial pass n-1 days from now. Its
// reminder goes out reminder_delay days after that, but only for batches
// 1..N-2. All send times are fixed here.
func (s *OutreachService) ScheduleBatches(batches []model.Batch) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	total := len(batches)
	scheduled := 0

	for i, batch := range batches {
		n := i + 1
		initialAt := now.Add(time.Duration(n-1) * day)
		added, err := s.scheduleBatch(batch, n, false, initialAt)
		if err != nil {
			return scheduled, err
		}
		scheduled += added

		if n <= total-2 {
			reminderAt := initialAt.Add(time.Duration(s.cfg.Outreach.ReminderDelay) * day)
			added, err := s.scheduleBatch(batch, n, true, reminderAt)
			if err != nil {
				return scheduled, err
			}
			scheduled += added
		}
	}

	s.batches = append(s.batches, batches...)
	s.log.Info().Int("batches", total).Int("scheduled", scheduled).Msg("scheduled emails")
	return scheduled, nil
}

func (s *OutreachService) scheduleBatch(batch model.Batch, n int, reminder bool, at time.Time) (int, error) {
	pass := model.PassInitial
	if reminder {
		pass = model.PassReminder
	}
	s.log.Info().
		Int("batch", n).
		Str("pass", string(pass)).
		Time("send_time", at).
		Int("contacts", batch.Size()).
		Msg("scheduling batch")

	added := 0
	for _, entry := range batch.Entries {
		for _, c := range entry.Contacts {
			err := s.queue.Add(model.ScheduledEmail{
				ID:             uuid.New().String(),
				RecipientEmail: c.Email,
				RecipientName:  c.Name,
				Company:        entry.Company,
				IsReminder:     reminder,
				BatchNum:       n,
				SendTime:       at,
				Attempt:        1,
			})
			if err != nil {
				return added, fmt.Errorf("failed to schedule %s: %w", c.Email, err)
			}
			added++
		}
	}
	return added, nil
}

// Batches returns the batches scheduled so far
func (s *OutreachService) Batches() []model.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Batch, len(s.batches))
	copy(out, s.batches)
	return out
}

// Pending returns the scheduled emails that are neither sent nor abandoned
func (s *OutreachService) Pending() []model.ScheduledEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.All()
}

// DailyCount returns the number of emails sent on the current day
func (s *OutreachService) DailyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover(s.now())
	return s.dailyCount
}

// Failures returns the failure history of a recipient
func (s *OutreachService) Failures(recipient string) []model.FailureRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Failures(recipient)
}

// GetScheduleSummary groups the pending queue by send date. Dates are in
// ascending order and entries within a date are ordered by time of day.
func (s *OutreachService) GetScheduleSummary() []model.DaySchedule {
	s.mu.Lock()
	items := s.queue.All()
	s.mu.Unlock()

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SendTime.Before(items[j].SendTime)
	})

	var days []model.DaySchedule
	for _, item := range items {
		date := item.SendTime.Format(dateLayout)
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, model.DaySchedule{Date: date})
		}
		last := &days[len(days)-1]
		last.Entries = append(last.Entries, model.SummaryEntry{
			Recipient: item.RecipientEmail,
			Type:      item.Pass(),
			Batch:     item.BatchNum,
			Time:      item.SendTime.Format(clockLayout),
		})
	}
	return days
}

// Send delivers one scheduled email. Already-sent recipients and sends past
// the daily limit are skipped with a warning and no error. Any other failure
// is recorded in the recipient's failure history and returned.
//
// The cooling period is waited out before the transport is called.
func (s *OutreachService) Send(ctx context.Context, item model.ScheduledEmail) (Outcome, error) {
	log := s.log.WithRecipient(item.RecipientEmail, item.BatchNum)

	s.mu.Lock()
	if outcome, skip := s.checkSkip(log, item); skip {
		s.mu.Unlock()
		return outcome, nil
	}
	msg, err := s.buildMessage(item)
	if err != nil {
		s.recordFailure(log, item, err)
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCoolingInterrupted, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the ledger may have changed while waiting
	if outcome, skip := s.checkSkip(log, item); skip {
		return outcome, nil
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		err = fmt.Errorf("failed to send email to %s: %w", item.RecipientEmail, err)
		s.recordFailure(log, item, err)
		return "", err
	}

	now := s.now()
	if err := s.ledger.MarkSent(repository.SentRecord{
		Email:    item.RecipientEmail,
		BatchNum: item.BatchNum,
		Reminder: item.IsReminder,
		SentAt:   now,
	}); err != nil {
		return "", fmt.Errorf("failed to record send: %w", err)
	}
	s.rollover(now)
	s.dailyCount++
	s.lastSend = now

	log.Info().
		Str("pass", string(item.Pass())).
		Str("company", item.Company).
		Int("daily_count", s.dailyCount).
		Msg("email sent")

	return OutcomeSent, nil
}

// checkSkip must be called with s.mu held
func (s *OutreachService) checkSkip(log *logger.Logger, item model.ScheduledEmail) (Outcome, bool) {
	if s.ledger.IsSent(item.RecipientEmail) {
		log.Warn().Str("pass", string(item.Pass())).Msg("email already sent to recipient, skipping")
		return OutcomeSkippedDuplicate, true
	}

	s.rollover(s.now())
	if s.dailyCount >= s.provider.DailyLimit {
		log.Warn().Int("daily_limit", s.provider.DailyLimit).Msg("daily email limit reached, skipping")
		return OutcomeSkippedDailyLimit, true
	}
	return "", false
}

// rollover resets the daily counter when the calendar day changes.
// Must be called with s.mu held.
func (s *OutreachService) rollover(now time.Time) {
	date := now.Format(dateLayout)
	if s.dailyDate != date {
		s.dailyDate = date
		s.dailyCount = 0
	}
}

// recordFailure must be called with s.mu held
func (s *OutreachService) recordFailure(log *logger.Logger, item model.ScheduledEmail, err error) {
	s.ledger.RecordFailure(item.RecipientEmail, model.FailureRecord{
		Time:     s.now(),
		Error:    err.Error(),
		BatchNum: item.BatchNum,
	})
	log.Error().Err(err).Int("attempt", item.Attempt).Msg("failed to send email")
}

func (s *OutreachService) buildMessage(item model.ScheduledEmail) (email.Message, error) {
	typ := email.TemplateInitial
	if item.IsReminder {
		typ = email.TemplateReminder
	}

	tpl, err := s.templates.GetTemplate(item.Company, typ)
	if err != nil {
		return email.Message{}, err
	}
	body, err := s.templates.FormatTemplate(tpl, map[string]string{"name": item.RecipientName})
	if err != nil {
		return email.Message{}, err
	}

	msg := email.Message{
		To:         item.RecipientEmail,
		Subject:    Subject(s.cfg.Outreach.SubjectTopic, item.Company, item.IsReminder),
		TextBody:   body,
		Attachment: s.attachment,
	}
	if html, err := email.RenderHTML(body); err == nil {
		msg.HTMLBody = html
	} else {
		s.log.Warn().Err(err).Msg("sending plain text only")
	}
	return msg, nil
}

// Subject builds the subject line for a pass
func Subject(topic, company string, reminder bool) string {
	subject := topic + " at " + email.CompanyDisplayName(company)
	if reminder {
		return "Following up: " + subject
	}
	return subject
}

// Run sends due emails until the pending queue is empty or ctx is cancelled.
// The queue is checked once immediately and then on every poll interval.
func (s *OutreachService) Run(ctx context.Context) error {
	s.log.Info().
		Int("pending", len(s.Pending())).
		Dur("poll_interval", s.cfg.Outreach.PollInterval).
		Dur("cooling_period", s.cfg.Outreach.CoolingDuration()).
		Msg("send loop started")

	ticker := time.NewTicker(s.cfg.Outreach.PollInterval)
	defer ticker.Stop()

	for {
		if err := s.ProcessDue(ctx); err != nil {
			return err
		}

		s.mu.Lock()
		remaining := s.queue.Len()
		next, _ := s.queue.Next()
		s.mu.Unlock()

		if remaining == 0 {
			s.log.Info().Msg("send loop finished, queue is empty")
			return nil
		}
		s.log.Debug().Int("pending", remaining).Time("next", next).Msg("waiting for due emails")

		select {
		case <-ctx.Done():
			s.log.Info().Int("pending", remaining).Msg("send loop cancelled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessDue sends every item whose send time has arrived and removes it
// from the queue. Send failures are recorded and do not stop the pass; only
// cancellation does.
func (s *OutreachService) ProcessDue(ctx context.Context) error {
	s.mu.Lock()
	due := s.queue.Due(s.now())
	s.mu.Unlock()

	if len(due) == 0 {
		return nil
	}
	s.log.Info().Int("due", len(due)).Msg("processing due emails")

	var sent, skipped, failed int
	for _, item := range due {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := s.Send(ctx, item)
		if errors.Is(err, ErrCoolingInterrupted) {
			// left in the queue; it was never attempted
			return err
		}

		s.mu.Lock()
		if rmErr := s.queue.Remove(item.ID); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("id", item.ID).Msg("scheduled email already removed")
		}
		if err != nil {
			failed++
			s.scheduleRetry(item, err)
		} else if outcome == OutcomeSent {
			sent++
		} else {
			skipped++
		}
		s.mu.Unlock()
	}

	s.log.Info().Int("sent", sent).Int("skipped", skipped).Int("failed", failed).Msg("processed due emails")
	return nil
}

// scheduleRetry re-queues a failed transport attempt when retry is enabled.
// Template and authentication failures are not retried. Must be called with s.mu held.
func (s *OutreachService) scheduleRetry(item model.ScheduledEmail, err error) {
	retry := s.cfg.Retry
	if !retry.Enabled || item.Attempt >= retry.MaxAttempts {
		return
	}
	var te *email.TransportError
	if !errors.As(err, &te) || te.Auth {
		return
	}

	next := item
	next.ID = uuid.New().String()
	next.Attempt = item.Attempt + 1
	next.SendTime = s.now().Add(RetryDelay(retry, item.Attempt))

	if addErr := s.queue.Add(next); addErr != nil {
		s.log.Error().Err(addErr).Str("recipient", item.RecipientEmail).Msg("failed to re-queue email")
		return
	}
	s.log.Info().
		Str("recipient", item.RecipientEmail).
		Int("attempt", next.Attempt).
		Time("send_time", next.SendTime).
		Msg("re-queued failed email")
}

// RetryDelay returns the wait before the attempt that follows attempt
func RetryDelay(retry config.RetryConfig, attempt int) time.Duration {
	if !retry.ExponentialBackoff || attempt < 1 {
		return retry.Delay
	}
	return retry.Delay * time.Duration(1<<(attempt-1))
}

func loadAttachment(path string) (*email.Attachment, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &email.Attachment{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
