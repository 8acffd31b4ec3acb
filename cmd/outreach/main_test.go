package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dannyswat/outreach/internal/config"
	"github.com/dannyswat/outreach/internal/email"
	"github.com/dannyswat/outreach/internal/logger"
	"github.com/dannyswat/outreach/internal/model"
)

func testConfig(transport string) *config.Config {
	return &config.Config{
		Outreach: config.OutreachConfig{BatchSize: 40, CompanyQuota: 2, ReminderDelay: 2, PollInterval: time.Second},
		Email: config.EmailConfig{
			Provider:  "gmail",
			Transport: transport,
			Providers: map[string]config.ProviderConfig{
				"gmail": {SMTPServer: "smtp.gmail.com", SMTPPort: 587, DailyLimit: 500, BatchLimit: 100},
			},
			Resend: config.ResendConfig{APIKey: "re_test"},
		},
		Sender:  config.SenderConfig{Email: "me@example.com", Password: "app-password"},
		Profile: config.ProfileConfig{Name: "Pat Lee"},
	}
}

func TestBuildSender(t *testing.T) {
	ctx := context.Background()

	s, err := buildSender(ctx, testConfig(config.TransportSMTP), logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &email.SMTPSender{}, s)

	s, err = buildSender(ctx, testConfig(config.TransportResend), logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &email.ResendSender{}, s)

	s, err = buildSender(ctx, testConfig(config.TransportLog), logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &email.LogSender{}, s)

	_, err = buildSender(ctx, testConfig("pigeon"), logger.Nop())
	assert.Error(t, err)

	noCreds := testConfig(config.TransportSMTP)
	noCreds.Sender = config.SenderConfig{}
	_, err = buildSender(ctx, noCreds, logger.Nop())
	assert.Error(t, err)
}

func TestNewAppWithConfig_Invalid(t *testing.T) {
	cfg := testConfig(config.TransportLog)
	cfg.Outreach.CompanyQuota = 0

	_, err := newAppWithConfig(cfg)
	assert.ErrorContains(t, err, "company_quota")
}

func testSchedule() ([]model.Batch, []model.DaySchedule) {
	batches := []model.Batch{{
		Number: 1,
		Entries: []model.CompanyContacts{
			{Company: "amazon", Contacts: []model.Contact{{Email: "a@amazon.com"}}},
			{Company: "meta", Contacts: []model.Contact{{Email: "m@meta.com"}}},
		},
	}}
	days := []model.DaySchedule{{
		Date: "2025-03-10",
		Entries: []model.SummaryEntry{
			{Recipient: "a@amazon.com", Type: model.PassInitial, Batch: 1, Time: "09:00:00"},
			{Recipient: "m@meta.com", Type: model.PassInitial, Batch: 1, Time: "09:00:00"},
		},
	}}
	return batches, days
}

func TestWritePlan_Text(t *testing.T) {
	batches, days := testSchedule()

	var buf bytes.Buffer
	require.NoError(t, writePlan(&buf, "text", batches, days))

	out := buf.String()
	assert.Contains(t, out, "1 batches")
	assert.Contains(t, out, "batch 1: 2 contacts")
	assert.Contains(t, out, "2025-03-10 (2 emails)")
	assert.Contains(t, out, "a@amazon.com")
}

func TestWritePlan_JSON(t *testing.T) {
	batches, days := testSchedule()

	var buf bytes.Buffer
	require.NoError(t, writePlan(&buf, "json", batches, days))

	var out planOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Batches, 1)
	assert.Equal(t, map[string]int{"amazon": 1, "meta": 1}, out.Batches[0].Companies)
	require.Len(t, out.Schedule, 1)
	assert.Len(t, out.Schedule[0].Entries, 2)
}

func TestWritePlan_YAML(t *testing.T) {
	batches, days := testSchedule()

	var buf bytes.Buffer
	require.NoError(t, writePlan(&buf, "yaml", batches, days))
	assert.Contains(t, buf.String(), "recipient: a@amazon.com")
	assert.Contains(t, buf.String(), "2025-03-10")
}
