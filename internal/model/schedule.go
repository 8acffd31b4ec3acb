package model

import "time"

// PassType distinguishes the initial send from the follow-up
type PassType string

const (
	PassInitial  PassType = "initial"
	PassReminder PassType = "reminder"
)

// ScheduledEmail is one (contact, pass) send planned for a point in time.
// Values are never mutated; a retry is a new ScheduledEmail with a higher Attempt.
type ScheduledEmail struct {
	ID             string    `json:"id" yaml:"id"`
	RecipientEmail string    `json:"recipientEmail" yaml:"recipient_email"`
	RecipientName  string    `json:"recipientName" yaml:"recipient_name"`
	Company        string    `json:"company" yaml:"company"`
	IsReminder     bool      `json:"isReminder" yaml:"is_reminder"`
	BatchNum       int       `json:"batchNum" yaml:"batch_num"`
	SendTime       time.Time `json:"sendTime" yaml:"send_time"`
	Attempt        int       `json:"attempt" yaml:"attempt"`
}

// Pass returns the pass type of the scheduled email
func (s ScheduledEmail) Pass() PassType {
	if s.IsReminder {
		return PassReminder
	}
	return PassInitial
}

// Due reports whether the send time has arrived
func (s ScheduledEmail) Due(now time.Time) bool {
	return !now.Before(s.SendTime)
}

// FailureRecord is one failed send attempt for a recipient
type FailureRecord struct {
	Time     time.Time `json:"time" yaml:"time"`
	Error    string    `json:"error" yaml:"error"`
	BatchNum int       `json:"batchNum" yaml:"batch_num"`
}

// SummaryEntry is one line of the schedule summary
type SummaryEntry struct {
	Recipient string   `json:"recipient" yaml:"recipient"`
	Type      PassType `json:"type" yaml:"type"`
	Batch     int      `json:"batch" yaml:"batch"`
	Time      string   `json:"time" yaml:"time"`
}

// DaySchedule groups the summary entries that share a send date
type DaySchedule struct {
	Date    string         `json:"date" yaml:"date"`
	Entries []SummaryEntry `json:"entries" yaml:"entries"`
}
