package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dannyswat/outreach/internal/email"
)

var smtpTestCmd = &cobra.Command{
	Use:   "smtp-test",
	Short: "Connect and authenticate with the configured transport without sending",
	RunE:  runSMTPTest,
}

func runSMTPTest(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.closeLog()

	timeout := a.cfg.Email.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	sender, err := buildSender(ctx, a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("failed to create email sender: %w", err)
	}

	v, ok := sender.(email.Verifier)
	if !ok {
		return fmt.Errorf("transport %q does not support connection checks", a.cfg.Email.Transport)
	}

	if err := v.Verify(ctx); err != nil {
		if email.IsAuthError(err) {
			return fmt.Errorf("authentication failed for %s, check SENDER_EMAIL and SENDER_PASSWORD (an app password is needed for Gmail): %w", a.cfg.Sender.Email, err)
		}
		return fmt.Errorf("connection failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "connected and authenticated as %s\n", a.cfg.Sender.Email)
	return nil
}
