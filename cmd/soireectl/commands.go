package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/rhuss/soiree/pkg/app"
	"github.com/rhuss/soiree/pkg/config"
	"github.com/rhuss/soiree/pkg/invitation"
	"github.com/rhuss/soiree/pkg/submission"
)

func newValidateCommand() *cobra.Command {
	var (
		guests string
		dedupe bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a comma-separated guest list and print the normalized addresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs, err := invitation.ValidateGuestList(guests)
			if err != nil {
				var vErr *invitation.ValidationError
				if errors.As(err, &vErr) && len(vErr.Offenders) > 0 {
					for _, o := range vErr.Offenders {
						fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %s\n", o)
					}
				}
				return err
			}
			if dedupe {
				addrs = invitation.Dedupe(addrs)
			}
			for _, a := range addrs {
				fmt.Fprintln(cmd.OutOrStdout(), a)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&guests, "guests", "", "Comma-separated guest email addresses")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "Drop repeated addresses (case-insensitive)")
	_ = cmd.MarkFlagRequired("guests")
	return cmd
}

func newCreateCommand() *cobra.Command {
	var (
		fields     invitation.Fields
		configPath string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit an invitation request and print the resulting state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			b, err := app.NewBackend(cfg.Backend)
			if err != nil {
				return err
			}
			factory, err := app.ControllerFactory(b, cfg, slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})))
			if err != nil {
				return err
			}
			ctrl, err := factory()
			if err != nil {
				return err
			}

			if err := ctrl.Submit(ctx, fields); err != nil {
				return err
			}

			waitCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			state, err := ctrl.Wait(waitCtx)
			if err != nil {
				ctrl.Reset()
				return fmt.Errorf("waiting for invitation: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(state); err != nil {
				return err
			}
			if state.Status == submission.StatusFailed {
				return state.Failure
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&fields.EventType, "event-type", "", "Event type (wedding, birthday, corporate, anniversary, graduation)")
	f.StringVar(&fields.HostNames, "hosts", "", "Host names")
	f.StringVar(&fields.EventDate, "date", "", "Event date (YYYY-MM-DD)")
	f.StringVar(&fields.EventTime, "time", "", "Event time (HH:MM)")
	f.StringVar(&fields.Venue, "venue", "", "Venue")
	f.StringVar(&fields.RSVPDeadline, "rsvp-by", "", "RSVP deadline (YYYY-MM-DD)")
	f.StringVar(&fields.CustomMessage, "message", "", "Optional custom message")
	f.StringVar(&fields.GuestList, "guests", "", "Comma-separated guest email addresses")
	f.StringVar(&configPath, "config", "", "Path to the YAML config file")
	f.DurationVar(&timeout, "timeout", 2*time.Minute, "How long to wait for the backend")
	return cmd
}
