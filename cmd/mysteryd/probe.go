package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mysteryd/internal/backend"
	"mysteryd/internal/config"
	"mysteryd/internal/gate"
	"mysteryd/internal/manager"
)

func newProbeCmd(g *globalOpts) *cobra.Command {
	var (
		kind, model, baseURL string
		timeout              time.Duration
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check the configured backend once and print the verdict",
		Long:  "Forces an availability probe and prints it as JSON. Exits non-zero when the backend is unavailable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, func(c *config.Config) {
				if kind != "" {
					c.Backend.Kind = kind
				}
				if model != "" {
					c.Backend.Model = model
				}
				if baseURL != "" {
					c.Backend.BaseURL = baseURL
				}
			})
			if err != nil {
				return err
			}
			be, err := backend.New(cfg.BackendSettings())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return probe(ctx, cmd, be)
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "backend", "", "Backend kind: "+kindList())
	f.StringVar(&model, "model", "", "Backend model name")
	f.StringVar(&baseURL, "base-url", "", "Backend base URL")
	f.DurationVar(&timeout, "timeout", 15*time.Second, "Probe deadline")
	return cmd
}

func probe(ctx context.Context, cmd *cobra.Command, be backend.Backend) error {
	g := gate.New(be, gate.Config{})
	st, err := g.Check(ctx, true)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(manager.AvailabilityDTO(st)); encErr != nil {
		return encErr
	}
	if c, ok := be.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if err != nil {
		return fmt.Errorf("probe %s: %w", be.Name(), err)
	}
	return nil
}
