package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"parcel-tracker/internal/app"
	"parcel-tracker/internal/core/config"
	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/features/tracking/domain"
	"parcel-tracker/internal/features/tracking/ports"

	"github.com/spf13/cobra"
)

// serviceFactory builds the tracking service from the configuration in dir.
type serviceFactory func(dir string) (ports.TrackingService, error)

func loadService(dir string) (ports.TrackingService, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return app.NewDependencies(cfg, nil).TrackingService, nil
}

func newRootCmd(build serviceFactory, stdout, stderr io.Writer) *cobra.Command {
	var (
		carrier   string
		configDir string
	)

	cmd := &cobra.Command{
		Use:           "track <tracking-number>",
		Short:         "Look up a parcel by tracking number",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := build(configDir)
			if err != nil {
				return err
			}

			record, err := svc.TrackPackage(cmd.Context(), domain.TrackingRequest{
				TrackingNumber: args[0],
				Carrier:        carrier,
			})
			if err != nil {
				printError(stderr, err)
				return err
			}

			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(record)
		},
	}

	cmd.Flags().StringVarP(&carrier, "carrier", "c", "", "carrier code to use instead of guessing (e.g. yanwen, ups)")
	cmd.Flags().StringVar(&configDir, "config", ".", "directory holding the .env file")

	return cmd
}

func printError(w io.Writer, err error) {
	var resErr *domain.ResolutionError
	if !errors.As(err, &resErr) {
		return
	}
	fmt.Fprintf(w, "%s: %s\n", resErr.Kind, resErr.Message)
	for _, f := range resErr.Failures {
		fmt.Fprintf(w, "  %s (%s) via %s: %s\n", f.Carrier, f.Source, f.Provider, f.Reason)
	}
}

func main() {
	defer logger.Sync()

	cmd := newRootCmd(loadService, os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		var resErr *domain.ResolutionError
		if !errors.As(err, &resErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		logger.Sync()
		os.Exit(1)
	}
}
