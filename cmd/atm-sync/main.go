package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/yuya-takeyama/atm-sync/internal/config"
	"github.com/yuya-takeyama/atm-sync/pkg/logger"
	"github.com/yuya-takeyama/atm-sync/pkg/planner"
	"github.com/yuya-takeyama/atm-sync/pkg/syncer"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "atm-sync <src> <dest>",
		Short: "Incremental directory sync guarded by a remote lock",
		Long: `atm-sync uploads the files of a local directory whose content changed since
the last successful sync. A manifest of MD5+SHA-1 fingerprints and a lock file
are kept in a folder at the destination.

The destination is a local path, s3://bucket/prefix, or sftp://user@host/path.
A plain path combined with --host is treated as a path on that SSH server.`,
		Version:      fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		RunE:         runSync,
	}

	config.RegisterGlobalFlags(rootCmd)
	config.RegisterSyncFlags(rootCmd)

	rootCmd.AddCommand(newStatusCmd(), newUnlockCmd())
	return rootCmd
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.New(), cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	syncLogger, closeLog, err := setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog.Close()

	ctx := cmd.Context()
	local := afero.NewOsFs()

	dest, err := openDestination(ctx, cfg, local)
	if err != nil {
		return err
	}
	defer dest.transport.Close()
	slog.Debug("destination opened", "transport", dest.kind, "remote", dest.remote)

	opts := []syncer.Option{
		syncer.WithFs(local),
		syncer.WithLogger(syncLogger),
	}
	if cfg.PlanJSONFile != "" {
		opts = append(opts, syncer.WithPlanHook(func(plan *planner.Plan) error {
			if err := writePlanResult(local, cfg.PlanJSONFile, plan); err != nil {
				return fmt.Errorf("failed to write plan JSON: %w", err)
			}
			return nil
		}))
	}

	s, err := syncer.New(cfg.SyncerConfig(dest.remote), dest.transport, opts...)
	if err != nil {
		return err
	}

	res, runErr := s.Run(ctx)

	if res != nil && cfg.ResultJSONFile != "" && !cfg.DryRun {
		if err := writeSyncResult(local, cfg.ResultJSONFile, newSyncResult(res)); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to write result JSON: %w", err))
		}
	}

	if runErr != nil {
		if errors.Is(runErr, syncer.ErrDestinationLocked) {
			slog.Error("destination is locked; another sync may be running",
				"lock", syncer.LockPath(dest.remote, cfg.Folder),
				"hint", "retry later, pass --force, or run 'atm-sync unlock' if the previous run crashed")
		} else {
			slog.Error("sync failed", "error", runErr)
		}
		return runErr
	}

	if !cfg.Quiet {
		logger.PrintSummary(cmd.OutOrStdout(), logger.Summary{
			Uploaded:      len(res.Uploaded),
			Skipped:       res.Unchanged,
			Excluded:      res.Excluded,
			BytesUploaded: res.BytesUploaded,
			Duration:      res.Duration,
			DryRun:        res.DryRun,
		})
	}
	return nil
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "status <dest>",
		Short:        "Show the lock state and manifest size at a destination",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dest, cleanup, err := openFromArgs(cmd, args)
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := syncer.Inspect(cmd.Context(), dest.transport, dest.remote, cfg.Folder)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Destination: %s\n", cfg.Dest)
			fmt.Fprintf(out, "Lock: %s (%s)\n", st.LockState, existence(st.LockExists))
			fmt.Fprintf(out, "Manifest: %d entries (%s)\n", st.Entries, existence(st.ManifestExists))
			return nil
		},
	}
}

func newUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "unlock <dest>",
		Short:        "Release a lock left behind by an interrupted sync",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dest, cleanup, err := openFromArgs(cmd, args)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := syncer.Unlock(cmd.Context(), dest.transport, dest.remote, cfg.Folder); err != nil {
				return err
			}
			slog.Info("lock released", "lock", syncer.LockPath(dest.remote, cfg.Folder))
			return nil
		},
	}
}

// openFromArgs loads the configuration for a single-destination command and
// opens its transport. The returned cleanup closes the transport and log file.
func openFromArgs(cmd *cobra.Command, args []string) (*config.Config, *destination, func(), error) {
	cfg, err := config.Load(config.New(), cmd, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg.Dest = args[0]

	_, closeLog, err := setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, nil, err
	}

	dest, err := openDestination(cmd.Context(), cfg, afero.NewOsFs())
	if err != nil {
		closeLog.Close()
		return nil, nil, nil, err
	}

	slog.Debug("destination opened", "transport", dest.kind, "remote", dest.remote)

	cleanup := func() {
		dest.transport.Close()
		closeLog.Close()
	}
	return cfg, dest, cleanup, nil
}

func setupLogging(cfg *config.Config, stderr io.Writer) (*logger.SyncLogger, io.Closer, error) {
	handler, closer, err := logger.NewHandler(logger.Options{
		Quiet:   cfg.Quiet,
		Verbose: cfg.Verbose,
		LogFile: cfg.LogFile,
		Stdout:  stderr,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	l := slog.New(handler)
	slog.SetDefault(l)

	return &logger.SyncLogger{
		IsDryRun: cfg.DryRun,
		IsQuiet:  cfg.Quiet,
		Logger:   l,
	}, closer, nil
}

func existence(exists bool) string {
	if exists {
		return "present"
	}
	return "absent"
}
