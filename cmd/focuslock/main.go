package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"focuslock/internal/bootstrap"
	"focuslock/internal/modules/focus/domain"
	"focuslock/internal/platform/config"
	"focuslock/internal/platform/logging"
)

// exitCodeError carries a non-default exit status without printing anything.
type exitCodeError struct{ code int }

func (e exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit exitCodeError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var stateDir string

	root := &cobra.Command{
		Use:           "focuslock",
		Short:         "Block distracting sites for a timed focus session",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&stateDir, "state-dir", "", "state directory (default $XDG_CONFIG_HOME/focuslock)")

	root.AddCommand(newSessionCmd(&stateDir))
	root.AddCommand(newSitesCmd(&stateDir))
	root.AddCommand(newCheckCmd(&stateDir))
	root.AddCommand(newHistoryCmd(&stateDir))
	root.AddCommand(newTUICmd(&stateDir))
	root.AddCommand(newDaemonCmd(&stateDir))
	return root
}

func loadApp(stateDir string) (*bootstrap.App, error) {
	if stateDir == "" {
		dir, err := config.DefaultStateDir()
		if err != nil {
			return nil, err
		}
		stateDir = dir
	}
	cfg, err := config.New(stateDir)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Options{
		Name:   "focuslock",
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	return bootstrap.New(cfg, logger)
}

func splitSites(args []string) []string {
	return strings.FieldsFunc(strings.Join(args, "\n"), func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})
}

func newSessionCmd(stateDir *string) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Focus session lifecycle"}

	var minutes, sites string
	start := &cobra.Command{
		Use:   "start --minutes <m> --sites <list>",
		Short: "Start or restart a focus session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.FocusCLI.Start(cmd.Context(), minutes, splitSites([]string{sites}))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Status)
			if out.Warning != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", out.Warning)
			}
			return nil
		},
	}
	start.Flags().StringVar(&minutes, "minutes", "25", "block time in minutes")
	start.Flags().StringVar(&sites, "sites", "", "sites to block, comma or newline separated")

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the active focus session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.FocusCLI.Stop(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Status)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the active focus session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			st, err := app.FocusCLI.Status(cmd.Context())
			if err != nil {
				return err
			}
			if !st.Active {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active session")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session=%s minutes=%s remaining=%s reminders=%d\n",
				st.SessionID, domain.FormatMinutes(st.DurationMinutes), st.Remaining.Round(time.Second), st.Reminders)
			for _, site := range st.Sites {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  "+site)
			}
			return nil
		},
	}

	session.AddCommand(start, stop, status)
	return session
}

func newSitesCmd(stateDir *string) *cobra.Command {
	sites := &cobra.Command{Use: "sites", Short: "Blocked site list"}

	sites.AddCommand(&cobra.Command{
		Use:   "set <site[,site...]>...",
		Short: "Save the blocked site list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.FocusCLI.SaveSites(cmd.Context(), splitSites(args))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Status)
			return nil
		},
	})

	sites.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved blocked site list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.FocusCLI.Sites(cmd.Context())
			if err != nil {
				return err
			}
			if len(out.Sites) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sites")
				return nil
			}
			for _, site := range out.Sites {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), site)
			}
			return nil
		},
	})
	return sites
}

func newCheckCmd(stateDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check <url>",
		Short: "Report whether a URL matches a saved site (exit 2 when blocked)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.FocusCLI.Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !out.Blocked {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "allowed")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "blocked (%s)\n", out.Site)
			return exitCodeError{code: 2}
		},
	}
}

func newHistoryCmd(stateDir *string) *cobra.Command {
	history := &cobra.Command{
		Use:   "history",
		Short: "Show completed focus sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.HistoryCLI.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(out.Entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
				return nil
			}
			for _, e := range out.Entries {
				if e.Kind == "timestamp" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Session %d: ended %s\n", e.Index, e.Label)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Session %d: %s minutes\n", e.Index, domain.FormatMinutes(e.DurationMinutes))
			}
			if out.Motivation != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Motivation)
			}
			return nil
		},
	}

	var format string
	export := &cobra.Command{
		Use:   "export --format json|yaml|toml",
		Short: "Export focus history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.HistoryCLI.Export(cmd.Context(), format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out.Payload)
			return err
		},
	}
	export.Flags().StringVar(&format, "format", "json", "json|yaml|toml")
	history.AddCommand(export)
	return history
}

func newTUICmd(stateDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the focuslock terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app)
		},
	}
}

func newDaemonCmd(stateDir *string) *cobra.Command {
	daemon := &cobra.Command{Use: "daemon", Short: "Manage the focus daemon lifecycle"}
	daemon.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the focus daemon in foreground",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.FocusCLI.RunDaemon(ctx)
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the focus daemon in background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.FocusCLI.StartDaemon(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon started")
			return nil
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the focus daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.FocusCLI.StopDaemon(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
			return nil
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show focus daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			status, err := app.FocusCLI.DaemonStatus(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "running=%t pid=%d socket=%s http=%s\n", status.Running, status.PID, status.SocketPath, status.HTTPAddr)
			if status.Session.Active {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session=%s remaining=%s sites=%d\n",
					status.Session.SessionID, status.Session.Remaining.Round(time.Second), len(status.Session.Sites))
			}
			return nil
		},
	})
	var daemonLogTail int
	daemonLogs := &cobra.Command{
		Use:   "logs",
		Short: "Show focus daemon logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*stateDir)
			if err != nil {
				return err
			}
			defer app.Close()
			payload, err := app.FocusCLI.DaemonLogs(cmd.Context(), daemonLogTail)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), payload)
			return nil
		},
	}
	daemonLogs.Flags().IntVar(&daemonLogTail, "tail", 200, "log lines to show from the end")
	daemon.AddCommand(daemonLogs)
	return daemon
}
