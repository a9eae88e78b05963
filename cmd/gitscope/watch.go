package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kartalbas/gitscope/internal/app"
	"github.com/kartalbas/gitscope/internal/config"
	"github.com/kartalbas/gitscope/internal/workspace"
)

// runWatch is the long-running mode: register every repository, then
// stream status updates until interrupted.
func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	engine := app.New(cfg, logger)
	defer engine.Close()

	for _, path := range args {
		if addErr := engine.AddRepository(path); addErr != nil {
			logger.Warn("skipping repository", zap.String("repo", path), zap.Error(addErr))
		}
	}
	if len(engine.Registry().Paths()) == 0 {
		return fmt.Errorf("no repositories registered")
	}

	sub := engine.Registry().Subscribe()
	defer sub.Cancel()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() { _ = engine.Run(ctx) }()

	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			fmt.Fprintln(out, formatSnapshot(u.Snapshot))
		}
	}
}

// formatSnapshot renders one status line for a repository.
func formatSnapshot(s workspace.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  ", s.Path)

	switch {
	case !s.Exists:
		b.WriteString("[missing]")
	case s.Broken:
		b.WriteString("[broken]")
	case !s.ValidGit:
		b.WriteString("[not a repository]")
	default:
		branch := s.Branch
		if branch == "" {
			branch = "(unknown)"
		}
		b.WriteString(branch)
		if s.Dirty {
			b.WriteString(" *")
		}
		if s.Ahead > 0 {
			fmt.Fprintf(&b, " ↑%d", s.Ahead)
		}
		if s.Behind > 0 {
			fmt.Fprintf(&b, " ↓%d", s.Behind)
		}
		if s.Loading {
			b.WriteString(" (refreshing)")
		}
	}

	if s.LastErr != "" {
		fmt.Fprintf(&b, "  !%s", s.LastErr)
	}
	return b.String()
}
