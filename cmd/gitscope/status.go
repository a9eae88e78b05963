package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kartalbas/gitscope/internal/config"
	"github.com/kartalbas/gitscope/internal/gitrun"
	"github.com/kartalbas/gitscope/internal/workspace"
)

var statusCmd = &cobra.Command{
	Use:   "status <repo-path>...",
	Short: "Print each repository's status once and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStatus,
}

// runStatus is the one-shot mode: refresh every repository once, print
// the settled snapshots, exit. No watcher, no scheduler.
func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runner := gitrun.New(logger,
		gitrun.WithGitPath(cfg.Git.Path),
		gitrun.WithTimeout(cfg.Git.CommandTimeout.Std()),
	)
	registry := workspace.NewRegistry(runner, logger)
	defer registry.Close()

	for _, path := range args {
		if addErr := registry.Add(path); addErr != nil {
			logger.Warn("skipping repository", zap.String("repo", path), zap.Error(addErr))
		}
	}

	if err := waitSettled(registry, cfg.Git.CommandTimeout.Std()+time.Second); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, snap := range registry.Snapshots() {
		fmt.Fprintln(out, formatSnapshot(snap))
	}
	return nil
}

// waitSettled blocks until no registered repository is still loading.
func waitSettled(r *workspace.Registry, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		settled := true
		for _, snap := range r.Snapshots() {
			if snap.Loading {
				settled = false
				break
			}
		}
		if settled {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("status refresh did not settle within %v", timeout)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
