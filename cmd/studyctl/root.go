package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mramrohaleem/study/internal/models"
	"github.com/mramrohaleem/study/internal/planner"
)

type options struct {
	statePath string
	today     string
	dryRun    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "studyctl",
		Short:         "Plan and inspect a study snapshot offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.statePath, "state", "snapshot.json", "path to the planner snapshot")
	root.PersistentFlags().StringVar(&opts.today, "today", "", "reference date (YYYY-MM-DD), defaults to the local date")
	root.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "print the result without rewriting the snapshot")

	root.AddCommand(
		newPlanCmd(opts),
		newReviseCmd(opts),
		newProgressCmd(opts),
		newStreakCmd(opts),
		newWeekCmd(opts),
	)
	return root
}

func (o *options) referenceDate() (time.Time, error) {
	if o.today == "" {
		return planner.DateOf(time.Now()), nil
	}
	return planner.ParseDate(o.today)
}

// loadSnapshot reads the snapshot file. A missing file is an empty planner.
func loadSnapshot(path string) (models.State, error) {
	state := models.State{Settings: models.DefaultSettings()}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return state, nil
}

// saveSnapshot writes the snapshot next to its destination and renames it into place.
func saveSnapshot(path string, state models.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
