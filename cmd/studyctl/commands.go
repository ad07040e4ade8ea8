package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mramrohaleem/study/internal/models"
	"github.com/mramrohaleem/study/internal/planner"
)

func newPlanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [subject-id]",
		Short: "Redistribute a subject's remaining lectures up to its revision cutoff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			today, err := opts.referenceDate()
			if err != nil {
				return err
			}
			state, err := loadSnapshot(opts.statePath)
			if err != nil {
				return err
			}
			result, err := planner.PlanSubject(state, args[0], today)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subject %s: %.2f -> %.2f lectures/day\n", result.Change.SubjectID, result.Change.PreviousAverage, result.Change.NewAverage)
			if result.Change.Overloaded {
				fmt.Fprintln(out, "Overloaded: daily caps could not hold every remaining lecture")
			}
			for _, warning := range result.Warnings {
				fmt.Fprintln(out, "Warning:", warning)
			}
			return persist(cmd, opts, result.State)
		},
	}
}

func newReviseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "revise [subject-id] [pass-id]",
		Short: "Place a revision pass on the calendar",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			today, err := opts.referenceDate()
			if err != nil {
				return err
			}
			state, err := loadSnapshot(opts.statePath)
			if err != nil {
				return err
			}
			pass, ok := planner.FindRevisionPass(state, args[1])
			if !ok || pass.SubjectID != args[0] {
				return fmt.Errorf("revision pass %s not found for subject %s", args[1], args[0])
			}
			result, err := planner.ScheduleRevisionPass(state, pass, today)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Message != "" {
				fmt.Fprintln(out, result.Message)
			}
			fmt.Fprintf(out, "Scheduled %d revision sittings from %s over %d days\n", result.Scheduled, result.StartDate, result.SpreadDays)
			if result.Scheduled == 0 {
				return nil
			}
			return persist(cmd, opts, result.State)
		},
	}
}

func newProgressCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "progress [subject-id]",
		Short: "Show lecture progress and workload outlook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			today, err := opts.referenceDate()
			if err != nil {
				return err
			}
			state, err := loadSnapshot(opts.statePath)
			if err != nil {
				return err
			}
			subject, ok := state.FindSubject(args[0])
			if !ok {
				return fmt.Errorf("subject %s not found", args[0])
			}
			lectures := state.LecturesOf(subject.ID)
			progress := planner.SubjectProgress(lectures)
			outlook := planner.SubjectOutlook(*subject, lectures, state.Settings, today)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Subject\t%s (%s)\n", subject.Name, subject.ID)
			fmt.Fprintf(w, "Exam\t%s\n", subject.ExamDate)
			fmt.Fprintf(w, "Done\t%d/%d\n", progress.Done, progress.Total)
			fmt.Fprintf(w, "In progress\t%d\n", progress.InProgress)
			fmt.Fprintf(w, "Needs revision\t%d\n", progress.NeedsRevision)
			fmt.Fprintf(w, "Effective days\t%d\n", outlook.EffectiveDays)
			fmt.Fprintf(w, "Required per day\t%.2f\n", outlook.RequiredPerDay)
			fmt.Fprintf(w, "At risk\t%t\n", outlook.AtRisk)
			return w.Flush()
		},
	}
}

func newStreakCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the current study streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today, err := opts.referenceDate()
			if err != nil {
				return err
			}
			state, err := loadSnapshot(opts.statePath)
			if err != nil {
				return err
			}
			stats := planner.ComputeStreak(state, today)
			fmt.Fprintf(cmd.OutOrStdout(), "Streak: %d days (as of %s, needs %d lectures or %d minutes a day)\n",
				stats.Days, stats.Today, stats.MinLectures, stats.MinMinutes)
			return nil
		},
	}
}

func newWeekCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Summarise this week's study activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today, err := opts.referenceDate()
			if err != nil {
				return err
			}
			state, err := loadSnapshot(opts.statePath)
			if err != nil {
				return err
			}
			stats := planner.ComputeWeekStats(state, today)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Week\t%s to %s\n", stats.StartDate, stats.EndDate)
			fmt.Fprintf(w, "Minutes\t%d\n", stats.CompletedMinutes)
			fmt.Fprintf(w, "Lectures\t%d/%d\n", stats.CompletedLectures, stats.ScheduledLectures)
			fmt.Fprintf(w, "Adherence\t%d%%\n", stats.Adherence)
			if stats.TopSubjectID != "" {
				fmt.Fprintf(w, "Top subject\t%s\n", stats.TopSubjectID)
			}
			subjects := make([]string, 0, len(stats.PerSubject))
			for id := range stats.PerSubject {
				subjects = append(subjects, id)
			}
			sort.Strings(subjects)
			for _, id := range subjects {
				fmt.Fprintf(w, "  %s\t%d\n", id, stats.PerSubject[id])
			}
			return w.Flush()
		},
	}
}

func persist(cmd *cobra.Command, opts *options, state models.State) error {
	if opts.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "Dry run: snapshot left unchanged")
		return nil
	}
	if err := saveSnapshot(opts.statePath, state); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Snapshot updated:", opts.statePath)
	return nil
}
