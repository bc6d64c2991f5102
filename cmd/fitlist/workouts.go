package main

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/form"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var workouts = variant[domain.Workout]{
	title:  "Workouts",
	render: renderWorkout,
}

var workoutDraft form.WorkoutDraft

var workoutsCmd = &cobra.Command{
	Use:     "workouts",
	Aliases: []string{"w"},
	GroupID: "records",
	Short:   "Manage workouts",
}

var workoutAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a workout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ident, err := cli.requireIdentity()
		if err != nil {
			return err
		}
		if !anyChanged(cmd, "day", "exercise", "reps", "sets") {
			if err := workoutForm(&workoutDraft).Run(); err != nil {
				return err
			}
		}
		id, err := workoutDraft.Submit(cmd.Context(), workouts.store(), ident.UserID)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Added workout " + id.Hex()))
		return nil
	},
}

var workoutEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a workout; omitted flags keep their value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := workouts.target(args[0])
		if err != nil {
			return err
		}
		current, err := workouts.find(cmd.Context(), id)
		if err != nil {
			return err
		}

		edit := form.EditWorkout(current)
		flags := cmd.Flags()
		if !anyChanged(cmd, "day", "exercise", "reps", "sets") {
			if err := workoutForm(&edit.Draft).Run(); err != nil {
				return err
			}
		} else {
			if flags.Changed("day") {
				edit.Draft.Day = workoutDraft.Day
			}
			if flags.Changed("exercise") {
				edit.Draft.Exercise = workoutDraft.Exercise
			}
			if flags.Changed("reps") {
				edit.Draft.Reps = workoutDraft.Reps
			}
			if flags.Changed("sets") {
				edit.Draft.Sets = workoutDraft.Sets
			}
		}

		changed, err := edit.Save(cmd.Context(), workouts.store())
		if err != nil {
			return err
		}
		if !changed {
			fmt.Println("Nothing changed")
			return nil
		}
		fmt.Println(successStyle.Render("Updated workout " + id.Hex()))
		return nil
	},
}

func workoutForm(d *form.WorkoutDraft) *huh.Form {
	days := make([]huh.Option[string], 0, len(domain.Weekdays))
	for _, day := range domain.Weekdays {
		days = append(days, huh.NewOption(string(day), string(day)))
	}
	return huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title("Day").Options(days...).Value(&d.Day),
		huh.NewInput().Title("Exercise").Placeholder("e.g., Push Up, Squat").Value(&d.Exercise),
		huh.NewInput().Title("Reps").Placeholder("12").Value(&d.Reps),
		huh.NewInput().Title("Sets").Placeholder("3").Value(&d.Sets),
	))
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func init() {
	for _, c := range []*cobra.Command{workoutAddCmd, workoutEditCmd} {
		c.Flags().StringVarP(&workoutDraft.Day, "day", "d", "", "Day of the week")
		c.Flags().StringVarP(&workoutDraft.Exercise, "exercise", "x", "", "Exercise name")
		c.Flags().StringVarP(&workoutDraft.Reps, "reps", "r", "", "Repetitions per set")
		c.Flags().StringVarP(&workoutDraft.Sets, "sets", "s", "", "Number of sets")
	}

	workoutsCmd.AddCommand(workouts.commonCommands()...)
	workoutsCmd.AddCommand(workoutAddCmd, workoutEditCmd)
	rootCmd.AddCommand(workoutsCmd)
}
