package main

import (
	"alcyxob/fitlist/internal/client"
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/form"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// To-dos are shown newest first.
var todos = variant[domain.Todo]{
	title:  "To-dos",
	render: renderTodo,
	order:  []client.SubscribeOption{client.OrderByCreatedAt()},
}

var todosCmd = &cobra.Command{
	Use:     "todos",
	Aliases: []string{"t"},
	GroupID: "records",
	Short:   "Manage to-dos",
}

var todoAddCmd = &cobra.Command{
	Use:   "add [title...]",
	Short: "Add a to-do",
	RunE: func(cmd *cobra.Command, args []string) error {
		ident, err := cli.requireIdentity()
		if err != nil {
			return err
		}
		draft := form.TodoDraft{Title: strings.Join(args, " ")}
		if draft.Validate() != nil {
			err := huh.NewInput().Title("To-do").Placeholder("What needs to be done?").Value(&draft.Title).Run()
			if err != nil {
				return err
			}
		}
		id, err := draft.Submit(cmd.Context(), todos.store(), ident.UserID)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Added to-do " + id.Hex()))
		return nil
	},
}

var todoEditCmd = &cobra.Command{
	Use:   "edit <id> [title...]",
	Short: "Rename a to-do",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := todos.target(args[0])
		if err != nil {
			return err
		}
		current, err := todos.find(cmd.Context(), id)
		if err != nil {
			return err
		}

		edit := form.EditTodo(current)
		if len(args) > 1 {
			edit.Draft.Title = strings.Join(args[1:], " ")
		} else if err := huh.NewInput().Title("To-do").Value(&edit.Draft.Title).Run(); err != nil {
			return err
		}

		changed, err := edit.Save(cmd.Context(), todos.store())
		if err != nil {
			return err
		}
		if !changed {
			fmt.Println("Nothing changed")
			return nil
		}
		fmt.Println(successStyle.Render("Updated to-do " + id.Hex()))
		return nil
	},
}

func init() {
	todosCmd.AddCommand(todos.commonCommands()...)
	todosCmd.AddCommand(todoAddCmd, todoEditCmd)
	rootCmd.AddCommand(todosCmd)
}
