package main

import (
	"alcyxob/fitlist/internal/domain"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6c5ce7"))
	doneStyle    = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("#9ca3af"))
	idStyle      = lipgloss.NewStyle().Faint(true)
	countStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981"))
)

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func renderWorkout(w domain.Workout) string {
	line := fmt.Sprintf("%s %-9s %s  %d x %d", checkbox(w.Completed), w.Day, w.Exercise, w.Sets, w.Reps)
	if w.Completed {
		line = doneStyle.Render(line)
	}
	return line + "  " + idStyle.Render(w.ID.Hex())
}

func renderTodo(t domain.Todo) string {
	line := checkbox(t.Completed) + " " + t.Title
	if t.Completed {
		line = doneStyle.Render(line)
	}
	return line + "  " + idStyle.Render(t.ID.Hex())
}

func renderList[T domain.Record[T]](title string, items []T, counts domain.Counters, render func(T) string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString(idStyle.Render("  nothing here yet"))
		b.WriteString("\n")
	}
	for _, item := range items {
		b.WriteString("  ")
		b.WriteString(render(item))
		b.WriteString("\n")
	}
	b.WriteString(countStyle.Render(fmt.Sprintf("%d total, %d completed, %d remaining", counts.Total, counts.Completed, counts.Remaining)))
	return b.String()
}

// describe turns an error into the message shown to the user.
func describe(err error) string {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return authErr.Message()
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) && storeErr.NotFound() {
		return "no such record"
	}
	return err.Error()
}
