package main

import (
	"alcyxob/fitlist/internal/client"
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/session"
	"alcyxob/fitlist/internal/viewmodel"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// variant describes how the shared record commands handle one collection.
type variant[T domain.Record[T]] struct {
	title  string
	render func(T) string
	// order is applied to list and watch; nil keeps the backend order.
	order []client.SubscribeOption
}

func (v variant[T]) store() *client.Records[T] {
	return client.NewRecords[T](cli.api, cli.session)
}

// commonCommands builds list, watch, toggle and delete for a collection.
func (v variant[T]) commonCommands() []*cobra.Command {
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the current " + v.title,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := cli.requireIdentity(); err != nil {
				return err
			}
			items, err := v.store().List(cmd.Context(), v.order...)
			if err != nil {
				return err
			}
			fmt.Println(renderList(v.title, items, domain.Count(items), v.render))
			return nil
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Follow " + v.title + " live until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ident, err := cli.requireIdentity()
			if err != nil {
				return err
			}
			return v.watch(cmd.Context(), ident)
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the completed state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := v.target(args[0])
			if err != nil {
				return err
			}
			if err := v.store().Toggle(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Toggled " + id.Hex()))
			return nil
		},
	}

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete permanently",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := v.target(args[0])
			if err != nil {
				return err
			}
			if err := v.store().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Deleted " + id.Hex()))
			return nil
		},
	}
	return []*cobra.Command{list, watch, toggle, del}
}

func (v variant[T]) watch(ctx context.Context, ident *session.Identity) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := append(slices.Clone(v.order), client.WithBuffer(cli.watchBuffer))
	stream, err := v.store().Subscribe(ctx, ident.UserID, opts...)
	if err != nil {
		return err
	}
	view := viewmodel.New[T]()
	defer view.Close()

	cancelChange := view.OnChange(func(items []T, counts domain.Counters) {
		fmt.Print("\033[H\033[2J")
		fmt.Println(renderList(v.title, items, counts, v.render))
	})
	defer cancelChange()

	release := cli.session.Guard(stop)
	defer release()

	view.Bind(stream)

	select {
	case <-ctx.Done():
		return nil
	case <-view.Done():
		if err := view.Err(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

// target parses an id argument after checking there is a session.
func (v variant[T]) target(arg string) (primitive.ObjectID, error) {
	if _, err := cli.requireIdentity(); err != nil {
		return primitive.NilObjectID, err
	}
	return domain.ParseID(arg)
}

// find looks up one record of the current user.
func (v variant[T]) find(ctx context.Context, id primitive.ObjectID) (T, error) {
	items, err := v.store().List(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	for _, item := range items {
		if item.Header().ID == id {
			return item, nil
		}
	}
	var zero T
	return zero, &domain.StoreError{Op: "find", Collection: zero.Collection(), Err: domain.ErrNotFound}
}
