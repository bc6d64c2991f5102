// Command fitlist is a terminal client for the FitList API.
package main

import (
	"alcyxob/fitlist/internal/client"
	"alcyxob/fitlist/internal/config"
	"alcyxob/fitlist/internal/credential"
	"alcyxob/fitlist/internal/session"
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// app is the state shared by every command, built once per invocation.
type app struct {
	api     *client.Client
	session *session.Manager
	// watchBuffer bounds the snapshot queue of watch commands.
	watchBuffer int
}

var (
	configDir string
	cli       app
)

var rootCmd = &cobra.Command{
	Use:           "fitlist",
	Short:         "Track workouts and to-dos from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadClientConfig(configDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		api, err := client.New(cfg.API.URL, client.WithTimeout(cfg.API.Timeout))
		if err != nil {
			return err
		}

		var tokens session.TokenStore
		if store, err := credential.Open(cfg.Keyring.Dir); err != nil {
			log.Printf("WARN: Keyring unavailable, the session will not be remembered: %v", err)
		} else {
			tokens = store
		}

		cli = app{api: api, session: session.NewManager(api, tokens), watchBuffer: cfg.Watch.Buffer}
		if _, err := cli.session.Restore(cmd.Context()); err != nil {
			log.Printf("WARN: Could not restore the previous session: %v", err)
		}
		return nil
	},
}

func init() {
	log.SetFlags(0)
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "Directory holding fitlist.yaml")

	rootCmd.AddGroup(
		&cobra.Group{ID: "account", Title: "Account:"},
		&cobra.Group{ID: "records", Title: "Records:"},
	)
}

// requireIdentity returns the signed-in identity or a hint to log in.
func (a *app) requireIdentity() (*session.Identity, error) {
	ident := a.session.Current()
	if ident == nil {
		return nil, errors.New("not logged in, run `fitlist login` first")
	}
	return ident, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+describe(err)))
		os.Exit(1)
	}
}
