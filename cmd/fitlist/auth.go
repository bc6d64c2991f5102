package main

import (
	"alcyxob/fitlist/internal/form"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// passwordEnv lets scripts skip the password prompt.
const passwordEnv = "FITLIST_PASSWORD"

var loginEmail string

var loginCmd = &cobra.Command{
	Use:     "login",
	GroupID: "account",
	Short:   "Log in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := form.Credentials{Email: loginEmail, Password: os.Getenv(passwordEnv)}
		if creds.Email == "" || creds.Password == "" {
			err := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Email").Value(&creds.Email),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&creds.Password),
			)).Run()
			if err != nil {
				return err
			}
		}
		if err := creds.Validate(); err != nil {
			return err
		}

		ident, err := cli.session.SignIn(cmd.Context(), creds.Email, creds.Password)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Logged in as " + ident.Email))
		return nil
	},
}

var signupEmail string

var signupCmd = &cobra.Command{
	Use:     "signup",
	GroupID: "account",
	Short:   "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		signup := form.Signup{Email: signupEmail, Password: os.Getenv(passwordEnv)}
		signup.Confirm = signup.Password
		if signup.Email == "" || signup.Password == "" {
			err := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Email").Value(&signup.Email),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&signup.Password),
				huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&signup.Confirm),
			)).Run()
			if err != nil {
				return err
			}
		}
		if err := signup.Validate(); err != nil {
			return err
		}

		creds := signup.Credentials()
		ident, err := cli.session.SignUp(cmd.Context(), creds.Email, creds.Password)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Account created, logged in as " + ident.Email))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "account",
	Short:   "Forget the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.session.SignOut(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	GroupID: "account",
	Short:   "Show the logged in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ident, err := cli.requireIdentity()
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", ident.Email, idStyle.Render(ident.UserID.Hex()))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email")
	signupCmd.Flags().StringVarP(&signupEmail, "email", "e", "", "Account email")

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd)
}
