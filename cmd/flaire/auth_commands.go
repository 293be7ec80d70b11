package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRegisterCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "register <email> <full name>",
		Short: "Create a backend account",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword()
			if err != nil {
				return err
			}
			fullName := strings.Join(args[1:], " ")
			if err := app.client.Register(cmd.Context(), args[0], password, fullName); err != nil {
				return err
			}
			fmt.Println("Account created. Sign in with: flaire signin", args[0])
			return nil
		},
	}
}

func newSignInCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "signin <email>",
		Short: "Sign in and persist the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword()
			if err != nil {
				return err
			}
			sess, err := app.store.SignIn(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s plan)\n", sess.Email, sess.Plan)
			return nil
		},
	}
}

func newSignUpCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "signup <name> <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword()
			if err != nil {
				return err
			}
			sess, err := app.store.SignUp(cmd.Context(), args[0], args[1], password)
			if err != nil {
				return err
			}
			fmt.Printf("Welcome, %s. You are on the %s plan.\n", sess.Name, sess.Plan)
			return nil
		},
	}
}

func newSignOutCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and purge the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.store.SignOut(); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func newWhoamiCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := app.store.Current()
			if sess == nil {
				fmt.Println("Not signed in.")
				return nil
			}
			fmt.Printf("%s <%s>\n", sess.Name, sess.Email)
			fmt.Printf("Plan: %s\n", sess.Plan)
			if exp := app.store.TokenExpiry(); !exp.IsZero() {
				fmt.Printf("Credential expires: %s\n", exp.Format("2006-01-02 15:04"))
			}
			counters := app.tracker.Counters()
			fmt.Printf("Used this session: %d profile builds, %d opener builds\n", counters.Profiles, counters.Openers)
			return nil
		},
	}
}

func newRefreshCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the plan tier from the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.store.RefreshPlan(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Plan: %s\n", sess.Plan)
			return nil
		},
	}
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password required")
	}
	return password, nil
}
