package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
)

func newSignupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE:  runSignup,
	}
	cmd.Flags().String("email", "", "Email address for the new account")
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("password", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runSignup(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *inglesh.App) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		user, err := sessionOf(app).Service().SignUp(ctx, identity.Credentials{
			Email:    email,
			Password: password,
			Name:     name,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! Your account is ready and you are signed in.\n", displayName(user))
		fmt.Fprintln(cmd.OutOrStdout(), "Pick something to study: `inglesh topics` and `inglesh levels`.")
		return nil
	})
}

func newLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to your account",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}
	cmd.Flags().String("email", "", "Email address of the account")
	cmd.Flags().String("password", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *inglesh.App) error {
		email, _ := cmd.Flags().GetString("email")
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		user, err := sessionOf(app).Service().SignIn(ctx, identity.Credentials{
			Email:    email,
			Password: password,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", displayName(user))
		return nil
	})
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *inglesh.App) error {
				if err := sessionOf(app).Service().Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and what they are studying",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, runWhoami(cmd))
		},
	}
}

func runWhoami(cmd *cobra.Command) func(context.Context, *inglesh.App) error {
	return func(ctx context.Context, app *inglesh.App) error {
		out := cmd.OutOrStdout()
		state := sessionOf(app).Store().State()
		if !state.Authenticated {
			fmt.Fprintln(out, "Not signed in. Run `inglesh login` or `inglesh signup`.")
			return nil
		}

		user := state.User
		fmt.Fprintf(out, "Signed in as %s <%s>\n", displayName(user), user.Email)

		res, err := selectionOf(app).Gate().Check(ctx)
		if err != nil {
			return err
		}
		if res.HasSelection {
			fmt.Fprintf(out, "Studying %s\n", selectionLabel(ctx, catalogOf(app), res.Selection))
		} else {
			fmt.Fprintln(out, "No topic selected yet. Run `inglesh select --topic <id> --level <id>`.")
		}
		return nil
	}
}

// readPassword returns the --password flag, or prompts on stdin when empty.
func readPassword(cmd *cobra.Command) (string, error) {
	password, err := cmd.Flags().GetString("password")
	if err != nil || password != "" {
		return password, err
	}

	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, 0)
	}
	password = strings.TrimSpace(line)
	if password == "" {
		return "", errors.NewC("a password is required", codes.InvalidArgument)
	}
	return password, nil
}
