package main

import (
	"context"

	"github.com/esterlin12/tvplus/internal/session"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with username and password, persisting the session token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	r.initSession(ctx)

	username := cmd.String("username")
	password := cmd.String("password")

	if err := r.sess.Login(ctx, username, password); err != nil {
		return err
	}

	snap := r.sess.Snapshot()
	r.logger.Info("signed in", "username", snap.User.Username)
	return r.writePlain("✓ Signed in as %s\n", snap.User.Username)
}

// AuthRegister creates a directory account. Registration does not sign in;
// follow it with 'auth login'.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	email := cmd.String("email")
	password := cmd.String("password")

	user, err := r.sess.Register(ctx, username, email, password)
	if err != nil {
		return err
	}

	r.logger.Info("account created", "username", user.Username)
	r.writePlain("✓ Account created: %s\n", user.Username)
	return r.writePlain("Run 'tvplus auth login' to sign in.\n")
}

// AuthLogout clears the persisted session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.initSession(ctx)
	r.sess.Logout()
	return r.writePlain("✓ Signed out\n")
}

// AuthWhoami prints the current session state.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	r.initSession(ctx)

	snap := r.sess.Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"status": snap.Status.String(),
			"user":   snap.User,
		}, cmd.Bool("pretty"))
	}

	if snap.Status != session.Authenticated {
		return r.writePlain("Not signed in\n")
	}

	r.writePlain("Signed in as %s\n", snap.User.Username)
	r.writePlain("Email: %s\n", snap.User.Email)
	if snap.User.IsSuperUser {
		r.writePlain("Role: administrator\n")
	}
	return nil
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the directory session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and persist the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create a directory account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Clear the persisted session",
				Action: r.AuthLogout,
			},
			{
				Name:  "whoami",
				Usage: "Show the current session state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.AuthWhoami,
			},
		},
	}
}
