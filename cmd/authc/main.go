package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	logger := newLogger(nil)

	config := DefaultConfig()
	if _, err := os.Stat("authc.toml"); err == nil {
		if loaded, err := LoadConfig("authc.toml"); err == nil {
			config = loaded
		} else {
			logger.Warn("ignoring unreadable config", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "authc",
		Usage:    "Session client for cookie and token based authentication backends",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatal("application error", "error", err)
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Verify the stored session and print who is logged in",
		Action: r.Status,
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and persist the session credential",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (prompted when omitted)",
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Drop the local session and notify the backend",
		Action: r.Logout,
	}
}

func registerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create a new account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "first-name", Required: true},
			&cli.StringFlag{Name: "last-name", Required: true},
			&cli.IntFlag{Name: "age", Required: true},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
			&cli.StringFlag{Name: "secret-question", Required: true},
			&cli.StringFlag{Name: "secret-answer", Required: true},
		},
		Action: r.Register,
	}
}

func uiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "ui",
		Usage:  "Interactive session manager",
		Action: r.UI,
	}
}
