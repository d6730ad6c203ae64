package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/charmbracelet/log"
	authclient "github.com/goliatone/go-auth-client"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Runner holds the session manager and provides a method per command action.
type Runner struct {
	config  *Config
	manager *authclient.Manager
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = newLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	manager := authclient.New(opts.Config.Options(),
		authclient.WithLogger(charmLogger{opts.Logger}),
		authclient.WithCredentialStore(authclient.NewFileCredentialStore(opts.Config.Client.CredentialFile)),
		authclient.WithDebug(opts.Config.Client.Debug),
	)

	return &Runner{
		config:  opts.Config,
		manager: manager,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		statusCommand, loginCommand, logoutCommand, registerCommand, uiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Status verifies the stored session and prints who is logged in.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	state := r.manager.Start(ctx)

	if state.IsAuthenticated() {
		fmt.Fprintf(r.output, "logged in as %s\n", state.User.DisplayName())
		return nil
	}

	fmt.Fprintln(r.output, "not logged in")
	return nil
}

// Login prompts for missing credentials and establishes a session.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")

	if email == "" {
		fmt.Fprint(r.output, "email: ")
		if _, err := fmt.Scanln(&email); err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
	}

	if password == "" {
		fmt.Fprint(r.output, "password: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(r.output)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	state, err := r.manager.Login(ctx, authclient.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("login failed: %s", authclient.ErrorMessage(err, "unknown error"))
	}

	fmt.Fprintf(r.output, "logged in as %s\n", state.User.DisplayName())
	return nil
}

// Logout drops the local session and tells the backend.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	r.manager.Logout(ctx)
	fmt.Fprintln(r.output, "logged out")
	return nil
}

// Register creates a new account. The visitor still logs in afterwards.
func (r *Runner) Register(ctx context.Context, cmd *cli.Command) error {
	req := authclient.RegisterRequest{
		FirstName:      cmd.String("first-name"),
		LastName:       cmd.String("last-name"),
		Age:            int(cmd.Int("age")),
		Email:          cmd.String("email"),
		Password:       cmd.String("password"),
		SecretQuestion: cmd.String("secret-question"),
		SecretAnswer:   cmd.String("secret-answer"),
	}

	if err := r.manager.Register(ctx, req); err != nil {
		return fmt.Errorf("registration failed: %s", authclient.ErrorMessage(err, "unknown error"))
	}

	fmt.Fprintln(r.output, "account created, log in to continue")
	return nil
}

// newLogger creates a new [log.Logger] writing to w, defaulting to stderr.
func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{ReportTimestamp: true})
}

// charmLogger adapts [log.Logger] to the session client's logger interface.
type charmLogger struct {
	l *log.Logger
}

func (c charmLogger) Debug(msg string, args ...any) { c.l.Debug(msg, args...) }
func (c charmLogger) Info(msg string, args ...any)  { c.l.Info(msg, args...) }
func (c charmLogger) Warn(msg string, args ...any)  { c.l.Warn(msg, args...) }
func (c charmLogger) Error(msg string, args ...any) { c.l.Error(msg, args...) }
