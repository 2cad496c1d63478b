// Package cli implements adminctl, the operator's command line admin session.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cellar-market/wine-marketplace/internal/session"
)

var version = "dev"

// Env is everything adminctl takes from its surroundings.
type Env struct {
	Out    io.Writer
	Err    io.Writer
	Getenv func(string) string
	// Password reads a password when none was supplied; nil disables prompting.
	Password func(prompt string) (string, error)
	// NewAuthenticator builds the API client; tests point it at a fake server.
	NewAuthenticator func(apiURL string, timeout time.Duration) session.Authenticator
}

// DefaultEnv uses the process streams and the real API client.
func DefaultEnv() Env {
	return Env{
		Out:      os.Stdout,
		Err:      os.Stderr,
		Getenv:   os.Getenv,
		Password: terminalPassword,
		NewAuthenticator: func(apiURL string, timeout time.Duration) session.Authenticator {
			return session.NewClient(apiURL, timeout)
		},
	}
}

type rootOptions struct {
	apiURL      string
	sessionFile string
	store       string
	timeout     time.Duration
	verbose     bool
}

// NewRootCmd assembles the command tree.
func NewRootCmd(env Env) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "adminctl",
		Short:         "Manage your wine marketplace admin session",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(env.Out)
	cmd.SetErr(env.Err)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", "", "Marketplace API base URL (or set WINE_API_URL)")
	flags.StringVar(&opts.sessionFile, "session-file", "", "Session file path (default ~/.config/wine-admin/session.json)")
	flags.StringVar(&opts.store, "store", "file", "Where to keep the session: file or keyring")
	flags.DurationVar(&opts.timeout, "timeout", 15*time.Second, "API request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log session activity to stderr")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "adminctl version %s\n", version)
		},
	})
	cmd.AddCommand(newLoginCmd(env, opts))
	cmd.AddCommand(newLogoutCmd(env, opts))
	cmd.AddCommand(newWhoamiCmd(env, opts))
	cmd.AddCommand(newStatusCmd(env, opts))

	return cmd
}

// Execute runs adminctl with the process environment.
func Execute() error {
	env := DefaultEnv()
	if err := NewRootCmd(env).Execute(); err != nil {
		fmt.Fprintf(env.Err, "Error: %v\n", err)
		return err
	}
	return nil
}

func (o *rootOptions) resolveAPIURL(env Env) string {
	url := o.apiURL
	if url == "" {
		url = env.Getenv("WINE_API_URL")
	}
	if url == "" {
		url = "http://127.0.0.1:8080"
	}
	return strings.TrimRight(url, "/")
}

func (o *rootOptions) openStore(env Env) (session.Store, error) {
	switch o.store {
	case "keyring":
		return session.NewKeyringStore(o.resolveAPIURL(env)), nil
	case "file", "":
		path := o.sessionFile
		if path == "" {
			def, err := session.DefaultFilePath()
			if err != nil {
				return nil, err
			}
			path = def
		}
		return session.NewFileStore(path), nil
	}
	return nil, fmt.Errorf("unknown session store %q (use file or keyring)", o.store)
}

func (o *rootOptions) logger(env Env) *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(env.Err),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}

func (o *rootOptions) manager(env Env, extra ...session.Option) (*session.Manager, error) {
	store, err := o.openStore(env)
	if err != nil {
		return nil, err
	}
	auth := env.NewAuthenticator(o.resolveAPIURL(env), o.timeout)
	opts := append([]session.Option{session.WithLogger(o.logger(env))}, extra...)
	return session.NewManager(store, auth, opts...), nil
}
