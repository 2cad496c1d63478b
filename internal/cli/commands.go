package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cellar-market/wine-marketplace/internal/domain"
	"github.com/cellar-market/wine-marketplace/internal/session"
)

var errNotLoggedIn = errors.New("not logged in. Run 'adminctl login' first")

func newLoginCmd(env Env, opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				email = env.Getenv("WINE_ADMIN_EMAIL")
			}
			if password == "" {
				password = env.Getenv("WINE_ADMIN_PASSWORD")
			}
			if email == "" {
				return fmt.Errorf("email is required (use --email flag or WINE_ADMIN_EMAIL env var)")
			}
			if password == "" {
				if env.Password == nil {
					return fmt.Errorf("password is required (use --password flag or WINE_ADMIN_PASSWORD env var)")
				}
				var err error
				if password, err = env.Password("Password: "); err != nil {
					return err
				}
			}

			m, err := opts.manager(env)
			if err != nil {
				return err
			}
			user, err := m.Login(cmd.Context(), email, password)
			if err != nil {
				if errors.Is(err, session.ErrAccessDenied) {
					return err
				}
				return fmt.Errorf("login failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✓ Login successful!")
			printUser(cmd, user)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set WINE_ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set WINE_ADMIN_PASSWORD, will prompt if not provided)")
	return cmd
}

func newLogoutCmd(env Env, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session and revoke its token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.manager(env, session.WithLogoutHook(func() {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out. Run 'adminctl login' to sign in again.")
			}))
			if err != nil {
				return err
			}
			return m.Logout(cmd.Context())
		},
	}
}

func newWhoamiCmd(env Env, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Verify the stored session with the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.manager(env)
			if err != nil {
				return err
			}
			snap := m.CheckAuthStatus(cmd.Context())
			if !snap.IsAuthenticated {
				return errNotLoggedIn
			}
			printUser(cmd, snap.User)
			return nil
		},
	}
}

func newStatusCmd(env Env, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without contacting the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore(env)
			if err != nil {
				return err
			}
			rec, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rec == nil {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}
			fmt.Fprintln(out, "Stored session (not verified):")
			printUser(cmd, &rec.User)
			return nil
		},
	}
}

func printUser(cmd *cobra.Command, user *domain.AdminUser) {
	out := cmd.OutOrStdout()
	name := user.FullName()
	if name == "" {
		name = user.Email
	}
	fmt.Fprintf(out, "  User: %s (%s)\n", name, user.Email)
	fmt.Fprintf(out, "  Role: %s\n", user.Role)
}

func terminalPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or WINE_ADMIN_PASSWORD env var)")
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
