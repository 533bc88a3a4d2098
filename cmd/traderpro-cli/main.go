package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"traderpro/internal/config"
	"traderpro/pkg/traderpro"
)

const version = "0.1.0"

var (
	serverURL string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "traderpro-cli",
	Short:         "Command-line dashboard for a traderpro-server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	defaultURL := "http://localhost:8080"
	if v := os.Getenv("TRADERPRO_URL"); v != "" {
		defaultURL = v
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL, "traderpro-server base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	rootCmd.AddCommand(
		versionCmd, portfoliosCmd, loginCmd, logoutCmd,
		summaryCmd, positionsCmd, historyCmd,
		assetsCmd, quoteCmd, pendingCmd, buyCmd, sellCmd, cancelCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var apiErr *traderpro.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 401 {
			fmt.Fprintln(os.Stderr, "session expired or missing; run `traderpro-cli login` first")
		}
		os.Exit(1)
	}
}

// tokenPath is where the session token survives between invocations.
func tokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "traderpro", "token"), nil
}

func saveToken(token string) error {
	p, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(token), 0o600)
}

func clearToken() error {
	p, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// newClient builds an API client, resuming the saved session. The
// TRADERPRO_TOKEN variable takes priority over the saved token.
func newClient() *traderpro.Client {
	c := traderpro.NewClient(serverURL)
	if tok := os.Getenv("TRADERPRO_TOKEN"); tok != "" {
		c.SetToken(tok)
		return c
	}
	if p, err := tokenPath(); err == nil {
		if b, err := os.ReadFile(p); err == nil {
			c.SetToken(strings.TrimSpace(string(b)))
		}
	}
	return c
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func parseQty(s string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q", s)
	}
	return q, nil
}
