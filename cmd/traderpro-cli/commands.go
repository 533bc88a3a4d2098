package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"traderpro/pkg/traderpro"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "traderpro-cli %s\n", version)
	},
}

var portfoliosCmd = &cobra.Command{
	Use:   "portfolios",
	Short: "List the portfolios available for login",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		names, err := newClient().Portfolios(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login PORTFOLIO",
	Short: "Open a session (admin with --password, otherwise --guest)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		guest, _ := cmd.Flags().GetBool("guest")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("TRADERPRO_PASSWORD")
		}
		if !guest && password == "" {
			return fmt.Errorf("--password (or TRADERPRO_PASSWORD) is required unless --guest is set")
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		c := newClient()
		s, err := c.Login(ctx, args[0], password, guest)
		if err != nil {
			return err
		}
		if err := saveToken(s.Token); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "logged in to %s as %s\n", s.Portfolio, s.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		// The local token is dropped even if the server already forgot it.
		err := newClient().Logout(ctx)
		if cerr := clearToken(); cerr != nil {
			return cerr
		}
		return err
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show equity and buying power net of pending buys",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		s, err := newClient().Summary(ctx)
		if err != nil {
			return err
		}
		renderSummary(cmd.OutOrStdout(), s)
		return nil
	},
}

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Show holdings, cash included",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		h, err := newClient().Positions(ctx)
		if err != nil {
			return err
		}
		renderHoldings(cmd.OutOrStdout(), h)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show filled trades",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		fills, err := newClient().History(ctx)
		if err != nil {
			return err
		}
		renderFills(cmd.OutOrStdout(), fills)
		return nil
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List tradable symbols",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		refresh, _ := cmd.Flags().GetBool("refresh")
		a, err := newClient().Assets(ctx, refresh)
		if err != nil {
			return err
		}
		if a.Fallback {
			fmt.Fprintln(cmd.ErrOrStderr(), "broker asset list unavailable; showing defaults")
		}
		for _, s := range a.Symbols {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote SYMBOL",
	Short: "Preview an order without sending it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		side, _ := cmd.Flags().GetString("side")
		qtyStr, _ := cmd.Flags().GetString("qty")
		all, _ := cmd.Flags().GetBool("all")
		qty, err := parseQty(qtyStr)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		q, err := newClient().Quote(ctx, args[0], side, qty, all)
		if err != nil {
			return err
		}
		renderQuote(cmd.OutOrStdout(), q)
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List open orders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		orders, err := newClient().PendingOrders(ctx)
		if err != nil {
			return err
		}
		renderOrders(cmd.OutOrStdout(), orders)
		return nil
	},
}

var buyCmd = &cobra.Command{
	Use:   "buy SYMBOL QTY",
	Short: "Place a day market buy",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := parseQty(args[1])
		if err != nil {
			return err
		}
		return placeOrder(cmd, traderpro.OrderRequest{Symbol: args[0], Side: "buy", Qty: qty})
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell SYMBOL [QTY]",
	Short: "Place a day market sell (--all sells the whole position)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		req := traderpro.OrderRequest{Symbol: args[0], Side: "sell", SellAll: all}
		switch {
		case all:
		case len(args) == 2:
			qty, err := parseQty(args[1])
			if err != nil {
				return err
			}
			req.Qty = qty
		default:
			return fmt.Errorf("give a quantity or --all")
		}
		return placeOrder(cmd, req)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel ORDER_ID",
	Short: "Cancel an open order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := newClient().CancelOrder(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "order %s cancelled\n", args[0])
		return nil
	},
}

func placeOrder(cmd *cobra.Command, req traderpro.OrderRequest) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	o, err := newClient().PlaceOrder(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "submitted %s %s %s (id %s, %s)\n", o.Side, o.Qty, o.Symbol, o.ID, o.Status)
	return nil
}

func init() {
	loginCmd.Flags().Bool("guest", false, "log in read-only")
	loginCmd.Flags().String("password", "", "admin password (default $TRADERPRO_PASSWORD)")

	assetsCmd.Flags().Bool("refresh", false, "bypass the server's cached list")

	quoteCmd.Flags().String("side", "buy", "buy or sell")
	quoteCmd.Flags().String("qty", decimal.NewFromInt(1).String(), "quantity")
	quoteCmd.Flags().Bool("all", false, "sell the whole position")

	sellCmd.Flags().Bool("all", false, "sell the whole position")
}
