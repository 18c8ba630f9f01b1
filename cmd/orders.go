package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/money"
	"github.com/dealerworks/reconcile-cli/internal/store"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect finalized order history",
	Long:  "Commands for listing and viewing finalized orders and their sessions.",
}

// -- orders list --

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List finalized orders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")

		orders, err := st.ListOrders(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "orders list")
		}

		if len(orders) == 0 {
			fmt.Fprintln(os.Stderr, "No orders found.")
			return nil
		}

		formatOrdersList(os.Stdout, orders)
		return nil
	},
}

// -- orders show --

var ordersShowCmd = &cobra.Command{
	Use:   "show <order-id>",
	Short: "Show full details of a finalized order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		order, err := st.GetOrder(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "orders show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(order)
	},
}

// -- orders sessions --

var ordersSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List reconciliation sessions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		filter := store.SessionFilter{Limit: limit}
		if cmd.Flags().Changed("approved") {
			approved, _ := cmd.Flags().GetBool("approved")
			filter.Approved = &approved
		}

		sessions, err := st.ListSessions(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "orders sessions")
		}

		if len(sessions) == 0 {
			fmt.Fprintln(os.Stderr, "No sessions found.")
			return nil
		}

		formatSessionsList(os.Stdout, sessions)
		return nil
	},
}

func init() {
	ordersListCmd.Flags().Int("limit", 50, "max number of orders to display")
	ordersSessionsCmd.Flags().Int("limit", 50, "max number of sessions to display")
	ordersSessionsCmd.Flags().Bool("approved", false, "filter by approval state")

	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersShowCmd)
	ordersCmd.AddCommand(ordersSessionsCmd)
	rootCmd.AddCommand(ordersCmd)
}

// formatOrdersList writes a tabular list of finalized orders to w.
func formatOrdersList(out io.Writer, orders []model.FinalizedOrder) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tORDER\tITEMS\tTOTAL\tRATE\tAPPROVED")
	_, _ = fmt.Fprintln(w, "--\t-----\t-----\t-----\t----\t--------")

	for _, o := range orders {
		name := o.OrderName
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.1f%%\t%s\n",
			truncateID(o.ID),
			name,
			len(o.Items),
			money.FormatUSD(o.Total),
			o.EffectiveRate,
			o.ApprovedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatSessionsList writes a tabular list of sessions to w.
func formatSessionsList(out io.Writer, sessions []store.SessionRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tORDER\tSTEP\tAPPROVED\tOPEN\tUPDATED")
	_, _ = fmt.Fprintln(w, "--\t-----\t----\t--------\t----\t-------")

	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%s\n",
			truncateID(s.ID),
			s.OrderName,
			s.Step,
			s.Approved,
			s.OpenIssues,
			s.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
