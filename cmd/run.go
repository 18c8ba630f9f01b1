package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dealerworks/reconcile-cli/internal/discount"
	"github.com/dealerworks/reconcile-cli/internal/export"
	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/money"
	"github.com/dealerworks/reconcile-cli/internal/session"
	"github.com/dealerworks/reconcile-cli/internal/warranty"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile a single order end to end",
	Long:  "Loads an order seed (or the built-in demo), auto-fixes discrepancies, applies pricing, and finalizes the order.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		orderPath, _ := cmd.Flags().GetString("order")
		autoFix, _ := cmd.Flags().GetBool("autofix")
		warrantyTier, _ := cmd.Flags().GetString("warranty")
		enableIDs, _ := cmd.Flags().GetStringSlice("enable-discount")
		disableIDs, _ := cmd.Flags().GetStringSlice("disable-discount")
		exportPath, _ := cmd.Flags().GetString("export")
		save, _ := cmd.Flags().GetBool("save")

		order, err := loadOrder(orderPath)
		if err != nil {
			return err
		}

		sess := session.New(order, sessionOptions())
		zap.L().Info("session started",
			zap.String("session_id", sess.ID),
			zap.String("order", order.Name),
			zap.Int("items", len(order.Items)),
		)

		if autoFix {
			fixed, err := sess.AutoFix(ctx)
			if err != nil {
				return eris.Wrap(err, "run: auto-fix")
			}
			zap.L().Info("auto-fix complete", zap.Int("resolved", fixed))
		}

		if warrantyTier != "" {
			updated, err := sess.ApplyWarranty(warrantyTier, warranty.ScopeAll, "")
			if err != nil {
				return eris.Wrap(err, "run: apply warranty")
			}
			zap.L().Info("warranty applied", zap.String("tier", warrantyTier), zap.Int("items", updated))
		}

		step, open := sess.Advance()
		if step == model.StepReview {
			formatQueue(os.Stdout, sess)
			return eris.Errorf("run: %d open issues remain; resolve them or pass --autofix", open)
		}

		for _, id := range enableIDs {
			if err := sess.EnableDiscount(id, true); err != nil {
				return eris.Wrap(err, "run: enable discount")
			}
		}
		for _, id := range disableIDs {
			if err := sess.EnableDiscount(id, false); err != nil {
				return eris.Wrap(err, "run: disable discount")
			}
		}

		sess.Advance() // discount -> finalize

		finalized, ok := sess.Approve()
		if !ok {
			return eris.New("run: approval rejected")
		}

		formatOrder(os.Stdout, *finalized, sess.Pricing())

		if save {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			if err := st.SaveSession(ctx, sessionRecord(sess)); err != nil {
				return err
			}
			if err := st.SaveOrder(ctx, *finalized); err != nil {
				return err
			}
			zap.L().Info("order saved", zap.String("order_id", finalized.ID))
		}

		if exportPath != "" {
			if err := export.WriteOrderXLSX(*finalized, exportPath); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "\nExported to %s\n", exportPath)
		}

		return nil
	},
}

func init() {
	runCmd.Flags().String("order", "", "path to an order seed YAML or dealer XLSX sheet (default: built-in demo order)")
	runCmd.Flags().Bool("autofix", false, "auto-accept every open discrepancy before advancing")
	runCmd.Flags().String("warranty", "", "apply a warranty tier to all items (e.g. 'Extended Warranty')")
	runCmd.Flags().StringSlice("enable-discount", nil, "discount rule IDs to enable")
	runCmd.Flags().StringSlice("disable-discount", nil, "discount rule IDs to disable")
	runCmd.Flags().String("export", "", "write the finalized order to an XLSX file")
	runCmd.Flags().Bool("save", false, "persist the session and finalized order to the store")
	rootCmd.AddCommand(runCmd)
}

// formatQueue writes the open discrepancies to w.
func formatQueue(out io.Writer, sess *session.Session) {
	open := sess.Queue()
	if len(open) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tSEVERITY\tTITLE")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t-----")
	for _, d := range open {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Type, d.Severity, d.Title)
	}
	_ = w.Flush()
}

// formatOrder writes the finalized order summary to w.
func formatOrder(out io.Writer, order model.FinalizedOrder, pricing discount.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Order:\t%s\n", order.OrderName)
	_, _ = fmt.Fprintf(w, "Line items:\t%d\n", len(order.Items))
	_, _ = fmt.Fprintf(w, "Subtotal:\t%s\n", money.FormatUSD(pricing.Subtotal))
	_, _ = fmt.Fprintf(w, "Discount:\t-%s (%.1f%%)\n", money.FormatUSD(pricing.TotalDiscount), pricing.EffectiveRate)
	_, _ = fmt.Fprintf(w, "Total:\t%s\n", money.FormatUSD(pricing.FinalTotal))
	_, _ = fmt.Fprintf(w, "Approved:\t%s\n", order.ApprovedAt.Format("2006-01-02 15:04:05 MST"))
	_ = w.Flush()
}
