// Command usagectl applies usage-counter transitions out of band.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/edgeslab/edges-backend/internal/app"
	"github.com/edgeslab/edges-backend/internal/domain/billing"
	"github.com/edgeslab/edges-backend/internal/services"
)

func main() {
	if err := rootCmd(os.Stdout, app.NewCore).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type coreFactory func() (*app.App, error)

func rootCmd(out io.Writer, newCore coreFactory) *cobra.Command {
	var (
		userID  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:           "usagectl",
		Short:         "Inspect and repair per-user evaluation usage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&userID, "user", "", "User id (uuid)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	_ = cmd.MarkPersistentFlagRequired("user")

	run := func(fn func(ctx context.Context, usage services.UsageService, uid uuid.UUID) (services.UsageSnapshot, error)) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, _ []string) error {
			uid, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}
			a, err := newCore()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()
			snap, err := fn(ctx, a.Services.Usage, uid)
			if err != nil {
				return err
			}
			return printJSON(out, snap)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current usage snapshot",
		RunE: run(func(ctx context.Context, usage services.UsageService, uid uuid.UUID) (services.UsageSnapshot, error) {
			return usage.Snapshot(ctx, uid), nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Recount evaluations_used from rows saved in the current period",
		RunE: run(func(ctx context.Context, usage services.UsageService, uid uuid.UUID) (services.UsageSnapshot, error) {
			return usage.Reconcile(ctx, uid)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rollover",
		Short: "Start a new billing cycle and reset the counter",
		RunE: run(func(ctx context.Context, usage services.UsageService, uid uuid.UUID) (services.UsageSnapshot, error) {
			return usage.ApplyRollover(ctx, uid)
		}),
	})

	var tier string
	tierCmd := &cobra.Command{
		Use:   "tier",
		Short: "Move the user to another plan",
		RunE: run(func(ctx context.Context, usage services.UsageService, uid uuid.UUID) (services.UsageSnapshot, error) {
			t, err := billing.ParseTier(tier)
			if err != nil {
				return services.UsageSnapshot{}, fmt.Errorf("--tier: %w", err)
			}
			if t == billing.TierFree {
				return usage.ApplyCancellation(ctx, uid)
			}
			return usage.ApplyTierChange(ctx, uid, t, "", "")
		}),
	}
	tierCmd.Flags().StringVar(&tier, "tier", "", "Plan id (free, professional, enterprise)")
	_ = tierCmd.MarkFlagRequired("tier")
	cmd.AddCommand(tierCmd)

	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
