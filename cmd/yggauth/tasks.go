package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/yggauth"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Log an account in and store its tokens",
		Long: `Log an account in with its password. The password is read from the
terminal, or from the first line of stdin when stdin is not a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			acc, err := a.restore(ctx, args[0], true)
			if err != nil {
				return err
			}
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if err := a.runTask(ctx, acc, acc.CreateLoginTask(args[0], password)); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			printSummary(cmd, acc)
			return nil
		}),
	}
}

type checkOptions struct {
	attempts uint64
	backoff  time.Duration
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	copts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <username>",
		Short: "Validate the stored session, refreshing it when expired",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			acc, err := a.restore(ctx, args[0], false)
			if err != nil {
				return err
			}
			if err := runCheck(ctx, a, acc, copts); err != nil {
				return fmt.Errorf("check: %w", err)
			}
			printSummary(cmd, acc)
			return nil
		}),
	}

	cmd.Flags().Uint64Var(&copts.attempts, "retries", 3, "retries on network errors")
	cmd.Flags().DurationVar(&copts.backoff, "backoff", 500*time.Millisecond, "initial retry backoff")

	return cmd
}

// runCheck issues a new check task per attempt. Only network failures are
// retried; the account's status is left as the last task set it.
func runCheck(ctx context.Context, a *app, acc *yggauth.Account, opts *checkOptions) error {
	b := retry.WithMaxRetries(opts.attempts, retry.NewExponential(opts.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := a.runTask(ctx, acc, acc.CreateCheckTask())
		if errors.Is(err, yggauth.ErrNetwork) {
			a.logger.Sugar().Debugw("check: retrying", "account", acc.LoginUsername(), "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <username>",
		Short: "Trade the stored tokens for a new access token",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			acc, err := a.restore(ctx, args[0], false)
			if err != nil {
				return err
			}
			if err := a.runTask(ctx, acc, acc.CreateRefreshTask()); err != nil {
				return fmt.Errorf("refresh: %w", err)
			}
			printSummary(cmd, acc)
			return nil
		}),
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "logout <username>",
		Short: "Invalidate the stored session",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			acc, err := a.restore(ctx, args[0], false)
			if err != nil {
				return err
			}
			if err := a.runTask(ctx, acc, acc.CreateLogoutTask()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			if forget {
				if err := a.engine.Forget(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: forgotten\n", args[0])
				return nil
			}
			printSummary(cmd, acc)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&forget, "forget", false, "also delete the stored account")

	return cmd
}
