package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MrEthical07/yggauth"
)

type rootOptions struct {
	configFile string
	verbose    bool
}

// NewRootCmd creates the root command for the yggauth CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "yggauth",
		Short: "Manage Mojang accounts",
		Long: `yggauth logs Mojang accounts in against a Yggdrasil authentication
server and keeps their tokens and profiles in Redis.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log task activity to stderr")
	registerConfigFlags(cmd.PersistentFlags())

	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newRefreshCmd(opts))
	cmd.AddCommand(newLogoutCmd(opts))
	cmd.AddCommand(newShowCmd(opts))
	cmd.AddCommand(newSelectCmd(opts))

	return cmd
}

// app is what a subcommand runs against.
type app struct {
	cfg    cliConfig
	engine *yggauth.Engine
	redis  *redis.Client
	logger *zap.Logger
}

func openApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts.configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level := zapcore.WarnLevel
	if opts.verbose {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())),
		level,
	))

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	engine, err := yggauth.New().
		WithConfig(cfg.Config).
		WithLogger(logger).
		WithRedis(rdb).
		Build()
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &app{cfg: cfg, engine: engine, redis: rdb, logger: logger}, nil
}

func (a *app) Close() error {
	err := a.engine.Close()
	if cerr := a.redis.Close(); err == nil {
		err = cerr
	}
	_ = a.logger.Sync()
	return err
}

// withApp opens the app for the duration of run.
func withApp(opts *rootOptions, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}

// restore loads login from the store. When missing is true an unknown login
// yields a fresh account instead of an error.
func (a *app) restore(ctx context.Context, login string, missing bool) (*yggauth.Account, error) {
	acc, err := a.engine.Restore(ctx, login)
	if errors.Is(err, yggauth.ErrAccountNotFound) {
		if missing {
			return a.engine.NewAccount(login), nil
		}
		return nil, fmt.Errorf("no stored account %q", login)
	}
	return acc, err
}

// runTask starts t, waits for it and persists the account whatever the
// outcome, since failures may have changed it too.
func (a *app) runTask(ctx context.Context, acc *yggauth.Account, t *yggauth.Task) error {
	if err := t.Start(ctx); err != nil {
		return err
	}
	taskErr := t.Wait(ctx)
	if acc.Dirty() {
		if err := a.engine.Persist(ctx, acc); err != nil {
			return errors.Join(taskErr, err)
		}
	}
	return taskErr
}
