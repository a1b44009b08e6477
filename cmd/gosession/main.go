// Command gosession inspects, mints and exercises session credentials
// against a real HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/notify"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

type options struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	noColor    bool
	lang       string

	store      string
	storePath  string
	passphrase string
	redisAddr  string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "gosession",
		Short:         "Inspect, mint and exercise session credentials",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnv(opts.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			opts.fillFromEnv()

			logger := logging.Setup("gosession", version, opts.logFormat,
				logging.ParseLevel(opts.logLevel), opts.noColor, os.Stderr)
			slog.SetDefault(logger)
			notify.SetDefault(notify.NewTerminalSink(os.Stderr, opts.noColor))
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before flags are resolved")
	f.StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	f.StringVar(&opts.logFormat, "log-format", "console", "console, text or json")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	f.StringVar(&opts.lang, "lang", "", "language for user-facing messages")
	f.StringVar(&opts.store, "store", "file", "credential storage: file, redis, miniredis or memory")
	f.StringVar(&opts.storePath, "store-path", "", "sealed credential file (default $GOSESSION_STORE_PATH or ~/.gosession/credential)")
	f.StringVar(&opts.passphrase, "passphrase", "", "passphrase for the sealed file (default $GOSESSION_PASSPHRASE)")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "redis address (default $REDIS_ADDR)")

	root.AddCommand(
		newInspectCmd(),
		newMintCmd(),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newProbeCmd(opts),
		newLintCmd(opts),
	)
	return root
}

// loadEnv reads a dotenv file without overriding the environment. A missing
// default file is fine; a missing explicit one is not.
func loadEnv(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (o *options) fillFromEnv() {
	if o.storePath == "" {
		o.storePath = os.Getenv("GOSESSION_STORE_PATH")
	}
	if o.passphrase == "" {
		o.passphrase = os.Getenv("GOSESSION_PASSPHRASE")
	}
	if o.redisAddr == "" {
		o.redisAddr = os.Getenv("REDIS_ADDR")
	}
	if o.lang == "" {
		o.lang = os.Getenv("GOSESSION_LANG")
	}
}

func (o *options) config() (goSession.Config, error) {
	cfg := goSession.DefaultConfig()
	if o.configPath != "" {
		loaded, err := goSession.LoadConfigFile(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	cfg.Service.Name = "gosession"
	cfg.Service.Version = version
	if o.lang != "" {
		cfg.Language = o.lang
	}
	return cfg, cfg.Validate()
}
