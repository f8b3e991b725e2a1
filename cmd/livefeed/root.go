package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"livefeed/internal/channel"
	"livefeed/internal/config"
	"livefeed/internal/feed"
)

const (
	defaultAddr     = ":8090"
	defaultLogLevel = "info"
)

// options is the state shared by all subcommands once flags are parsed.
type options struct {
	configPath string
	logLevel   string
	pretty     bool
	stderr     io.Writer

	cfg config.Config
	log zerolog.Logger
}

// buildRootCmd is the entry point used by main.
func buildRootCmd() *cobra.Command {
	return buildRootCmdWith(&options{stderr: os.Stderr}, os.LookupEnv)
}

// buildRootCmdWith constructs the command tree. lookup resolves LIVEFEED_*
// overrides and is swapped out in tests.
func buildRootCmdWith(o *options, lookup func(string) (string, bool)) *cobra.Command {
	root := &cobra.Command{
		Use:           "livefeed",
		Short:         "Live process and network telemetry from node agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&o.configPath, "config", "", "Config file (.yaml, .yml, .json or .toml)")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults LIVEFEED_LOG_LEVEL or info)")
	root.PersistentFlags().BoolVar(&o.pretty, "pretty", false, "Human-readable console logs instead of JSON")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return o.load(lookup)
	}

	root.AddCommand(newServeCmd(o), newWatchCmd(o))

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	root.AddCommand(completionCmd)
	return root
}

// load resolves configuration: file, then environment, then flags.
func (o *options) load(lookup func(string) (string, bool)) error {
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		o.cfg = cfg
	}
	if err := o.cfg.ApplyEnv(lookup); err != nil {
		return err
	}
	if o.logLevel != "" {
		o.cfg.LogLevel = o.logLevel
	}
	if o.cfg.LogLevel == "" {
		o.cfg.LogLevel = defaultLogLevel
	}
	lvl, err := zerolog.ParseLevel(o.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", o.cfg.LogLevel)
	}
	var w io.Writer = o.stderr
	if o.pretty {
		w = zerolog.ConsoleWriter{Out: o.stderr, TimeFormat: time.Kitchen}
	}
	o.log = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return nil
}

// dialer builds the websocket dialer from the resolved config.
func (o *options) dialer() (*channel.WSDialer, error) {
	if o.cfg.Endpoint == "" {
		return nil, fmt.Errorf("no agent endpoint configured (set endpoint in the config file or LIVEFEED_ENDPOINT)")
	}
	h := http.Header{}
	for k, v := range o.cfg.Headers {
		h.Set(k, v)
	}
	return &channel.WSDialer{
		Endpoint: o.cfg.Endpoint,
		Header:   h,
		Logger:   o.log,
	}, nil
}

func (o *options) managerConfig(d channel.Dialer) feed.ManagerConfig {
	return feed.ManagerConfig{
		Dialer:            d,
		GraceWindow:       config.Millis(o.cfg.GraceMS),
		ReadyPollInterval: config.Millis(o.cfg.ReadyPollMS),
		ReadyTimeout:      config.Millis(o.cfg.ReadyTimeoutMS),
		DialTimeout:       config.Millis(o.cfg.DialTimeoutMS),
		Logger:            o.log,
	}
}

// pollInterval returns the configured cadence for k, zero meaning default.
func (o *options) pollInterval(k feed.Kind) time.Duration {
	if k == feed.KindNetwork {
		return config.Millis(o.cfg.NetIntervalMS)
	}
	return config.Millis(o.cfg.PSIntervalMS)
}

// parseHeaders turns repeated "Key=Value" flags into a map.
func parseHeaders(in []string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for _, kv := range in {
		k, v, ok := strings.Cut(kv, "=")
		if k = strings.TrimSpace(k); !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q, want Key=Value", kv)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// splitCSV splits a comma-separated list, dropping empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
