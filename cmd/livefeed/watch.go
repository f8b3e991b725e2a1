package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"livefeed/internal/feed"
	"livefeed/pkg/types"
)

type watchOptions struct {
	node     string
	kind     feed.Kind
	interval time.Duration
	filter   types.FilterPatch
	once     bool
}

func newWatchCmd(o *options) *cobra.Command {
	var (
		w                    watchOptions
		feedName, endpoint   string
		user, name, procName string
		pid, procID          int32
		port                 uint32
		headers              []string
	)
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Poll one feed of a node and print each snapshot",
		Example: "  livefeed watch --endpoint http://panel:9999/api/v2/process/ws --node local --feed ps --name nginx\n  livefeed watch --feed net --port 22 --once",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := feed.ParseKind(feedName)
			if err != nil {
				return err
			}
			w.kind = k
			if endpoint != "" {
				o.cfg.Endpoint = endpoint
			}
			if len(headers) > 0 {
				h, err := parseHeaders(headers)
				if err != nil {
					return err
				}
				if o.cfg.Headers == nil {
					o.cfg.Headers = map[string]string{}
				}
				for k, v := range h {
					o.cfg.Headers[k] = v
				}
			}
			if w.node == "" {
				w.node = o.cfg.Node
			}
			if w.node == "" {
				w.node = "local"
			}
			if w.interval <= 0 {
				w.interval = o.pollInterval(k)
			}
			f := cmd.Flags()
			if f.Changed("pid") {
				w.filter.PID = &pid
			}
			if f.Changed("user") {
				w.filter.Username = &user
			}
			if f.Changed("name") {
				w.filter.Name = &name
			}
			if f.Changed("process-id") {
				w.filter.ProcessID = &procID
			}
			if f.Changed("process-name") {
				w.filter.ProcessName = &procName
			}
			if f.Changed("port") {
				w.filter.Port = &port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, o, w, cmd.OutOrStdout())
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&w.node, "node", "", "Target node (defaults LIVEFEED_NODE or local)")
	fl.StringVar(&feedName, "feed", string(feed.KindProcess), "Feed to watch: ps|net")
	fl.DurationVar(&w.interval, "interval", 0, "Poll interval (default from config, else 3s)")
	fl.BoolVar(&w.once, "once", false, "Exit after the first snapshot")
	fl.StringVar(&endpoint, "endpoint", "", "Agent websocket endpoint (overrides config)")
	fl.StringArrayVar(&headers, "header", nil, "Extra handshake header Key=Value (repeatable)")
	fl.Int32Var(&pid, "pid", 0, "ps: only this pid")
	fl.StringVar(&user, "user", "", "ps: username substring")
	fl.StringVar(&name, "name", "", "ps: process name substring")
	fl.Int32Var(&procID, "process-id", 0, "net: owning process id")
	fl.StringVar(&procName, "process-name", "", "net: owning process name")
	fl.Uint32Var(&port, "port", 0, "net: local or remote port")
	return cmd
}

// runWatch drives one Manager the way a UI view would: take a reference,
// poll the feed, render accepted snapshots, release on exit.
func runWatch(ctx context.Context, o *options, w watchOptions, out io.Writer) error {
	d, err := o.dialer()
	if err != nil {
		return err
	}
	m := feed.NewWithConfig(o.managerConfig(d))
	defer m.Close()

	if err := m.UpdateFilter(w.kind, w.filter); err != nil {
		return err
	}
	events, cancel := m.Subscribe(0)
	defer cancel()

	m.Connect(w.node)
	defer m.Disconnect()
	if err := m.StartPolling(w.kind, w.interval, 0); err != nil {
		return err
	}

	var lastErr string
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			switch e.Name {
			case feed.EventSnapshotUpdated:
				if err := render(out, m.Store(), w.kind, w.node, e.Time); err != nil {
					return err
				}
				if w.once {
					return nil
				}
			case feed.EventChannelError:
				lastErr, _ = e.Fields["error"].(string)
			case feed.EventResponseParseError:
				o.log.Warn().Interface("fields", e.Fields).Msg("agent sent an unreadable reply")
			case feed.EventStateChanged:
				if to, _ := e.Fields["to"].(string); to == string(feed.StateClosed) {
					if lastErr != "" {
						return fmt.Errorf("channel to %s closed: %s", w.node, lastErr)
					}
					return fmt.Errorf("channel to %s closed", w.node)
				}
			}
		}
	}
}
