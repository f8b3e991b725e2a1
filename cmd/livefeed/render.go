package main

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"livefeed/internal/feed"
	"livefeed/pkg/types"
)

func render(out io.Writer, s *feed.Store, k feed.Kind, node string, at time.Time) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	switch k {
	case feed.KindProcess:
		recs := s.Processes()
		fmt.Fprintf(out, "== %s %s: %d processes at %s ==\n", node, k, len(recs), at.Format(time.TimeOnly))
		writeProcesses(tw, recs)
	case feed.KindNetwork:
		recs := s.Connections()
		fmt.Fprintf(out, "== %s %s: %d connections at %s ==\n", node, k, len(recs), at.Format(time.TimeOnly))
		writeConnections(tw, recs)
	}
	return tw.Flush()
}

func writeProcesses(tw io.Writer, recs []types.ProcessRecord) {
	fmt.Fprintln(tw, "PID\tPPID\tUSER\tSTATUS\tCPU\tRSS\tTHREADS\tNAME")
	for _, p := range recs {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			p.PID, p.PPID, p.Username, p.Status, cpu(p), humanize.Bytes(p.RSSValue), p.NumThreads, p.Name)
	}
}

func writeConnections(tw io.Writer, recs []types.ConnectionRecord) {
	fmt.Fprintln(tw, "TYPE\tSTATUS\tLOCAL\tREMOTE\tPID\tNAME")
	for _, c := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			c.Type, c.Status, addr(c.LocalAddr), addr(c.RemoteAddr), c.PID, c.Name)
	}
}

// cpu prefers the agent's formatted percentage.
func cpu(p types.ProcessRecord) string {
	if p.CPUPercent != "" {
		return p.CPUPercent
	}
	return strconv.FormatFloat(p.CPUValue, 'f', 2, 64) + "%"
}

func addr(a types.Addr) string {
	if a.IP == "" && a.Port == 0 {
		return "-"
	}
	return net.JoinHostPort(a.IP, strconv.FormatUint(uint64(a.Port), 10))
}
