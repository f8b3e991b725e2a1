package feed

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livefeed",
			Subsystem: "feed",
			Name:      "requests_total",
			Help:      "Requests sent over node channels",
		},
		[]string{"feed"},
	)

	coalescedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livefeed",
			Subsystem: "feed",
			Name:      "coalesced_total",
			Help:      "Requests stored in the pending slot while another request was in flight",
		},
		[]string{"feed"},
	)

	responsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livefeed",
			Subsystem: "feed",
			Name:      "responses_total",
			Help:      "Inbound responses by outcome (applied, discarded, parse_error, unsolicited)",
		},
		[]string{"feed", "outcome"},
	)

	channelOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "livefeed",
			Subsystem: "channel",
			Name:      "open",
			Help:      "1 while the node's channel is open",
		},
		[]string{"node"},
	)

	channelRefs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "livefeed",
			Subsystem: "channel",
			Name:      "refs",
			Help:      "Outstanding connect references per node",
		},
		[]string{"node"},
	)

	channelDialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livefeed",
			Subsystem: "channel",
			Name:      "dials_total",
			Help:      "Connection attempts by result",
		},
		[]string{"result"},
	)

	subscriberDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "livefeed",
			Subsystem: "events",
			Name:      "subscriber_drops_total",
			Help:      "Events not delivered because a subscriber buffer was full",
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, coalescedTotal, responsesTotal, channelOpen, channelRefs, channelDialsTotal, subscriberDropsTotal)
}
