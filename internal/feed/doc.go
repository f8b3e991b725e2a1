// Package feed multiplexes the process and network telemetry feeds of a
// managed node over one persistent channel. It is structured into small files
// by concern:
//
//   - manager.go: Manager type, its loop, status and filter accessors.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - lifecycle.go: Connect/Disconnect reference counting and debounced teardown.
//   - gate.go: single-flight request gate with one overwritable pending slot.
//   - poller.go: StartPolling/StopPolling, readiness wait and interval ticks.
//   - router.go: attributes each inbound message to the in-flight feed.
//   - store.go, filter.go: per-feed snapshot, flags and filter criteria.
//   - events.go, broadcast.go, eventpub_memory.go: event publishing.
//   - pool.go: one Manager per node.
//
// The wire protocol has no message id. A reply is matched to the request by
// order alone, which is why at most one request is ever outstanding per
// channel; the transport must deliver replies in order, one per request.
package feed
