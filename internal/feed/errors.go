package feed

// unknownFeedError is returned for feed names other than ps and net.
type unknownFeedError struct{ name string }

func (e unknownFeedError) Error() string { return "unknown feed: " + e.name }

// IsUnknownFeed reports whether err was caused by an unrecognised feed name.
func IsUnknownFeed(err error) bool {
	_, ok := err.(unknownFeedError)
	return ok
}

// unknownNodeError is returned when a node has no Manager yet.
type unknownNodeError struct{ node string }

func (e unknownNodeError) Error() string { return "unknown node: " + e.node }

// IsUnknownNode reports whether err was caused by a node that was never used.
func IsUnknownNode(err error) bool {
	_, ok := err.(unknownNodeError)
	return ok
}

// closedError is returned once a Manager or Pool has been shut down.
type closedError struct{ what string }

func (e closedError) Error() string { return e.what + " closed" }

// IsClosed reports whether err indicates use after Close.
func IsClosed(err error) bool {
	_, ok := err.(closedError)
	return ok
}
