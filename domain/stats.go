package domain

// StatsSnapshot is a point-in-time view of the fetch counters.
type StatsSnapshot struct {
	Started   uint64
	Resolved  uint64
	Rejected  uint64
	Cancelled uint64
	InFlight  uint64
	RSSBytes  uint64
}
