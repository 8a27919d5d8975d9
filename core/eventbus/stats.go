package eventbus

// Stats counts the work done by a bus since the previous TakeStats call.
type Stats struct {
	// Flushes is the number of Flush runs, including the ones performed
	// inside Process.
	Flushes int
	// Expired is the number of observers removed because they were
	// reclaimed.
	Expired int
	// EachDelivered and LastDelivered count values handed to callbacks.
	EachDelivered int
	LastDelivered int
	// EachByType and LastByType break deliveries down by event type, keyed
	// by TypeName.
	EachByType map[string]int
	LastByType map[string]int
}

func (s *Stats) reset() {
	*s = Stats{EachByType: make(map[string]int), LastByType: make(map[string]int)}
}

// TakeStats returns the counters accumulated since the last call and resets
// them.
func (b *Bus) TakeStats() Stats {
	s := b.stats
	b.stats.reset()
	return s
}
