package events

import "time"

// Started is emitted once by the pipeline's first cycle.
type Started struct {
	Bus  string
	Time time.Time
}

// Tick marks the start of a frame.
type Tick struct {
	Frame uint64
	Delta time.Duration
	Time  time.Time
}

// FrameTiming summarizes recent frame deltas.
type FrameTiming struct {
	Frame   uint64        `json:"frame"`
	Mean    time.Duration `json:"mean"`
	StdDev  time.Duration `json:"stddev"`
	Samples int           `json:"samples"`
}

// RemoteMessage is a command received from a remote broker.
type RemoteMessage struct {
	Topic    string
	Payload  []byte
	Received time.Time
}

// Sample carries a plain integer. Delivery scenarios use it.
type Sample struct {
	Value int
}
