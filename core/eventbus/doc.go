// Package eventbus multiplexes many event types over per-type channels and
// turns them into two callback delivery disciplines.
//
//   - Each: every value queued since the last flush is delivered, in order,
//     to every registered callback.
//   - Last: only the most recent value since the last flush is delivered,
//     once, to every registered callback.
//
// Channels and callback groups are created lazily on first access and shared
// by every caller that asks for the same event type:
//
//	bus := eventbus.New()
//	eventbus.Each(bus, func(k events.Key) { ... })
//	eventbus.Last(bus, func(c events.CursorPosition) { ... })
//
//	keys := eventbus.RequestSender[events.Key](bus)
//	go func() { keys.Push(events.Key{Code: 'q'}) }() // any goroutine
//
//	bus.Process() // frame goroutine
//
// Observers are held weakly: once the owner drops its last reference and the
// garbage collector reclaims the observer, the next Process removes it.
//
// # Concurrency
//
// Senders and Receivers are safe for concurrent use. The Bus itself (its
// registries, observer list and Process) is not synchronized and must be
// driven from a single goroutine.
package eventbus
