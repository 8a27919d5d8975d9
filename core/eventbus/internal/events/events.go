// Package events holds event types for the eventbus tests. Key has the same
// qualified name as core/events.Key.
package events

type Key struct {
	Code rune
}
