// Package events defines the event types exchanged over the bus by the
// frame loop and its collaborators.
//
// Available event types:
//   - Started: emitted once when the pipeline starts
//   - Tick, FrameTiming: frame clock and rolling frame statistics
//   - Key, CursorPosition, WindowResize: input backend events
//   - RemoteMessage: commands received from the MQTT bridge
//   - Sample: integer payload used by delivery scenarios
package events
