// Package infra contains the adapters around the event core: input
// backends, the MQTT bridge, metrics exporters, the cycle journal and
// error monitoring. They depend on core packages; core never imports them.
package infra
