package config

import "github.com/getsentry/sentry-go"

// SentryConfig defines settings for Sentry error monitoring.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
	// Transport overrides the HTTP transport, mainly for tests.
	Transport sentry.Transport `json:"-"`
}
