// Package config loads dagrun's run-time configuration: scheduler defaults
// (concurrency cap, per-node timeout, deep-copy isolation), logging, and
// observability settings, layered default → config file → environment.
package config
