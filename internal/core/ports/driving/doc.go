// Package driving provides interfaces for external actors (primary/inbound ports).
//
// The HTTP API and CLI depend on these interfaces; core services
// implement them.
package driving
