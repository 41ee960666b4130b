// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
//
// Core services depend on these interfaces; adapters under
// internal/adapters/driven implement them. Nothing in this package may
// import adapter code.
package driven
