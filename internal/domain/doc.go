// Package domain defines the core domain types and interfaces.
//
// Model types, wire event names/payloads, and the contracts the telemetry
// core consumes (plant store, identity resolver, fault policy). No
// implementation code - just contracts. Prevents circular imports by
// keeping interfaces on the consumer side.
package domain
