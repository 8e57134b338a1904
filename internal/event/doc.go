// Package event defines the closed vocabulary of events the timeline engine
// reacts to.
//
// Every event is a concrete struct implementing the sealed Event interface.
// Consumers switch over the concrete types; the codec switches over Kind.
// Payloads are encoded as RFC 8785 canonical JSON so journaled events hash
// identically across processes.
package event
