// Package adp implements the AVDECC Discovery Protocol state machine.
//
// The state machine advertises local entities, answers ENTITY_DISCOVER
// requests and tracks the liveness of every entity seen on the network.
// Events are reported through a Delegate, called with the owner's lock
// held; the delegate is expected to defer user callbacks to the executor.
//
// Advertisements sent for local entities are also fed back into the
// tracking table, so a process sees its own entities come online the same
// way it sees remote ones.
package adp
