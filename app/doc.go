/*
Package app ties the ledger extensions of a single domain together.

A Domain owns the store of one domain together with its ledger, rate
governor, vault and bridge. Every external call is serialized and runs in
its own cache-wrapped transaction: a call that fails, or panics, leaves no
trace in the store.
*/
package app
