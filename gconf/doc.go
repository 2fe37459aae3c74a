/*
Package gconf implements a configuration store intended to be used as a
per-domain, in-database configuration.

Each extension declares its own configuration type that knows how to
validate and serialize itself. Configuration is loaded from the genesis file
once, validated and stored under a "_c:<package>" key of the domain store.
From then on extensions read it from the store, so every transaction sees
the same values.

Not being able to load a configuration is a critical condition for the
domain. Extensions are expected to return the error to the caller and the
domain must be configured correctly before it can serve requests.
*/
package gconf
