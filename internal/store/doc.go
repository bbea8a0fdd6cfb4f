// Package store holds the two keyed stores the bot depends on besides the
// row store: period counters used for ticket numbers, and the transient
// per-user conversation state. Each has an in-process or SQL implementation
// and a Redis implementation for multi-instance deployments.
package store
