// Package store provides the reconciled project collection for indexwatch.
//
// The main components are:
//
//   - [Apply]: Pure reconciliation of one entry into a collection
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//
// The store is designed for concurrent access with proper synchronization.
// Subscribers receive changed entries via channels with non-blocking sends
// (slow subscribers will miss updates rather than block the system).
package store
