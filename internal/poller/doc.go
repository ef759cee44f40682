// Package poller runs the per-job status polling loops for indexwatch.
//
// The main components are:
//
//   - [Handle]: One cancellable polling loop for a single job id
//   - [Registry]: Job id to handle mapping with at most one handle per id
//
// Users of the indexwatch library should not need to interact with this
// package directly. Polling is driven through [indexwatch.Tracker].
package poller
