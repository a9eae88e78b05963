// Package scheduler converts noisy per-repository change signals into a
// bounded stream of refresh triggers.
//
// The Debouncer maintains one quiet timer per repository: every incoming
// signal resets the timer, and a single trigger fires once the window
// elapses with no further signals. The Poller independently triggers every
// registered repository at a fixed interval as a correctness backstop
// against missed filesystem events. Both feed the same trigger function;
// per-repository concurrency is bounded downstream by the status cell.
package scheduler
