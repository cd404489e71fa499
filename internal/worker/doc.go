// Package worker runs background jobs on a fixed pool of goroutines fed by a
// bounded in-memory queue.
//
// The application uses it to deliver board events to slow handlers, such as
// the websocket hub, without holding up the request that committed them.
package worker
