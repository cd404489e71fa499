// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It adapts the board services to a JSON API and
// maps their errors to status codes without leaking internal detail.
package api
