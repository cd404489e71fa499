// Package mocks provides hand-written test doubles for service interfaces
// that are awkward to exercise for real in HTTP-level tests.
package mocks
