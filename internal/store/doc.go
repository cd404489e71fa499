// Package store defines interfaces for board data persistence.
// These interfaces abstract the underlying data storage mechanism from the
// task engine, so lifecycle rules stay independent of the database in use.
//
// Every multi-entity mutation goes through a UnitOfWork, which hands the caller
// a Stores bundle bound to a single transaction.
package store
