// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package. It handles
// connection setup, the embedded schema migrations, query execution and data
// mapping between domain entities and database records.
//
// Stores are constructed over store.DBTX so they work on a *sql.DB or inside
// the *sql.Tx opened by UnitOfWork.Within.
package postgres
