// Package db reads rows from PostgreSQL for postgres: data files.
//
// A Connector opens a pgx pool using one of several authentication
// methods (password, AWS RDS IAM, Azure Entra ID, Google Cloud SQL IAM).
// Source runs a query on that pool and hands the result set back in
// chunks through the neoload.ChunkReader interface.
package db
