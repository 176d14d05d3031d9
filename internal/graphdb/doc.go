// Package graphdb implements neoload.SessionFactory on the official Neo4j
// Go driver. One Driver is shared by the whole process; sessions are cheap
// and opened per goroutine.
package graphdb
