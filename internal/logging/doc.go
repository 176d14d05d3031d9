// Package logging provides concrete implementations of the neoload.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: writes formatted lines to stderr (or any writer), optionally styled
//   - NullLogger: discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
