// Package database opens the sqlite speaker database through gorm.
//
// DB adds connection retries, pool settings, a gorm logger backed by the
// voiceid logger, and a transaction helper. Component wraps DB for the
// component registry and runs auto-migration for registered models on Start.
package database
