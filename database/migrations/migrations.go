// Package migrations contains all database migrations.
// Each migration file uses init() to call migration.Register().
// This package is imported by cmd/storefront so every migration is
// registered at CLI startup.
package migrations
