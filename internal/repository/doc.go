// Package repository defines the data access interfaces for roadviz.
//
// Two stores are persisted: imported road networks, so a large GeoJSON
// extract only needs parsing once, and the record of every traversal run.
// The implementation lives in the sqlite subpackage, which migrates its
// schema on open and is tested against in-memory databases.
package repository
