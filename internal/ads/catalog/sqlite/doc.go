// Package sqlite provides the SQLite-backed ad catalog.
//
// Positions are returned in insertion order (by row id) and each position's
// sizes are ordered by width then height, so page output stays stable across
// renders for the same catalog contents.
package sqlite
