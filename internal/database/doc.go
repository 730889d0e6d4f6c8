// Package database implements the SQLite-backed store for the vault:
// user accounts, sessions, image records, and per-owner tags with their
// image links. Tag uniqueness is enforced by the store's (user_id, name)
// constraint; writers recover from conflicts rather than locking.
package database
