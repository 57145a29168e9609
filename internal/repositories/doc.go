// Package repositories implements SQLite persistence for the client's durable session state.
//
// Key Implementations:
//   - [IdentityRepository] : the last known identity, kept in a single-row table so a restart can trust it
//   - [CookieRepository] : the platform session cookies, replaced wholesale whenever the server sets one
//
// Generation jobs are transient and never reach the database.
package repositories
