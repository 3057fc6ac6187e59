// Package auth gates the admin console: only administrator accounts (owner
// or admin role) get past it. It provides bcrypt password handling, cookie
// sessions backed by SQLite, bearer API tokens, CSRF protection for browser
// flows, and login rate limiting.
//
// The record-management core never consults this package; it assumes every
// request that reaches it was already authorized here.
package auth
