// Package auth provides authentication for the librarium API: bcrypt
// password accounts, hashed API bearer tokens, SQLite-backed sessions for the
// SPA, and the middleware that guards mutating routes.
package auth
