// Package accounts implements the account backend for the finance API:
// sign-up, sign-in, password hashing, and bearer token issuance.
//
// Credential handling:
//   - Passwords are hashed with bcrypt and never stored in cleartext.
//     ComparePasswordAndHash is the only way to check a password, and unknown
//     emails and wrong passwords share a single generic error so clients
//     cannot enumerate accounts.
//
// Tokens:
//   - TokenService signs HS256 JWTs whose subject is the account id. The
//     signing secret is process wide, loaded once at startup, and its absence
//     is a fatal configuration error. Tokens default to a seven day expiry.
//     The latest issued token is cached on the user record as an
//     informational field, not a security boundary.
//
// Persistence:
//   - Users are stored via Bun with a unique index on email; the storage
//     layer, not the service level existence check, is what guarantees
//     uniqueness under concurrent sign-ups.
package accounts
