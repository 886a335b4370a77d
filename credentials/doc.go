// Package credentials verifies portal logins against a static table of
// Argon2id password hashes.
//
// The table is loaded from YAML (see [LoadFile]) or built in memory for
// development. [Static] satisfies portalgate.CredentialVerifier.
//
// # What this package must NOT do
//
//   - Store or log plaintext passwords.
//   - Reveal whether a username exists: unknown users cost one hash
//     verification like known ones.
package credentials
