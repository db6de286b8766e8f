// Package auth implements the account lifecycle and credential checks
// behind the social-rest API.
//
// Account lifecycle:
//   - AccountManager registers users as pending, dispatches the confirmation
//     email in the background and moves the account to active once the
//     emailed link is followed. Update only touches email and name; delete is
//     immediate and does not cascade to linked social accounts.
//   - UserStateMachine owns the pending -> active transition graph. Confirming
//     an active user is a no-op.
//
// Credentials:
//   - Authenticator verifies email/password pairs against bcrypt hashes and
//     issues HS256 session tokens that bind the user id for two days. Tokens
//     are never stored, so logout is advisory.
//   - VerifyToken resolves a bearer token back to the full user record; the
//     jwtware middleware uses it to protect routes.
//
// Storage:
//   - NewUsersRepository persists users through bun. Email carries a unique
//     index and violations surface as ErrEmailTaken.
package auth
