// Package session owns the authentication lifecycle for the tvplus client.
//
// # State Machine
//
// A session moves between three states:
//
//	Initializing --no persisted token--> Anonymous
//	Initializing --verify ok----------> Authenticated
//	Initializing --verify failed------> Anonymous   (silent forced logout)
//	Anonymous    --login ok-----------> Authenticated
//	Authenticated --logout------------> Anonymous
//
// The invariant across all states: a user record is present if and only if the
// status is Authenticated, and a token is held only while Initializing
// (pending verification) or Authenticated.
//
// # Credential Ownership
//
// [Manager] is the only component allowed to write the bearer credential on
// the directory client and the only writer of the persisted token file. Every
// transition commits session state and credential together under one lock, so
// at most one (token, header) pair is active at any time and the most recently
// completed transition wins.
//
// Other components observe the session through read-only [Snapshot] values or
// by subscribing to transition notifications; they never hold a mutable
// reference to session state.
package session
