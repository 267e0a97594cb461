// Package models defines domain entities for the tvplus channel directory client.
//
// The package contains plain data types shared across the client core:
//   - [User] : Directory account identity returned by the backend
//   - [Channel] : A directory entry carrying one or more stream URLs
//   - [ChannelDraft] : Unvalidated channel form state before submission
//
// Drafts are immutable values; edits replace the whole draft. [ChannelDraft.Sanitize]
// drops blank URL entries before submission so empty strings are never persisted.
package models
