// Package repositories implements the SQLite listing cache.
//
// [ChannelRepository] stores the last successful backend responses so that
// listings and categories stay browsable when the directory is unreachable.
// Rows are a verbatim snapshot keyed by scope, replaced wholesale on every
// successful fetch; there is no per-row lifecycle beyond that.
package repositories
