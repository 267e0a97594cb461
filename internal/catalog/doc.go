// package catalog keeps a channel listing synchronized with the directory
// backend.
//
// The [Synchronizer] owns the displayed state: the active [Scope], the active
// [Filters], the channel items, and the known category set. Every listing
// fetch is stamped with the scope and filters it was issued for, and its
// response is applied only while that identity is still current; responses
// for superseded scope or filter combinations are discarded, whatever order
// they complete in.
//
// Owned-scope reads and all mutations require an authenticated session and
// are refused locally with [shared.ErrAuthRequired] before any request is
// issued. When the session drops, [Synchronizer.HandleSession] moves the
// scope back to public.
//
// Listing reads that fail leave previously displayed items untouched. When a
// [Cache] is configured, unfiltered public listings are written through to it
// and served from it when the backend is unreachable with nothing displayed.
package catalog
