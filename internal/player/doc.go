// package player selects which stream of a live channel is active.
//
// A channel carries an ordered list of m3u8 stream URLs; the [Selector] opens
// a channel on the first, and switches only when told to. A stream that fails
// to load stays selected with the failure recorded in [Selector.LastError],
// leaving the retry-or-switch decision to the viewer rather than silently
// hopping to the next URL.
//
// Every open and select hands back a generation ticket.
// [Selector.ReportLoadError] requires the ticket the failure was observed
// under, so an error surfacing from a stream the viewer already left is
// dropped instead of tainting the new selection.
package player
