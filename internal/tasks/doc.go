// package tasks implements bulk export of channel listings.
//
// The core abstraction is [ExportEngine], which renders a listing to an
// external format and optionally refreshes each channel's stream list first
// through a rate-limited worker pool. Operations emit [ProgressUpdate] values
// via channels for non-blocking status reporting to CLI/UI layers.
package tasks
