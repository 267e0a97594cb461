// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing and watching channels:
//  1. [BrowseView] : Navigate the public or owned channel listing
//  2. [SearchView] : Edit the search filter applied to the listing
//  3. [LoginView] : Sign in to reach owned channels
//  4. [PlayerView] : Pick which of a channel's streams is active
//  5. [ConfirmDeleteView] : Confirm removal of an owned channel
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Session transitions flow in through a channel fed by the session manager's
// subscription, so a forced logout downgrades the browse scope immediately.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
