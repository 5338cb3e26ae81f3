// Package ui implements an interactive mood picker using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [MoodListView] : Pick one of the five moods
//  2. [GeneratingView] : Follow the workflow states of the run
//  3. [ResultView] : The created playlist, a partial success or the failure message
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the generator; input is ignored while a run is in flight.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
