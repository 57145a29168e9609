// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// Views follow the current route of the [auth.Navigator]:
//  1. [InitializingView] : spinner while the session initializes; nothing else renders before it settles
//  2. [LoginView] : username and password form driving [auth.Coordinator.Login]
//  3. [NotebookListView] : admin landing list
//  4. [ModuleListView] : learner landing list
//  5. [ArtifactView] : artifact listing of one notebook, polled while something generates
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// The artifact view owns a poll loop scoped to a cancellable context. Leaving the view cancels it, and
// every message carries the generation of the loop that produced it so late messages are dropped.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
