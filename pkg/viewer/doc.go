// Package viewer is the host application behind every mdview surface.
//
// A [Viewer] ties the pieces together: it validates and extracts a markdown
// document, renders the diagram, installs the resulting scene, binds the
// viewport engine and the selection controller to it, and keeps a [State]
// that front ends (the terminal UI, the HTTP API) display.
//
// # Loading
//
// Loads are split into three steps so that only the renderer call leaves
// the owning event loop:
//
//   - [Viewer.Open] validates the file name and content, extracts the
//     diagram and starts a new generation.
//   - [Viewer.Render] calls the renderer. It may run on any goroutine.
//   - [Viewer.Complete] installs the result, unless a newer Open has
//     started since, in which case the result is dropped.
//
// After a successful Complete the auto-fit waits for [Viewer.Flush], which
// the host calls on the next turn once the container size is known.
//
// # Status
//
// Input and render failures never abort the viewer; they surface as a
// [Status] banner. Success and info banners expire after [StatusTimeout]
// (see [Viewer.Tick]); errors and banners offering an action stay until
// dismissed or replaced.
package viewer
