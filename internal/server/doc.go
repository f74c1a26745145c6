// Package server exposes viewer sessions over HTTP.
//
// Each session owns one [viewer.Viewer]. Clients load a document, send
// interaction commands (pointer events, zoom keys, selection, search) and
// read back the host state and the highlighted SVG scene. State changes are
// pushed to websocket subscribers.
//
// # Routes
//
//	GET    /healthz
//	GET    /metrics
//	POST   /api/v1/sessions
//	GET    /api/v1/sessions/{id}
//	DELETE /api/v1/sessions/{id}
//	POST   /api/v1/sessions/{id}/document
//	GET    /api/v1/sessions/{id}/scene
//	GET    /api/v1/sessions/{id}/graph
//	POST   /api/v1/sessions/{id}/commands
//	GET    /api/v1/sessions/{id}/ws
//
// A session is driven by one goroutine at a time (its mutex); only the
// renderer call of a document load runs outside the lock, so a slow render
// superseded by a newer upload is discarded by the viewer's generation
// check.
package server
