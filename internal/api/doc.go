// Package api contains the HTTP handlers for the media registry: the
// admin/ops surface for triggering cleanup passes on demand and the media
// lookup endpoints. Handlers translate between HTTP and the service layer
// and never touch the stores directly.
package api
