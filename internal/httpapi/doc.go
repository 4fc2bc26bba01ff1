// Package httpapi exposes playback status and controls over a small
// JSON API, used by the companion CLI and for manual inspection.
package httpapi
