package player

import (
	"context"
	"io"
)

// Transport is the voice collaborator. An implementation joins a guild's
// voice channel and streams audio bytes to it.
type Transport interface {
	// Attach joins the voice channel and blocks until the connection is
	// ready or ctx expires.
	Attach(ctx context.Context, guildID, channelID string) (Attachment, error)
}

// Attachment is a live voice connection. It is owned exclusively by the
// orchestrator; no other component mutates it.
type Attachment interface {
	// ChannelID returns the voice channel this attachment is bound to.
	ChannelID() string

	// Play starts transmitting the audio stream. The returned channel
	// fires exactly once when the stream finishes or is aborted; a nil
	// value means clean completion. Play takes ownership of src.
	Play(src io.ReadCloser) (<-chan error, error)

	// SetPaused suspends or resumes transmission of the current stream.
	SetPaused(paused bool)

	// Stop aborts the current stream, if any. The done channel from the
	// corresponding Play still fires.
	Stop()

	// Close stops any playback and disconnects from the voice channel.
	Close() error
}
