package player

import "errors"

// Expected outcomes. Callers map these to user-facing messages; they are
// never logged as internal failures.
var (
	// ErrNothingPlayable indicates the resolver found no playable track
	// for the submitted link.
	ErrNothingPlayable = errors.New("nothing playable found for link")

	// ErrAttachTimeout indicates the voice connection did not become
	// ready within the configured bound. No queue mutation happened.
	ErrAttachTimeout = errors.New("voice connection did not become ready in time")

	// ErrStreamNotFound is the "not found" class of stream-open failure.
	// Collaborator implementations wrap it so the advance loop can skip
	// the entry without counting it as an unexpected failure.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrNotPlaying is returned by pause/skip when no track is playing.
	ErrNotPlaying = errors.New("no track is currently playing")

	// ErrNotPaused is returned by resume when playback is not paused.
	ErrNotPaused = errors.New("playback is not paused")

	// ErrNothingToStop is returned by stop when the guild has no voice
	// attachment. Stopping twice in a row yields this on the second call.
	ErrNothingToStop = errors.New("nothing to stop")

	// ErrNoSession indicates a contract violation: an internal event
	// arrived for a guild that has no playback session.
	ErrNoSession = errors.New("no playback session for guild")
)
