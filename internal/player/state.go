package player

import (
	"sync"
	"time"

	"github.com/JankoV12/dis-track/internal/track"
)

// Status is the playback state of one guild's session.
type Status string

const (
	StatusIdle    Status = "Idle"
	StatusLoading Status = "Loading"
	StatusPlaying Status = "Playing"
	StatusPaused  Status = "Paused"
)

// Config carries the orchestrator's tunables. Zero values fall back to the
// documented defaults, so tests can construct a Config with only the fields
// they care about.
type Config struct {
	InactivityTimeout time.Duration
	AttachTimeout     time.Duration
	FailureThreshold  int
}

const (
	defaultInactivityTimeout = 180 * time.Second
	defaultAttachTimeout     = 30 * time.Second
	defaultFailureThreshold  = 3
)

func (c Config) withDefaults() Config {
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = defaultInactivityTimeout
	}
	if c.AttachTimeout <= 0 {
		c.AttachTimeout = defaultAttachTimeout
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = defaultFailureThreshold
	}
	return c
}

// guildState is everything the orchestrator owns for one guild. All fields
// are guarded by mu; the per-guild mutex serializes operations for the guild
// without blocking unrelated guilds.
type guildState struct {
	mu sync.Mutex

	id      string
	status  Status
	current *track.Metadata
	queue   []track.QueueEntry

	attachment Attachment
	channelID  string

	// playGen increments every time playback starts or is torn down.
	// Completion signals and async metadata results carry the generation
	// they were spawned under and are discarded if it no longer matches.
	playGen uint64

	// failures counts consecutive unexpected stream-open failures while
	// advancing. Not-found skips do not count.
	failures int

	// idleTimer is the armed inactivity timer, if any. idleGen identifies
	// the arming; a fired callback whose generation no longer matches was
	// cancelled after firing and must not tear anything down.
	idleTimer *time.Timer
	idleGen   uint64
}

// Snapshot is a read-side copy of one guild's state, safe to use without
// holding any lock. The current-track metadata may still hold placeholder
// values while the async lookup is in flight.
type Snapshot struct {
	GuildID        string
	Status         Status
	Current        *track.Metadata
	Queue          []track.QueueEntry
	VoiceChannelID string
}

// snapshotLocked copies the guild state. Callers must hold g.mu.
func (g *guildState) snapshotLocked() Snapshot {
	snap := Snapshot{
		GuildID:        g.id,
		Status:         g.status,
		Queue:          make([]track.QueueEntry, len(g.queue)),
		VoiceChannelID: g.channelID,
	}
	copy(snap.Queue, g.queue)
	if g.current != nil {
		cur := *g.current
		snap.Current = &cur
	}
	return snap
}

// Outcome is the synchronous result of a play request. Queue growth from
// background expansion is not part of it.
type Outcome struct {
	RequestID string
	// Started is true when the request began playback immediately;
	// false means the track was appended to the queue.
	Started bool
	Ref     track.Ref
}

// Listener observes playback transitions. Notifications are delivered
// asynchronously with a consistent snapshot; implementations must not call
// back into the orchestrator synchronously from PlaybackChanged.
type Listener interface {
	PlaybackChanged(snap Snapshot)
}
