// Package player is the playback orchestrator: it owns every guild's queue
// and session, decides immediate-play versus enqueue, advances the queue on
// completion with skip-on-failure semantics, and tears sessions down after
// inactivity.
//
// Concurrency model: a per-guild mutex serializes all mutations for that
// guild. Asynchronous results (playback completion, metadata lookups,
// background expansion) re-enter through methods that take the same mutex
// and carry a generation token so stale results are discarded. There is no
// global lock across guilds beyond the registry map itself.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JankoV12/dis-track/internal/generator"
	"github.com/JankoV12/dis-track/internal/metacache"
	"github.com/JankoV12/dis-track/internal/track"
)

type Orchestrator struct {
	source    Source
	transport Transport
	cache     *metacache.Cache
	cfg       Config
	requestID generator.Generator[string]

	mu       sync.Mutex
	guilds   map[string]*guildState
	listener Listener
}

// New creates an orchestrator. The cache may be shared with read-side
// consumers such as presenters.
func New(source Source, transport Transport, cache *metacache.Cache, cfg Config) *Orchestrator {
	return &Orchestrator{
		source:    source,
		transport: transport,
		cache:     cache,
		cfg:       cfg.withDefaults(),
		requestID: &generator.RequestIDGenerator{},
		guilds:    make(map[string]*guildState),
	}
}

// SetListener registers the observer notified on playback transitions.
func (o *Orchestrator) SetListener(l Listener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listener = l
}

// guild returns the state for guildID, creating it lazily.
func (o *Orchestrator) guild(guildID string) *guildState {
	o.mu.Lock()
	defer o.mu.Unlock()

	g, ok := o.guilds[guildID]
	if !ok {
		g = &guildState{id: guildID, status: StatusIdle}
		o.guilds[guildID] = g
	}
	return g
}

// lookup returns the state for guildID without creating it.
func (o *Orchestrator) lookup(guildID string) *guildState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.guilds[guildID]
}

// SubmitPlayRequest resolves link and either starts playback in channelID or
// appends to the guild's queue. Remaining playlist members are expanded in
// the background; the returned Outcome covers only the synchronous part.
func (o *Orchestrator) SubmitPlayRequest(ctx context.Context, link, guildID, channelID, requester string) (Outcome, error) {
	reqID, err := o.requestID.Next()
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to generate request id: %w", err)
	}
	log := slog.With("requestID", reqID, "guildID", guildID, "link", link)

	first, err := o.source.ResolveFirst(ctx, link)
	expandInBackground := true
	var rest []track.Ref
	if err != nil || first == "" {
		// Fall back to full expansion before giving up.
		all, allErr := o.source.ResolveAll(ctx, link)
		if allErr != nil || len(all) == 0 {
			log.Info("nothing playable for link")
			return Outcome{RequestID: reqID}, ErrNothingPlayable
		}
		first = all[0]
		rest = all[1:]
		expandInBackground = false
	}

	entries := make([]track.QueueEntry, 0, 1+len(rest))
	entries = append(entries, track.QueueEntry{Ref: first, Requester: requester})
	for _, ref := range rest {
		entries = append(entries, track.QueueEntry{Ref: ref, Requester: requester})
	}

	g := o.guild(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()

	var outcome Outcome
	if g.current == nil {
		if err := o.ensureAttachedLocked(ctx, g, channelID); err != nil {
			log.Warn("voice attach failed", "channelID", channelID, "error", err)
			return Outcome{RequestID: reqID}, err
		}
		g.queue = append(g.queue, entries...)
		o.advanceLocked(g)
		if g.current == nil && len(g.queue) == 0 && !expandInBackground {
			return Outcome{RequestID: reqID}, ErrNothingPlayable
		}
		outcome = Outcome{RequestID: reqID, Started: g.current != nil, Ref: first}
	} else {
		g.queue = append(g.queue, entries...)
		log.Info("track added to queue", "position", len(g.queue))
		o.notifyLocked(g)
		outcome = Outcome{RequestID: reqID, Started: false, Ref: first}
	}

	if expandInBackground {
		go o.expand(link, first, guildID, requester)
	}

	return outcome, nil
}

// Pause suspends playback. Valid only while playing.
func (o *Orchestrator) Pause(guildID string) error {
	g := o.lookup(guildID)
	if g == nil {
		return ErrNotPlaying
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusPlaying {
		return ErrNotPlaying
	}
	g.attachment.SetPaused(true)
	g.status = StatusPaused
	o.notifyLocked(g)
	return nil
}

// Resume continues paused playback. Valid only while paused.
func (o *Orchestrator) Resume(guildID string) error {
	g := o.lookup(guildID)
	if g == nil {
		return ErrNotPaused
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusPaused {
		return ErrNotPaused
	}
	g.attachment.SetPaused(false)
	g.status = StatusPlaying
	o.notifyLocked(g)
	return nil
}

// Skip aborts the current track and advances the queue. Valid whenever the
// session is not idle.
func (o *Orchestrator) Skip(guildID string) error {
	g := o.lookup(guildID)
	if g == nil {
		return ErrNotPlaying
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == StatusIdle {
		return ErrNotPlaying
	}
	// Invalidate the completion watcher before aborting so the advance
	// below is the only one that runs.
	g.playGen++
	if g.attachment != nil {
		g.attachment.Stop()
	}
	slog.Info("track skipped", "guildID", guildID)
	o.advanceLocked(g)
	return nil
}

// Stop clears the queue, destroys the voice attachment, and forces Idle.
// Valid whenever an attachment exists; stopping an already-stopped guild
// reports ErrNothingToStop without side effects.
func (o *Orchestrator) Stop(guildID string) error {
	g := o.lookup(guildID)
	if g == nil {
		return ErrNothingToStop
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.attachment == nil {
		return ErrNothingToStop
	}

	g.playGen++
	g.queue = nil
	g.current = nil
	g.status = StatusIdle
	o.detachLocked(g)
	o.cancelIdleTimerLocked(g)
	slog.Info("playback stopped", "guildID", guildID)
	o.notifyLocked(g)
	return nil
}

// OnPlaybackIdle is the completion handler for the voice transport's
// track-finished signal when driven externally. Internal completion is
// already handled by the watcher goroutine; this entry point exists for
// transports that deliver idle events out of band.
func (o *Orchestrator) OnPlaybackIdle(guildID string) error {
	g := o.lookup(guildID)
	if g == nil {
		return ErrNoSession
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.playGen++
	o.advanceLocked(g)
	return nil
}

// OccupancyChanged feeds voice channel occupancy into the inactivity
// monitor. humans is the number of non-bot members in the guild's voice
// target after the change.
func (o *Orchestrator) OccupancyChanged(guildID string, humans int) {
	g := o.lookup(guildID)
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.attachment == nil {
		return
	}
	if humans == 0 {
		o.armIdleTimerLocked(g)
	} else if g.status == StatusPlaying || g.status == StatusPaused {
		o.cancelIdleTimerLocked(g)
	}
}

// QueueSnapshot returns a copy of the guild's pending entries.
func (o *Orchestrator) QueueSnapshot(guildID string) []track.QueueEntry {
	g := o.lookup(guildID)
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	queue := make([]track.QueueEntry, len(g.queue))
	copy(queue, g.queue)
	return queue
}

// CurrentTrack returns a copy of the current track's metadata, or false when
// nothing is playing. The copy may still hold placeholder values.
func (o *Orchestrator) CurrentTrack(guildID string) (track.Metadata, bool) {
	g := o.lookup(guildID)
	if g == nil {
		return track.Metadata{}, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return track.Metadata{}, false
	}
	return *g.current, true
}

// GuildSnapshot returns the full read-side view of one guild.
func (o *Orchestrator) GuildSnapshot(guildID string) (Snapshot, bool) {
	g := o.lookup(guildID)
	if g == nil {
		return Snapshot{}, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked(), true
}

// StatusSummary returns a snapshot for every guild that has a session.
func (o *Orchestrator) StatusSummary() []Snapshot {
	o.mu.Lock()
	guilds := make([]*guildState, 0, len(o.guilds))
	for _, g := range o.guilds {
		guilds = append(guilds, g)
	}
	o.mu.Unlock()

	snaps := make([]Snapshot, 0, len(guilds))
	for _, g := range guilds {
		g.mu.Lock()
		snaps = append(snaps, g.snapshotLocked())
		g.mu.Unlock()
	}
	return snaps
}

// ensureAttachedLocked acquires or reuses the voice attachment for g.
// Moving channels closes the old attachment first.
func (o *Orchestrator) ensureAttachedLocked(ctx context.Context, g *guildState, channelID string) error {
	if g.attachment != nil {
		if g.channelID == channelID {
			return nil
		}
		o.detachLocked(g)
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.AttachTimeout)
	defer cancel()

	att, err := o.transport.Attach(ctx, g.id, channelID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrAttachTimeout
		}
		return fmt.Errorf("failed to attach voice: %w", err)
	}
	g.attachment = att
	g.channelID = channelID
	return nil
}

func (o *Orchestrator) detachLocked(g *guildState) {
	if g.attachment == nil {
		return
	}
	if err := g.attachment.Close(); err != nil {
		slog.Warn("failed to close voice attachment", "guildID", g.id, "error", err)
	}
	g.attachment = nil
	g.channelID = ""
}

// notifyLocked delivers a snapshot to the listener without holding the lock
// during the callback.
func (o *Orchestrator) notifyLocked(g *guildState) {
	o.mu.Lock()
	l := o.listener
	o.mu.Unlock()
	if l == nil {
		return
	}
	snap := g.snapshotLocked()
	go l.PlaybackChanged(snap)
}
