package player

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/JankoV12/dis-track/internal/metacache"
	"github.com/JankoV12/dis-track/internal/track"
)

const (
	streamOpenTimeout = 30 * time.Second
	metadataTimeout   = 15 * time.Second
	expandTimeout     = 90 * time.Second
)

// advanceLocked pops queue entries until one plays or the queue is
// exhausted. Every path terminates with the session in Playing or Idle,
// never Loading. Callers must hold g.mu and have invalidated any previous
// completion watcher.
func (o *Orchestrator) advanceLocked(g *guildState) {
	for len(g.queue) > 0 {
		entry := g.queue[0]
		g.queue = g.queue[1:]

		g.status = StatusLoading
		g.current = track.Placeholder(entry.Ref, entry.Requester)

		ctx, cancel := context.WithTimeout(context.Background(), streamOpenTimeout)
		stream, direct, err := o.source.OpenStream(ctx, entry.Ref)
		cancel()
		if err != nil {
			if errors.Is(err, ErrStreamNotFound) {
				slog.Info("track unavailable, skipping", "guildID", g.id, "track", entry.Ref)
			} else {
				g.failures++
				slog.Error("failed to open stream", "guildID", g.id, "track", entry.Ref, "failures", g.failures, "error", err)
				if g.failures >= o.cfg.FailureThreshold {
					slog.Warn("consecutive stream failures hit threshold, continuing scan", "guildID", g.id, "threshold", o.cfg.FailureThreshold)
					g.failures = 0
				}
			}
			continue
		}
		g.failures = 0

		done, err := g.attachment.Play(stream)
		if err != nil {
			g.failures++
			slog.Error("failed to start playback", "guildID", g.id, "track", direct, "error", err)
			if g.failures >= o.cfg.FailureThreshold {
				g.failures = 0
			}
			continue
		}

		// The current snapshot keeps the direct ref so a later metadata
		// result can be matched against it.
		g.current.Ref = direct
		g.status = StatusPlaying
		g.playGen++
		o.cancelIdleTimerLocked(g)

		slog.Info("now playing", "guildID", g.id, "track", direct, "queued", len(g.queue))

		go o.watchPlayback(g, g.playGen, done)
		go o.lookupMetadata(g, g.playGen, direct, entry.Requester)
		o.notifyLocked(g)
		return
	}

	// Queue exhausted. The attachment stays alive for cheap reuse; the
	// inactivity timer decides when to let it go.
	g.current = nil
	g.status = StatusIdle
	o.armIdleTimerLocked(g)
	o.notifyLocked(g)
}

// watchPlayback waits for the transport's completion signal and advances the
// queue. A stale generation means the track was skipped or stopped and the
// signal must be ignored.
func (o *Orchestrator) watchPlayback(g *guildState, gen uint64, done <-chan error) {
	err := <-done

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.playGen != gen {
		return
	}
	if err != nil {
		slog.Warn("playback ended with error", "guildID", g.id, "error", err)
	}
	g.playGen++
	o.advanceLocked(g)
}

// lookupMetadata resolves descriptive metadata for the playing track and
// applies it in place, but only while the originating track is still
// current. Lookup failures degrade the snapshot to the raw ref.
func (o *Orchestrator) lookupMetadata(g *guildState, gen uint64, ref track.Ref, requester string) {
	entry, ok := o.cache.Get(ref)
	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), metadataTimeout)
		var err error
		entry, err = o.source.FetchMetadata(ctx, ref)
		cancel()
		if err != nil {
			slog.Warn("metadata lookup failed", "guildID", g.id, "track", ref, "error", err)
			entry = metacache.Entry{Title: string(ref)}
		} else {
			o.cache.Put(ref, entry)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.playGen != gen || g.current == nil || g.current.Ref != ref {
		return
	}
	g.current.Title = entry.Title
	g.current.Artist = entry.Author
	g.current.Duration = track.FormatDuration(entry.Duration)
	g.current.Thumbnail = entry.Thumbnail
	g.current.Requester = requester
	o.notifyLocked(g)
}

// expand resolves the full track list for link in the background and appends
// it to the guild's queue, pruning the already-started first element. If the
// session went idle in the meantime but is still attached, the append kicks
// the advance loop so the new entries play.
func (o *Orchestrator) expand(link string, started track.Ref, guildID, requester string) {
	ctx, cancel := context.WithTimeout(context.Background(), expandTimeout)
	defer cancel()

	refs, err := o.source.ResolveAll(ctx, link)
	if err != nil {
		slog.Warn("background expansion failed", "guildID", guildID, "link", link, "error", err)
		return
	}
	if len(refs) > 0 && refs[0] == started {
		refs = refs[1:]
	}
	if len(refs) == 0 {
		return
	}

	g := o.guild(guildID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.attachment == nil {
		// Session was torn down while expanding; dropping the result is
		// cheaper than resurrecting a stopped queue.
		return
	}
	for _, ref := range refs {
		g.queue = append(g.queue, track.QueueEntry{Ref: ref, Requester: requester})
	}
	slog.Info("queue expanded", "guildID", guildID, "added", len(refs), "queued", len(g.queue))

	if g.current == nil {
		o.advanceLocked(g)
	} else {
		o.notifyLocked(g)
	}
}

// armIdleTimerLocked (re)arms the guild's inactivity timer. Re-arming
// replaces the previous timer, so there is never more than one per guild.
func (o *Orchestrator) armIdleTimerLocked(g *guildState) {
	if g.attachment == nil {
		return
	}
	o.cancelIdleTimerLocked(g)
	g.idleGen++
	gen := g.idleGen
	g.idleTimer = time.AfterFunc(o.cfg.InactivityTimeout, func() {
		o.idleExpired(g.id, gen)
	})
}

// cancelIdleTimerLocked disarms the timer. Bumping idleGen also invalidates
// a callback that already fired but is still waiting on g.mu.
func (o *Orchestrator) cancelIdleTimerLocked(g *guildState) {
	if g.idleTimer != nil {
		g.idleTimer.Stop()
		g.idleTimer = nil
		g.idleGen++
	}
}

// idleExpired tears the session down after the inactivity window passes
// with no liveness signal.
func (o *Orchestrator) idleExpired(guildID string, gen uint64) {
	g := o.lookup(guildID)
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idleGen != gen || g.attachment == nil {
		return
	}
	slog.Info("inactivity timeout, leaving voice", "guildID", g.id)
	g.playGen++
	g.queue = nil
	g.current = nil
	g.status = StatusIdle
	g.idleTimer = nil
	o.detachLocked(g)
	o.notifyLocked(g)
}
