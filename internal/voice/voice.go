// Package voice implements the orchestrator's voice transport on top of
// discordgo voice connections and the opus transcode pipeline.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/JankoV12/dis-track/internal/opus"
	"github.com/JankoV12/dis-track/internal/player"
)

// ErrSendTimeout indicates the voice connection stopped accepting frames.
var ErrSendTimeout = errors.New("voice connection send timeout")

// Transport joins guild voice channels through a discordgo session.
type Transport struct {
	session *discordgo.Session
}

func NewTransport(session *discordgo.Session) *Transport {
	return &Transport{session: session}
}

var _ player.Transport = (*Transport)(nil)

// Attach joins channelID and waits for the connection to be ready, bounded
// by ctx. On timeout the late-arriving connection, if any, is disconnected
// so no duplicate attachment leaks.
func (t *Transport) Attach(ctx context.Context, guildID, channelID string) (player.Attachment, error) {
	type result struct {
		vc  *discordgo.VoiceConnection
		err error
	}
	ch := make(chan result, 1)

	go func() {
		vc, err := t.session.ChannelVoiceJoin(guildID, channelID, false, true)
		ch <- result{vc: vc, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("failed to join voice channel: %w", r.err)
		}
		return &attachment{vc: r.vc, channelID: channelID}, nil
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.vc != nil {
				if err := r.vc.Disconnect(); err != nil {
					slog.Warn("failed to disconnect late voice connection", "guildID", guildID, "error", err)
				}
			}
		}()
		return nil, ctx.Err()
	}
}

// attachment is one live voice connection. Playback control channels belong
// to the in-flight playback, replaced on every Play.
type attachment struct {
	vc        *discordgo.VoiceConnection
	channelID string

	mu      sync.Mutex
	current *playback
}

var _ player.Attachment = (*attachment)(nil)

func (a *attachment) ChannelID() string {
	return a.channelID
}

// Play transcodes src and streams the resulting frames to the connection.
// The returned channel fires exactly once when the stream ends.
func (a *attachment) Play(src io.ReadCloser) (<-chan error, error) {
	frames, err := opus.Transcode(src)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to start transcode: %w", err)
	}

	p := newPlayback()
	a.mu.Lock()
	if a.current != nil {
		a.current.stopAndWait()
	}
	a.current = p
	a.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		err := a.stream(p, frames)
		frames.Close()
		src.Close()
		close(p.finished)
		done <- err
	}()
	return done, nil
}

func (a *attachment) SetPaused(paused bool) {
	a.mu.Lock()
	p := a.current
	a.mu.Unlock()
	if p != nil {
		p.setPaused(paused)
	}
}

func (a *attachment) Stop() {
	a.mu.Lock()
	p := a.current
	a.mu.Unlock()
	if p != nil {
		p.stopAndWait()
	}
}

func (a *attachment) Close() error {
	a.Stop()
	if err := a.vc.Speaking(false); err != nil {
		slog.Warn("failed to stop speaking", "error", err)
	}
	if err := a.vc.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	return nil
}

// stream sends frames until EOF, stop, or a send timeout. A paused playback
// parks between frames without holding any lock.
func (a *attachment) stream(p *playback, frames io.Reader) error {
	if err := a.vc.Speaking(true); err != nil {
		return fmt.Errorf("failed to set speaking state: %w", err)
	}
	defer func() {
		if err := a.vc.Speaking(false); err != nil {
			slog.Warn("failed to stop speaking", "error", err)
		}
	}()

	reader := opus.NewFrameReader(frames)
	for {
		select {
		case <-p.stop:
			return nil
		case <-p.gate():
		}

		frame, err := reader.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}

		timer := time.NewTimer(time.Minute)
		select {
		case a.vc.OpusSend <- frame:
			timer.Stop()
		case <-p.stop:
			timer.Stop()
			return nil
		case <-timer.C:
			return ErrSendTimeout
		}
	}
}

// playback carries the control state of one in-flight stream.
type playback struct {
	stop     chan struct{}
	stopOnce sync.Once
	finished chan struct{}

	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

var notPaused = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func newPlayback() *playback {
	return &playback{
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// gate returns a channel that is closed while playback is running and open
// while paused, so the stream loop can park on it.
func (p *playback) gate() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return notPaused
	}
	return p.resume
}

func (p *playback) setPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if paused == p.paused {
		return
	}
	p.paused = paused
	if paused {
		p.resume = make(chan struct{})
	} else {
		close(p.resume)
	}
}

// stopAndWait aborts the stream and blocks until its goroutine has fully
// unwound, so a following Play never interleaves frames.
func (p *playback) stopAndWait() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	<-p.finished
}
