package player_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JankoV12/dis-track/internal/metacache"
	"github.com/JankoV12/dis-track/internal/player"
	"github.com/JankoV12/dis-track/internal/track"
)

type fakeSource struct {
	mu         sync.Mutex
	links      map[string][]track.Ref
	firstErr   error
	notFound   map[track.Ref]bool
	broken     map[track.Ref]bool
	substitute map[track.Ref]track.Ref
	meta       map[track.Ref]metacache.Entry
	openDelay  map[track.Ref]time.Duration
	opened     []track.Ref
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		links:      make(map[string][]track.Ref),
		notFound:   make(map[track.Ref]bool),
		broken:     make(map[track.Ref]bool),
		substitute: make(map[track.Ref]track.Ref),
		meta:       make(map[track.Ref]metacache.Entry),
		openDelay:  make(map[track.Ref]time.Duration),
	}
}

func (s *fakeSource) ResolveFirst(ctx context.Context, link string) (track.Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstErr != nil {
		return "", s.firstErr
	}
	refs := s.links[link]
	if len(refs) == 0 {
		return "", player.ErrNothingPlayable
	}
	return refs[0], nil
}

func (s *fakeSource) ResolveAll(ctx context.Context, link string) ([]track.Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make([]track.Ref, len(s.links[link]))
	copy(refs, s.links[link])
	return refs, nil
}

func (s *fakeSource) OpenStream(ctx context.Context, ref track.Ref) (io.ReadCloser, track.Ref, error) {
	s.mu.Lock()
	delay := s.openDelay[ref]
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, ref)
	if s.notFound[ref] {
		return nil, "", fmt.Errorf("track %q unavailable: %w", ref, player.ErrStreamNotFound)
	}
	if s.broken[ref] {
		return nil, "", errors.New("extraction blew up")
	}
	direct := ref
	if sub, ok := s.substitute[ref]; ok {
		direct = sub
	}
	return io.NopCloser(strings.NewReader("audio")), direct, nil
}

func (s *fakeSource) FetchMetadata(ctx context.Context, ref track.Ref) (metacache.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.meta[ref]
	if !ok {
		return metacache.Entry{}, errors.New("no metadata")
	}
	return entry, nil
}

func (s *fakeSource) openedRefs() []track.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make([]track.Ref, len(s.opened))
	copy(refs, s.opened)
	return refs
}

type fakePlay struct {
	done chan error
	once sync.Once
}

func (p *fakePlay) finish(err error) {
	p.once.Do(func() { p.done <- err })
}

type fakeAttachment struct {
	mu        sync.Mutex
	channelID string
	plays     []*fakePlay
	paused    bool
	closed    bool
}

func (a *fakeAttachment) ChannelID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.channelID
}

func (a *fakeAttachment) Play(src io.ReadCloser) (<-chan error, error) {
	src.Close()
	a.mu.Lock()
	defer a.mu.Unlock()
	p := &fakePlay{done: make(chan error, 1)}
	a.plays = append(a.plays, p)
	return p.done, nil
}

func (a *fakeAttachment) SetPaused(paused bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = paused
}

func (a *fakeAttachment) Stop() {
	if p := a.currentPlay(); p != nil {
		p.finish(nil)
	}
}

func (a *fakeAttachment) Close() error {
	a.Stop()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

func (a *fakeAttachment) currentPlay() *fakePlay {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.plays) == 0 {
		return nil
	}
	return a.plays[len(a.plays)-1]
}

func (a *fakeAttachment) playCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.plays)
}

func (a *fakeAttachment) isPaused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

func (a *fakeAttachment) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

type fakeTransport struct {
	mu          sync.Mutex
	attachments []*fakeAttachment
	blockAttach bool
}

func (t *fakeTransport) Attach(ctx context.Context, guildID, channelID string) (player.Attachment, error) {
	if t.blockAttach {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	a := &fakeAttachment{channelID: channelID}
	t.attachments = append(t.attachments, a)
	return a, nil
}

func (t *fakeTransport) attachment(i int) *fakeAttachment {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i >= len(t.attachments) {
		return nil
	}
	return t.attachments[i]
}

func (t *fakeTransport) attachCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.attachments)
}

func newOrchestrator(src *fakeSource, tr *fakeTransport, cfg player.Config) *player.Orchestrator {
	return player.New(src, tr, metacache.New(16), cfg)
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSubmitPlayStartsImmediatelyWhenIdle(t *testing.T) {
	src := newFakeSource()
	src.links["https://youtu.be/abc"] = []track.Ref{"https://youtu.be/abc"}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	outcome, err := orch.SubmitPlayRequest(context.Background(), "https://youtu.be/abc", "guild-1", "voice-1", "alice")
	if err != nil {
		t.Fatalf("SubmitPlayRequest returned error: %v", err)
	}
	if !outcome.Started {
		t.Error("expected playback to start immediately")
	}
	if outcome.Ref != "https://youtu.be/abc" {
		t.Errorf("outcome ref = %q", outcome.Ref)
	}

	snap, ok := orch.GuildSnapshot("guild-1")
	if !ok {
		t.Fatal("expected a session for guild-1")
	}
	if snap.Status != player.StatusPlaying {
		t.Errorf("status = %v, want Playing", snap.Status)
	}
	if len(snap.Queue) != 0 {
		t.Errorf("queue length = %d, want 0", len(snap.Queue))
	}
	if snap.VoiceChannelID != "voice-1" {
		t.Errorf("voice channel = %q, want voice-1", snap.VoiceChannelID)
	}
	if got := tr.attachment(0).playCount(); got != 1 {
		t.Errorf("play count = %d, want 1", got)
	}
}

func TestSubmitPlayEnqueuesWhilePlaying(t *testing.T) {
	src := newFakeSource()
	src.links["linkA"] = []track.Ref{"refA"}
	src.links["linkB"] = []track.Ref{"refB"}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	if _, err := orch.SubmitPlayRequest(context.Background(), "linkA", "g", "voice", "alice"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	outcome, err := orch.SubmitPlayRequest(context.Background(), "linkB", "g", "voice", "bob")
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if outcome.Started {
		t.Error("second submit should enqueue, not start")
	}

	want := []track.QueueEntry{{Ref: "refB", Requester: "bob"}}
	if diff := cmp.Diff(want, orch.QueueSnapshot("g")); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}

	// Completing the first track advances to the queued one.
	tr.attachment(0).currentPlay().finish(nil)
	eventually(t, func() bool {
		current, ok := orch.CurrentTrack("g")
		return ok && current.Ref == "refB"
	}, "expected refB to play after refA finished")

	if got := len(orch.QueueSnapshot("g")); got != 0 {
		t.Errorf("queue length after advance = %d, want 0", got)
	}
}

func TestAdvanceSkipsUnavailableTracks(t *testing.T) {
	src := newFakeSource()
	src.links["playlist"] = []track.Ref{"gone", "good"}
	src.firstErr = errors.New("resolver hiccup")
	src.notFound["gone"] = true
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	outcome, err := orch.SubmitPlayRequest(context.Background(), "playlist", "g", "voice", "alice")
	if err != nil {
		t.Fatalf("SubmitPlayRequest returned error: %v", err)
	}
	if !outcome.Started {
		t.Error("expected playback to start on the surviving track")
	}

	current, ok := orch.CurrentTrack("g")
	if !ok || current.Ref != "good" {
		t.Errorf("current = %+v, want ref good", current)
	}
	want := []track.Ref{"gone", "good"}
	if diff := cmp.Diff(want, src.openedRefs()); diff != "" {
		t.Errorf("open order mismatch (-want +got):\n%s", diff)
	}
}

func TestAdvanceSurvivesUnexpectedFailures(t *testing.T) {
	src := newFakeSource()
	src.links["playlist"] = []track.Ref{"boom1", "boom2", "boom3", "boom4", "good"}
	src.firstErr = errors.New("resolver hiccup")
	for _, ref := range []track.Ref{"boom1", "boom2", "boom3", "boom4"} {
		src.broken[ref] = true
	}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{FailureThreshold: 3})

	outcome, err := orch.SubmitPlayRequest(context.Background(), "playlist", "g", "voice", "alice")
	if err != nil {
		t.Fatalf("SubmitPlayRequest returned error: %v", err)
	}
	if !outcome.Started {
		t.Error("expected playback despite failures exceeding the threshold")
	}
	current, _ := orch.CurrentTrack("g")
	if current.Ref != "good" {
		t.Errorf("current ref = %q, want good", current.Ref)
	}
}

func TestSubmitPlayNothingPlayable(t *testing.T) {
	src := newFakeSource()
	src.firstErr = errors.New("resolver hiccup")
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	_, err := orch.SubmitPlayRequest(context.Background(), "https://example.com/nope", "g", "voice", "alice")
	if !errors.Is(err, player.ErrNothingPlayable) {
		t.Errorf("err = %v, want ErrNothingPlayable", err)
	}
	if tr.attachCount() != 0 {
		t.Error("should not attach voice when nothing resolved")
	}
}

func TestSubmitPlayAllTracksUnavailable(t *testing.T) {
	src := newFakeSource()
	src.links["playlist"] = []track.Ref{"gone1", "gone2"}
	src.firstErr = errors.New("resolver hiccup")
	src.notFound["gone1"] = true
	src.notFound["gone2"] = true
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	_, err := orch.SubmitPlayRequest(context.Background(), "playlist", "g", "voice", "alice")
	if !errors.Is(err, player.ErrNothingPlayable) {
		t.Errorf("err = %v, want ErrNothingPlayable", err)
	}
	snap, _ := orch.GuildSnapshot("g")
	if snap.Status != player.StatusIdle {
		t.Errorf("status = %v, want Idle", snap.Status)
	}
}

func TestPauseAndResumeGuards(t *testing.T) {
	src := newFakeSource()
	src.links["link"] = []track.Ref{"ref"}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	if err := orch.Pause("g"); !errors.Is(err, player.ErrNotPlaying) {
		t.Errorf("pause before session: err = %v, want ErrNotPlaying", err)
	}
	if err := orch.Resume("g"); !errors.Is(err, player.ErrNotPaused) {
		t.Errorf("resume before session: err = %v, want ErrNotPaused", err)
	}

	if _, err := orch.SubmitPlayRequest(context.Background(), "link", "g", "voice", "alice"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := orch.Resume("g"); !errors.Is(err, player.ErrNotPaused) {
		t.Errorf("resume while playing: err = %v, want ErrNotPaused", err)
	}
	if err := orch.Pause("g"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !tr.attachment(0).isPaused() {
		t.Error("attachment should be paused")
	}
	if err := orch.Pause("g"); !errors.Is(err, player.ErrNotPlaying) {
		t.Errorf("pause while paused: err = %v, want ErrNotPlaying", err)
	}
	if err := orch.Resume("g"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if tr.attachment(0).isPaused() {
		t.Error("attachment should be resumed")
	}

	snap, _ := orch.GuildSnapshot("g")
	if snap.Status != player.StatusPlaying {
		t.Errorf("status = %v, want Playing", snap.Status)
	}
}

func TestSkipAdvancesAndIgnoresStaleCompletion(t *testing.T) {
	src := newFakeSource()
	src.links["playlist"] = []track.Ref{"refA", "refB"}
	src.firstErr = errors.New("resolver hiccup")
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	if _, err := orch.SubmitPlayRequest(context.Background(), "playlist", "g", "voice", "alice"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	firstPlay := tr.attachment(0).currentPlay()

	if err := orch.Skip("g"); err != nil {
		t.Fatalf("skip: %v", err)
	}
	current, _ := orch.CurrentTrack("g")
	if current.Ref != "refB" {
		t.Errorf("current after skip = %q, want refB", current.Ref)
	}

	// The aborted track's completion signal must not advance again.
	firstPlay.finish(errors.New("aborted"))
	time.Sleep(50 * time.Millisecond)
	current, ok := orch.CurrentTrack("g")
	if !ok || current.Ref != "refB" {
		t.Errorf("stale completion changed current to %+v", current)
	}

	// Skipping the last track goes idle; skipping while idle is an error.
	if err := orch.Skip("g"); err != nil {
		t.Fatalf("second skip: %v", err)
	}
	if err := orch.Skip("g"); !errors.Is(err, player.ErrNotPlaying) {
		t.Errorf("skip while idle: err = %v, want ErrNotPlaying", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	src := newFakeSource()
	src.links["playlist"] = []track.Ref{"refA", "refB"}
	src.firstErr = errors.New("resolver hiccup")
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	if err := orch.Stop("g"); !errors.Is(err, player.ErrNothingToStop) {
		t.Errorf("stop before session: err = %v, want ErrNothingToStop", err)
	}

	if _, err := orch.SubmitPlayRequest(context.Background(), "playlist", "g", "voice", "alice"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := orch.Stop("g"); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if !tr.attachment(0).isClosed() {
		t.Error("attachment should be closed after stop")
	}
	snap, _ := orch.GuildSnapshot("g")
	if snap.Status != player.StatusIdle || snap.Current != nil || len(snap.Queue) != 0 {
		t.Errorf("snapshot after stop = %+v", snap)
	}

	if err := orch.Stop("g"); !errors.Is(err, player.ErrNothingToStop) {
		t.Errorf("second stop: err = %v, want ErrNothingToStop", err)
	}
}

func TestBackgroundExpansionDedupesStartedTrack(t *testing.T) {
	src := newFakeSource()
	src.links["playlist"] = []track.Ref{"ref1", "ref2", "ref3"}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	outcome, err := orch.SubmitPlayRequest(context.Background(), "playlist", "g", "voice", "alice")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !outcome.Started || outcome.Ref != "ref1" {
		t.Errorf("outcome = %+v, want started ref1", outcome)
	}

	want := []track.QueueEntry{
		{Ref: "ref2", Requester: "alice"},
		{Ref: "ref3", Requester: "alice"},
	}
	eventually(t, func() bool {
		return cmp.Diff(want, orch.QueueSnapshot("g")) == ""
	}, "expected expansion to append ref2 and ref3 exactly once")
}

func TestAttachTimeout(t *testing.T) {
	src := newFakeSource()
	src.links["link"] = []track.Ref{"ref"}
	tr := &fakeTransport{blockAttach: true}
	orch := newOrchestrator(src, tr, player.Config{AttachTimeout: 20 * time.Millisecond})

	_, err := orch.SubmitPlayRequest(context.Background(), "link", "g", "voice", "alice")
	if !errors.Is(err, player.ErrAttachTimeout) {
		t.Errorf("err = %v, want ErrAttachTimeout", err)
	}
	if got := len(orch.QueueSnapshot("g")); got != 0 {
		t.Errorf("queue length = %d, want 0 after failed attach", got)
	}
}

func TestAttachmentReuseAndChannelMove(t *testing.T) {
	src := newFakeSource()
	src.links["linkA"] = []track.Ref{"refA"}
	src.links["linkB"] = []track.Ref{"refB"}
	src.links["linkC"] = []track.Ref{"refC"}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	if _, err := orch.SubmitPlayRequest(context.Background(), "linkA", "g", "voice-1", "alice"); err != nil {
		t.Fatalf("submit A: %v", err)
	}
	tr.attachment(0).currentPlay().finish(nil)
	eventually(t, func() bool {
		snap, ok := orch.GuildSnapshot("g")
		return ok && snap.Status == player.StatusIdle
	}, "expected idle after track finished")

	// Same channel while still attached: the connection is reused.
	if _, err := orch.SubmitPlayRequest(context.Background(), "linkB", "g", "voice-1", "alice"); err != nil {
		t.Fatalf("submit B: %v", err)
	}
	if tr.attachCount() != 1 {
		t.Fatalf("attach count = %d, want 1 (reuse)", tr.attachCount())
	}
	tr.attachment(0).currentPlay().finish(nil)
	eventually(t, func() bool {
		snap, ok := orch.GuildSnapshot("g")
		return ok && snap.Status == player.StatusIdle
	}, "expected idle after second track")

	// Different channel: the old attachment is closed and a new one made.
	if _, err := orch.SubmitPlayRequest(context.Background(), "linkC", "g", "voice-2", "alice"); err != nil {
		t.Fatalf("submit C: %v", err)
	}
	if tr.attachCount() != 2 {
		t.Fatalf("attach count = %d, want 2 (move)", tr.attachCount())
	}
	if !tr.attachment(0).isClosed() {
		t.Error("old attachment should be closed after channel move")
	}
	snap, _ := orch.GuildSnapshot("g")
	if snap.VoiceChannelID != "voice-2" {
		t.Errorf("voice channel = %q, want voice-2", snap.VoiceChannelID)
	}
}

func TestInactivityTeardownAfterQueueExhausted(t *testing.T) {
	src := newFakeSource()
	src.links["link"] = []track.Ref{"ref"}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{InactivityTimeout: 30 * time.Millisecond})

	if _, err := orch.SubmitPlayRequest(context.Background(), "link", "g", "voice", "alice"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	tr.attachment(0).currentPlay().finish(nil)

	eventually(t, func() bool {
		return tr.attachment(0).isClosed()
	}, "expected inactivity teardown to close the attachment")

	snap, _ := orch.GuildSnapshot("g")
	if snap.Status != player.StatusIdle || snap.VoiceChannelID != "" {
		t.Errorf("snapshot after teardown = %+v", snap)
	}
}

func TestResubmitAroundIdleExpiryKeepsSession(t *testing.T) {
	src := newFakeSource()
	src.links["link1"] = []track.Ref{"ref1"}
	src.links["link2"] = []track.Ref{"ref2"}
	src.openDelay["ref2"] = 120 * time.Millisecond
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{InactivityTimeout: 60 * time.Millisecond})

	if _, err := orch.SubmitPlayRequest(context.Background(), "link1", "g", "voice", "alice"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	tr.attachment(0).currentPlay().finish(nil)
	eventually(t, func() bool {
		snap, ok := orch.GuildSnapshot("g")
		return ok && snap.Status == player.StatusIdle
	}, "expected idle after the track finished")

	// Resubmit shortly before the timer fires. The slow stream open keeps
	// the guild locked across the expiry, so the fired callback runs only
	// after playback has started and must be discarded as stale.
	time.Sleep(30 * time.Millisecond)
	if _, err := orch.SubmitPlayRequest(context.Background(), "link2", "g", "voice", "alice"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	snap, _ := orch.GuildSnapshot("g")
	if snap.Status != player.StatusPlaying {
		t.Errorf("status = %v, want Playing", snap.Status)
	}
	if tr.attachment(0).isClosed() {
		t.Error("stale inactivity timer closed a live attachment")
	}
}

func TestEmptyChannelTriggersTeardownWhilePlaying(t *testing.T) {
	src := newFakeSource()
	src.links["link"] = []track.Ref{"ref"}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{InactivityTimeout: 30 * time.Millisecond})

	if _, err := orch.SubmitPlayRequest(context.Background(), "link", "g", "voice", "alice"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	orch.OccupancyChanged("g", 0)
	eventually(t, func() bool {
		return tr.attachment(0).isClosed()
	}, "expected teardown after the channel emptied")
}

func TestReturningListenerCancelsTeardown(t *testing.T) {
	src := newFakeSource()
	src.links["link"] = []track.Ref{"ref"}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{InactivityTimeout: 80 * time.Millisecond})

	if _, err := orch.SubmitPlayRequest(context.Background(), "link", "g", "voice", "alice"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	orch.OccupancyChanged("g", 0)
	orch.OccupancyChanged("g", 1)

	time.Sleep(200 * time.Millisecond)
	if tr.attachment(0).isClosed() {
		t.Error("teardown should be cancelled when a listener returns during playback")
	}
}

func TestMetadataAppliedWhileTrackStillCurrent(t *testing.T) {
	src := newFakeSource()
	src.links["search"] = []track.Ref{track.DeferredRef("Song", "Artist")}
	src.substitute[track.DeferredRef("Song", "Artist")] = "direct-ref"
	src.meta["direct-ref"] = metacache.Entry{
		Title:    "Song",
		Author:   "Artist",
		Duration: 3 * time.Minute,
	}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	if _, err := orch.SubmitPlayRequest(context.Background(), "search", "g", "voice", "alice"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	eventually(t, func() bool {
		current, ok := orch.CurrentTrack("g")
		return ok && current.Title == "Song"
	}, "expected metadata to be applied to the current track")

	current, _ := orch.CurrentTrack("g")
	if current.Ref != "direct-ref" {
		t.Errorf("current ref = %q, want the substituted direct ref", current.Ref)
	}
	if current.Artist != "Artist" || current.Duration != "3:00" {
		t.Errorf("current = %+v", current)
	}
	if current.Requester != "alice" {
		t.Errorf("requester = %q, want alice", current.Requester)
	}
}

type recordingListener struct {
	mu    sync.Mutex
	snaps []player.Snapshot
}

func (l *recordingListener) PlaybackChanged(snap player.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snaps = append(l.snaps, snap)
}

func (l *recordingListener) statuses() []player.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	statuses := make([]player.Status, len(l.snaps))
	for i, snap := range l.snaps {
		statuses[i] = snap.Status
	}
	return statuses
}

func TestListenerObservesTransitions(t *testing.T) {
	src := newFakeSource()
	src.links["link"] = []track.Ref{"ref"}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})
	listener := &recordingListener{}
	orch.SetListener(listener)

	if _, err := orch.SubmitPlayRequest(context.Background(), "link", "g", "voice", "alice"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	eventually(t, func() bool {
		for _, s := range listener.statuses() {
			if s == player.StatusPlaying {
				return true
			}
		}
		return false
	}, "expected a Playing notification")

	tr.attachment(0).currentPlay().finish(nil)
	eventually(t, func() bool {
		statuses := listener.statuses()
		return len(statuses) > 0 && statuses[len(statuses)-1] == player.StatusIdle
	}, "expected an Idle notification after completion")
}

func TestOnPlaybackIdleRequiresSession(t *testing.T) {
	src := newFakeSource()
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	if err := orch.OnPlaybackIdle("unknown"); !errors.Is(err, player.ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestGuildsAreIsolated(t *testing.T) {
	src := newFakeSource()
	src.links["linkA"] = []track.Ref{"refA"}
	src.links["linkB"] = []track.Ref{"refB"}
	tr := &fakeTransport{}
	orch := newOrchestrator(src, tr, player.Config{})

	if _, err := orch.SubmitPlayRequest(context.Background(), "linkA", "g1", "voice-1", "alice"); err != nil {
		t.Fatalf("submit g1: %v", err)
	}
	if _, err := orch.SubmitPlayRequest(context.Background(), "linkB", "g2", "voice-2", "bob"); err != nil {
		t.Fatalf("submit g2: %v", err)
	}

	if err := orch.Stop("g1"); err != nil {
		t.Fatalf("stop g1: %v", err)
	}

	snap, _ := orch.GuildSnapshot("g2")
	if snap.Status != player.StatusPlaying {
		t.Errorf("g2 status = %v, want Playing after g1 stopped", snap.Status)
	}
	if got := len(orch.StatusSummary()); got != 2 {
		t.Errorf("summary length = %d, want 2", got)
	}
}
