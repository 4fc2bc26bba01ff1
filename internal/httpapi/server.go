package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JankoV12/dis-track/internal/player"
)

// Controller is the slice of the playback orchestrator the HTTP API drives.
type Controller interface {
	SubmitPlayRequest(ctx context.Context, link, guildID, channelID, requester string) (player.Outcome, error)
	Pause(guildID string) error
	Resume(guildID string) error
	Skip(guildID string) error
	Stop(guildID string) error
	GuildSnapshot(guildID string) (player.Snapshot, bool)
	StatusSummary() []player.Snapshot
}

// Server exposes playback status and controls over HTTP.
type Server struct {
	controller Controller
	router     *Router
}

// NewServer builds a [Server] with all routes registered.
func NewServer(controller Controller) *Server {
	s := &Server{
		controller: controller,
		router:     NewRouter(),
	}

	s.router.Use(RequestLogger)

	s.router.HandleFunc(http.MethodGet, "/api/status", s.handleStatus)
	s.router.HandleFunc(http.MethodGet, "/api/guilds/{id}/queue", s.handleQueue)
	s.router.HandleFunc(http.MethodGet, "/api/guilds/{id}/nowplaying", s.handleNowPlaying)
	s.router.HandleFunc(http.MethodPost, "/api/guilds/{id}/play", s.handlePlay)
	s.router.HandleFunc(http.MethodPost, "/api/guilds/{id}/pause", s.command(s.controllerPause))
	s.router.HandleFunc(http.MethodPost, "/api/guilds/{id}/resume", s.command(s.controllerResume))
	s.router.HandleFunc(http.MethodPost, "/api/guilds/{id}/skip", s.command(s.controllerSkip))
	s.router.HandleFunc(http.MethodPost, "/api/guilds/{id}/stop", s.command(s.controllerStop))

	return s
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

// guildStatus is the wire form of one guild's playback snapshot.
type guildStatus struct {
	GuildID        string       `json:"guildId"`
	Status         string       `json:"status"`
	Current        *currentInfo `json:"current,omitempty"`
	QueueLength    int          `json:"queueLength"`
	VoiceChannelID string       `json:"voiceChannelId,omitempty"`
}

type currentInfo struct {
	Ref       string `json:"ref"`
	Title     string `json:"title"`
	Artist    string `json:"artist,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Requester string `json:"requester,omitempty"`
}

type queueItem struct {
	Ref       string `json:"ref"`
	Requester string `json:"requester,omitempty"`
}

func buildGuildStatus(snap player.Snapshot) guildStatus {
	gs := guildStatus{
		GuildID:        snap.GuildID,
		Status:         string(snap.Status),
		QueueLength:    len(snap.Queue),
		VoiceChannelID: snap.VoiceChannelID,
	}
	if snap.Current != nil {
		gs.Current = &currentInfo{
			Ref:       string(snap.Current.Ref),
			Title:     snap.Current.Title,
			Artist:    snap.Current.Artist,
			Duration:  snap.Current.Duration,
			Requester: snap.Current.Requester,
		}
	}
	return gs
}

func (s *Server) handleStatus(w http.ResponseWriter, req *http.Request) {
	snaps := s.controller.StatusSummary()

	guilds := make([]guildStatus, 0, len(snaps))
	for _, snap := range snaps {
		guilds = append(guilds, buildGuildStatus(snap))
	}

	writeJSON(w, http.StatusOK, map[string]any{"guilds": guilds})
}

func (s *Server) handleQueue(w http.ResponseWriter, req *http.Request) {
	guildID := req.PathValue("id")

	snap, ok := s.controller.GuildSnapshot(guildID)
	if !ok {
		writeError(w, http.StatusNotFound, "no playback session for guild")
		return
	}

	items := make([]queueItem, 0, len(snap.Queue))
	for _, entry := range snap.Queue {
		items = append(items, queueItem{
			Ref:       string(entry.Ref),
			Requester: entry.Requester,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"guildId": guildID,
		"queue":   items,
	})
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, req *http.Request) {
	guildID := req.PathValue("id")

	snap, ok := s.controller.GuildSnapshot(guildID)
	if !ok || snap.Current == nil {
		writeJSON(w, http.StatusOK, map[string]any{"playing": false})
		return
	}

	gs := buildGuildStatus(snap)
	writeJSON(w, http.StatusOK, map[string]any{
		"playing": snap.Status == player.StatusPlaying,
		"paused":  snap.Status == player.StatusPaused,
		"current": gs.Current,
	})
}

// playRequest is the body of POST /api/guilds/{id}/play.
type playRequest struct {
	Link      string `json:"link"`
	ChannelID string `json:"channelId"`
	Requester string `json:"requester"`
}

func (s *Server) handlePlay(w http.ResponseWriter, req *http.Request) {
	guildID := req.PathValue("id")

	var body playRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Link == "" || body.ChannelID == "" {
		writeError(w, http.StatusBadRequest, "link and channelId are required")
		return
	}

	outcome, err := s.controller.SubmitPlayRequest(req.Context(), body.Link, guildID, body.ChannelID, body.Requester)
	if err != nil {
		slog.Warn("play request failed", "guild_id", guildID, "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"requestId": outcome.RequestID,
		"started":   outcome.Started,
		"ref":       string(outcome.Ref),
	})
}

// command adapts a guild-scoped control call into an HTTP handler.
func (s *Server) command(call func(guildID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		guildID := req.PathValue("id")

		if err := call(guildID); err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (s *Server) controllerPause(guildID string) error  { return s.controller.Pause(guildID) }
func (s *Server) controllerResume(guildID string) error { return s.controller.Resume(guildID) }
func (s *Server) controllerSkip(guildID string) error   { return s.controller.Skip(guildID) }
func (s *Server) controllerStop(guildID string) error   { return s.controller.Stop(guildID) }

// statusForError maps orchestrator errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, player.ErrNotPlaying),
		errors.Is(err, player.ErrNotPaused),
		errors.Is(err, player.ErrNothingToStop),
		errors.Is(err, player.ErrNoSession):
		return http.StatusConflict
	case errors.Is(err, player.ErrNothingPlayable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, player.ErrAttachTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
