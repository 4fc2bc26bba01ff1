// Package handler wires Discord interactions to the playback orchestrator.
// It contains no playback logic of its own; every command resolves to one
// call on the orchestrator's public operations.
package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/JankoV12/dis-track/internal/player"
	"github.com/JankoV12/dis-track/internal/presenters"
	"github.com/JankoV12/dis-track/internal/track"
	"github.com/JankoV12/dis-track/internal/util"
)

type ReadyHandler = func(*discordgo.Session, *discordgo.Ready)
type InteractionCreateHandler = func(*discordgo.Session, *discordgo.InteractionCreate)
type VoiceStateUpdateHandler = func(*discordgo.Session, *discordgo.VoiceStateUpdate)

var ReadyLog = func(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("Bot is ready", "username", r.User.Username, "userID", r.User.ID)
}

// PlaybackController is the slice of the orchestrator the handlers use.
type PlaybackController interface {
	SubmitPlayRequest(ctx context.Context, link, guildID, channelID, requester string) (player.Outcome, error)
	Pause(guildID string) error
	Resume(guildID string) error
	Skip(guildID string) error
	Stop(guildID string) error
	QueueSnapshot(guildID string) []track.QueueEntry
	GuildSnapshot(guildID string) (player.Snapshot, bool)
	OccupancyChanged(guildID string, humans int)
}

// QueueFormatter renders the pending queue for display.
type QueueFormatter func(entries []track.QueueEntry) string

// ChannelBinder records which text channel a guild's status message
// belongs in. Implemented by StatusNotifier.
type ChannelBinder interface {
	BindChannel(guildID, channelID string)
}

// MakeInteractionCreateHandler dispatches slash commands and playback
// control buttons to the controller. binder may be nil.
func MakeInteractionCreateHandler(controller PlaybackController, formatQueue QueueFormatter, binder ChannelBinder) InteractionCreateHandler {
	components := PlaybackComponents(controller)
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			handleCommand(s, i, controller, formatQueue, binder)
		case discordgo.InteractionMessageComponent:
			components.Dispatch(s, i)
		}
	}
}

func handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate, controller PlaybackController, formatQueue QueueFormatter, binder ChannelBinder) {
	command := i.ApplicationCommandData()
	switch command.Name {
	case "play":
		if binder != nil {
			binder.BindChannel(i.GuildID, i.ChannelID)
		}
		handlePlay(s, i, controller)
	case "pause":
		replyOutcome(s, i, controller.Pause(i.GuildID), "Playback paused.")
	case "resume":
		replyOutcome(s, i, controller.Resume(i.GuildID), "Playback resumed.")
	case "skip":
		replyOutcome(s, i, controller.Skip(i.GuildID), "Track skipped.")
	case "stop":
		replyOutcome(s, i, controller.Stop(i.GuildID), "Playback stopped.")
	case "queue":
		entries := controller.QueueSnapshot(i.GuildID)
		reply(s, i, formatQueue(entries))
	case "nowplaying":
		snap, ok := controller.GuildSnapshot(i.GuildID)
		if !ok {
			reply(s, i, "Nothing is playing.")
			return
		}
		reply(s, i, presenters.FormatNowPlaying(presenters.BuildNowPlayingView(snap)))
	}
}

// handlePlay defers the response (resolution and voice attach can exceed the
// interaction window) and delivers the outcome through an edit of the
// deferred reply.
func handlePlay(s *discordgo.Session, i *discordgo.InteractionCreate, controller PlaybackController) {
	link, err := PlayLinkFromOptions(i.ApplicationCommandData().Options)
	if err != nil {
		reply(s, i, "Give me a link to play.")
		return
	}

	requester := requesterIdentity(i)
	channelID, ok := userVoiceChannel(s, i.GuildID, requesterID(i))
	if !ok {
		reply(s, i, "Join a voice channel first.")
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		slog.Error("failed to defer play response", "guildID", i.GuildID, "error", err)
		return
	}

	responder := &DeferredResponder{Session: s, Interaction: i.Interaction}
	go func() {
		outcome, err := controller.SubmitPlayRequest(context.Background(), link, i.GuildID, channelID, requester)
		if err := responder.Deliver(OutcomeMessage(outcome, err)); err != nil {
			slog.Error("failed to deliver play outcome", "guildID", i.GuildID, "error", err)
		}
	}()
}

// OutcomeMessage maps a play outcome onto the user-facing reply.
func OutcomeMessage(outcome player.Outcome, err error) string {
	switch {
	case errors.Is(err, player.ErrNothingPlayable):
		return "I couldn't find anything playable for that link."
	case errors.Is(err, player.ErrAttachTimeout):
		return "I couldn't connect to the voice channel in time."
	case err != nil:
		return "Something went wrong starting playback."
	case outcome.Started:
		return "Now playing."
	default:
		return "Added to queue."
	}
}

// GuardMessage maps guard failures of pause/resume/skip/stop onto replies.
func GuardMessage(err error) string {
	switch {
	case errors.Is(err, player.ErrNotPlaying):
		return "Nothing is playing."
	case errors.Is(err, player.ErrNotPaused):
		return "Playback is not paused."
	case errors.Is(err, player.ErrNothingToStop):
		return "Nothing to stop."
	default:
		return "Something went wrong."
	}
}

func replyOutcome(s DiscordSession, i *discordgo.InteractionCreate, err error, success string) {
	if err != nil {
		reply(s, i, GuardMessage(err))
		return
	}
	reply(s, i, success)
}

func reply(s DiscordSession, i *discordgo.InteractionCreate, content string) {
	responder := &InteractionResponder{Session: s, Interaction: i.Interaction}
	if err := responder.Deliver(content); err != nil {
		slog.Error("failed to respond to interaction", "guildID", i.GuildID, "error", err)
	}
}

func requesterID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func requesterIdentity(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return "unknown"
}

// userVoiceChannel finds the voice channel userID currently occupies.
func userVoiceChannel(s *discordgo.Session, guildID, userID string) (string, bool) {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return "", false
	}
	vs, ok := util.FindFirst(guild.VoiceStates, func(vs *discordgo.VoiceState) bool {
		return vs.UserID == userID && vs.ChannelID != ""
	})
	if !ok {
		return "", false
	}
	return vs.ChannelID, true
}

// MakeVoiceStateUpdateHandler feeds occupancy of the bot's attached channel
// into the inactivity monitor.
func MakeVoiceStateUpdateHandler(controller PlaybackController) VoiceStateUpdateHandler {
	return func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		snap, ok := controller.GuildSnapshot(v.GuildID)
		if !ok || snap.VoiceChannelID == "" {
			return
		}
		guild, err := s.State.Guild(v.GuildID)
		if err != nil {
			return
		}

		humans := 0
		for _, vs := range guild.VoiceStates {
			if vs.ChannelID != snap.VoiceChannelID {
				continue
			}
			member, err := s.State.Member(v.GuildID, vs.UserID)
			if err != nil || member.User == nil || !member.User.Bot {
				humans++
			}
		}
		controller.OccupancyChanged(v.GuildID, humans)
	}
}

type Handlers struct {
	Ready             ReadyHandler
	InteractionCreate InteractionCreateHandler
	VoiceStateUpdate  VoiceStateUpdateHandler
}

func NewSession(token string, handlers Handlers) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents |= discordgo.IntentsGuildVoiceStates

	if handlers.Ready != nil {
		s.AddHandler(handlers.Ready)
	}
	if handlers.InteractionCreate != nil {
		s.AddHandler(handlers.InteractionCreate)
	}
	if handlers.VoiceStateUpdate != nil {
		s.AddHandler(handlers.VoiceStateUpdate)
	}

	return s, nil
}
