package handler

import (
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/JankoV12/dis-track/internal/player"
	"github.com/JankoV12/dis-track/internal/presenters"
)

// StatusNotifier keeps one editable "now playing" message per guild in sync
// with playback state. It implements player.Listener and is purely a
// projection consumer; it never calls back into the orchestrator.
type StatusNotifier struct {
	session *discordgo.Session

	mu       sync.Mutex
	channels map[string]string // guildID -> text channel for the status message
	messages map[string]string // guildID -> status message id
}

func NewStatusNotifier(session *discordgo.Session) *StatusNotifier {
	return &StatusNotifier{
		session:  session,
		channels: make(map[string]string),
		messages: make(map[string]string),
	}
}

var _ player.Listener = (*StatusNotifier)(nil)

// BindChannel records the text channel where the guild's status message
// lives. Called when a play request arrives, so the status follows the
// conversation.
func (n *StatusNotifier) BindChannel(guildID, channelID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.channels[guildID] != channelID {
		n.channels[guildID] = channelID
		delete(n.messages, guildID)
	}
}

func (n *StatusNotifier) PlaybackChanged(snap player.Snapshot) {
	n.mu.Lock()
	channelID, bound := n.channels[snap.GuildID]
	messageID := n.messages[snap.GuildID]
	n.mu.Unlock()
	if !bound {
		return
	}

	view := presenters.BuildNowPlayingView(snap)
	embeds := []*discordgo.MessageEmbed{presenters.NowPlayingEmbed(view)}
	components := presenters.ControlButtons(snap.Status == player.StatusPaused)

	if messageID == "" {
		msg, err := n.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Embeds:     embeds,
			Components: components,
		})
		if err != nil {
			slog.Warn("failed to send status message", "guildID", snap.GuildID, "error", err)
			return
		}
		n.mu.Lock()
		n.messages[snap.GuildID] = msg.ID
		n.mu.Unlock()
		return
	}

	_, err := n.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Embeds:     &embeds,
		Components: &components,
	})
	if err != nil {
		slog.Warn("failed to edit status message", "guildID", snap.GuildID, "error", err)
	}
}
