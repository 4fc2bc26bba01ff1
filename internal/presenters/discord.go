package presenters

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Component IDs for the playback control buttons.
const (
	ComponentIDPauseButton  = "playback_pause"
	ComponentIDResumeButton = "playback_resume"
	ComponentIDSkipButton   = "playback_skip"
	ComponentIDStopButton   = "playback_stop"
)

var notPlayingEmbed = &discordgo.MessageEmbed{
	Title:       "Not playing",
	Description: "Nothing is playing right now.",
}

// NowPlayingEmbed builds the embed for the editable status message.
func NowPlayingEmbed(view NowPlayingView) *discordgo.MessageEmbed {
	if !view.Playing {
		return notPlayingEmbed
	}

	embed := &discordgo.MessageEmbed{
		Title:       view.Title,
		Description: view.Artist,
		Fields:      []*discordgo.MessageEmbedField{},
	}
	if view.Duration != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Duration",
			Value:  view.Duration,
			Inline: true,
		})
	}
	if view.Requester != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Requested by",
			Value:  view.Requester,
			Inline: true,
		})
	}
	if view.Queued > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Up next",
			Value:  fmt.Sprintf("%d track(s)", view.Queued),
			Inline: true,
		})
	}
	if view.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: view.Thumbnail}
	}
	return embed
}

// ControlButtons builds the playback control row. The pause slot flips to a
// resume button while paused.
func ControlButtons(paused bool) []discordgo.MessageComponent {
	pauseResume := discordgo.Button{
		Label:    "Pause",
		Style:    discordgo.SecondaryButton,
		CustomID: ComponentIDPauseButton,
	}
	if paused {
		pauseResume = discordgo.Button{
			Label:    "Resume",
			Style:    discordgo.PrimaryButton,
			CustomID: ComponentIDResumeButton,
		}
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				pauseResume,
				discordgo.Button{
					Label:    "Skip",
					Style:    discordgo.SecondaryButton,
					CustomID: ComponentIDSkipButton,
				},
				discordgo.Button{
					Label:    "Stop",
					Style:    discordgo.DangerButton,
					CustomID: ComponentIDStopButton,
				},
			},
		},
	}
}
