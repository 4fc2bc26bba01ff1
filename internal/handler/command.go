package handler

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Commands is the list of all the commands the bot can handle.
// This is used to register the commands with Discord.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "play",
		Description: "Play a link, or add it to the queue",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "link",
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "A YouTube video/playlist link, a Spotify link, or a direct audio URL.",
				Required:    true,
			},
		},
	},
	{
		Name:        "pause",
		Description: "Pause playback",
	},
	{
		Name:        "resume",
		Description: "Resume paused playback",
	},
	{
		Name:        "skip",
		Description: "Skip to the next track in the queue",
	},
	{
		Name:        "stop",
		Description: "Stop playback and clear the queue",
	},
	{
		Name:        "queue",
		Description: "Show the pending queue",
	},
	{
		Name:        "nowplaying",
		Description: "Show the current track",
	},
}

func EstablishCommands(s *discordgo.Session, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, Commands)
	if err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}
	return nil
}

// PlayLinkFromOptions extracts the link option of a /play invocation.
func PlayLinkFromOptions(options []*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	for _, option := range options {
		if option.Name != "link" {
			continue
		}
		if option.Type != discordgo.ApplicationCommandOptionString {
			return "", fmt.Errorf("invalid type for link option")
		}
		if option.StringValue() == "" {
			break
		}
		return option.StringValue(), nil
	}
	return "", fmt.Errorf("link option is required")
}
