package handler

import (
	"github.com/bwmarrin/discordgo"
)

// DiscordSession is the slice of *discordgo.Session the responders use,
// abstracted so tests can substitute a fake.
type DiscordSession interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Responder delivers outcome text to wherever the request came from.
// The core logic depends only on this capability, never on which Discord
// surface (fresh reply or deferred edit) is behind it.
type Responder interface {
	Deliver(content string) error
}

// InteractionResponder replies to an interaction with a fresh message.
type InteractionResponder struct {
	Session     DiscordSession
	Interaction *discordgo.Interaction
}

func (r *InteractionResponder) Deliver(content string) error {
	return r.Session.InteractionRespond(r.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

var _ Responder = (*InteractionResponder)(nil)

// DeferredResponder edits the deferred reply of an interaction that was
// acknowledged earlier.
type DeferredResponder struct {
	Session     DiscordSession
	Interaction *discordgo.Interaction
}

func (r *DeferredResponder) Deliver(content string) error {
	_, err := r.Session.InteractionResponseEdit(r.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	return err
}

var _ Responder = (*DeferredResponder)(nil)
