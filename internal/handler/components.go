package handler

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/JankoV12/dis-track/internal/presenters"
)

// ComponentHandler reacts to one message-component interaction.
type ComponentHandler func(DiscordSession, *discordgo.InteractionCreate)

// ComponentRouter dispatches message-component interactions by their custom
// ID. Unknown IDs are ignored so buttons on stale status messages stay inert.
type ComponentRouter struct {
	mu     sync.RWMutex
	routes map[string]ComponentHandler
}

func NewComponentRouter() *ComponentRouter {
	return &ComponentRouter{routes: make(map[string]ComponentHandler)}
}

// Register binds customID to handler. Duplicate registration is a wiring
// mistake and panics.
func (r *ComponentRouter) Register(customID string, handler ComponentHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.routes[customID]; exists {
		panic(fmt.Sprintf("component %q already registered", customID))
	}
	r.routes[customID] = handler
}

// Dispatch routes i to the handler registered for its custom ID and reports
// whether one was found.
func (r *ComponentRouter) Dispatch(s DiscordSession, i *discordgo.InteractionCreate) bool {
	r.mu.RLock()
	handler, ok := r.routes[i.MessageComponentData().CustomID]
	r.mu.RUnlock()

	if !ok {
		return false
	}
	handler(s, i)
	return true
}

// PlaybackComponents routes the status message's control buttons onto the
// controller's operations.
func PlaybackComponents(controller PlaybackController) *ComponentRouter {
	r := NewComponentRouter()
	r.Register(presenters.ComponentIDPauseButton, func(s DiscordSession, i *discordgo.InteractionCreate) {
		replyOutcome(s, i, controller.Pause(i.GuildID), "Playback paused.")
	})
	r.Register(presenters.ComponentIDResumeButton, func(s DiscordSession, i *discordgo.InteractionCreate) {
		replyOutcome(s, i, controller.Resume(i.GuildID), "Playback resumed.")
	})
	r.Register(presenters.ComponentIDSkipButton, func(s DiscordSession, i *discordgo.InteractionCreate) {
		replyOutcome(s, i, controller.Skip(i.GuildID), "Track skipped.")
	})
	r.Register(presenters.ComponentIDStopButton, func(s DiscordSession, i *discordgo.InteractionCreate) {
		replyOutcome(s, i, controller.Stop(i.GuildID), "Playback stopped.")
	})
	return r
}
