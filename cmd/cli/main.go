package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

// apiClient talks to the bot's status API.
type apiClient struct {
	base string
	http *http.Client
}

func (c *apiClient) get(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *apiClient) post(path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	resp, err := c.http.Post(c.base+path, "application/json", reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 400 {
		var failure struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&failure); err == nil && failure.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, failure.Error)
		}
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func clientFrom(c *cli.Context) *apiClient {
	return &apiClient{
		base: c.String("api"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func guildCommand(name, usage, action string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "guild-id",
				Usage:    "ID of the guild to control",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			client := clientFrom(c)
			path := fmt.Sprintf("/api/guilds/%s/%s", c.String("guild-id"), action)
			if err := client.post(path, nil, nil); err != nil {
				return cli.Exit("Failed: "+err.Error(), 1)
			}
			log.Printf("%s: ok", name)
			return nil
		},
	}
}

func main() {
	app := &cli.App{
		Name:        "dis-track-cli",
		Description: "A development CLI for driving the bot's playback API without Discord",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api",
				Usage: "Base URL of the bot's status API",
				Value: "http://localhost:8383",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show every guild's playback session",
				Action: func(c *cli.Context) error {
					client := clientFrom(c)
					var body struct {
						Guilds []struct {
							GuildID     string `json:"guildId"`
							Status      string `json:"status"`
							QueueLength int    `json:"queueLength"`
							Current     *struct {
								Title  string `json:"title"`
								Artist string `json:"artist"`
							} `json:"current"`
						} `json:"guilds"`
					}
					if err := client.get("/api/status", &body); err != nil {
						return cli.Exit("Failed to fetch status: "+err.Error(), 1)
					}
					if len(body.Guilds) == 0 {
						log.Println("No playback sessions.")
						return nil
					}
					for _, g := range body.Guilds {
						line := fmt.Sprintf("%s: %s (%d queued)", g.GuildID, g.Status, g.QueueLength)
						if g.Current != nil {
							line += " - " + g.Current.Title
							if g.Current.Artist != "" {
								line += " by " + g.Current.Artist
							}
						}
						log.Println(line)
					}
					return nil
				},
			},
			{
				Name:  "queue",
				Usage: "List the pending queue for a guild",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "guild-id",
						Usage:    "ID of the guild to inspect",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					client := clientFrom(c)
					var body struct {
						Queue []struct {
							Ref       string `json:"ref"`
							Requester string `json:"requester"`
						} `json:"queue"`
					}
					path := fmt.Sprintf("/api/guilds/%s/queue", c.String("guild-id"))
					if err := client.get(path, &body); err != nil {
						return cli.Exit("Failed to fetch queue: "+err.Error(), 1)
					}
					if len(body.Queue) == 0 {
						log.Println("The queue is empty.")
						return nil
					}
					for i, entry := range body.Queue {
						log.Printf("%d. %s (requested by %s)", i+1, entry.Ref, entry.Requester)
					}
					return nil
				},
			},
			{
				Name:  "play",
				Usage: "Submit a link for playback in a guild's voice channel",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "guild-id",
						Usage:    "ID of the guild to play in",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "channel-id",
						Usage:    "ID of the voice channel to join",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "link",
						Usage:    "A YouTube video/playlist link, a Spotify link, or a direct audio URL",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					client := clientFrom(c)
					request := map[string]string{
						"link":      c.String("link"),
						"channelId": c.String("channel-id"),
						"requester": "cli",
					}
					var body struct {
						RequestID string `json:"requestId"`
						Started   bool   `json:"started"`
						Ref       string `json:"ref"`
					}
					path := fmt.Sprintf("/api/guilds/%s/play", c.String("guild-id"))
					if err := client.post(path, request, &body); err != nil {
						return cli.Exit("Failed to submit play request: "+err.Error(), 1)
					}
					if body.Started {
						log.Printf("Now playing %s (request %s)", body.Ref, body.RequestID)
					} else {
						log.Printf("Queued %s (request %s)", body.Ref, body.RequestID)
					}
					return nil
				},
			},
			guildCommand("pause", "Pause playback", "pause"),
			guildCommand("resume", "Resume paused playback", "resume"),
			guildCommand("skip", "Skip to the next track", "skip"),
			guildCommand("stop", "Stop playback and clear the queue", "stop"),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error running CLI: %v", err)
	}
}
