package notify

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

type discord struct {
	session   *discordgo.Session
	channelID string
}

func newDiscord(token, channelID string) (*discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	return &discord{session: session, channelID: channelID}, nil
}

func (d *discord) Send(ctx context.Context, title, text string) error {
	body := text
	if title != "" {
		body = "**" + title + "**\n" + text
	}

	_, err := d.session.ChannelMessageSend(d.channelID, body)
	return err
}
