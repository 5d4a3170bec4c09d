package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Discord posts events to a channel webhook.
type Discord struct {
	session   *discordgo.Session
	webhookID string
	token     string
}

// NewDiscord returns nil when the webhook is not configured.
func NewDiscord(webhookID, token string) (*Discord, error) {
	if webhookID == "" || token == "" {
		return nil, nil
	}
	s, err := discordgo.New("")
	if err != nil {
		return nil, err
	}
	return &Discord{session: s, webhookID: webhookID, token: token}, nil
}

func (d *Discord) Notify(ctx context.Context, ev Event) error {
	_, err := d.session.WebhookExecute(d.webhookID, d.token, false, &discordgo.WebhookParams{
		Username: "V4ULT",
		Content:  Format(ev),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

// Format renders ev as a short single-line message.
func Format(ev Event) string {
	keys := make([]string, 0, len(ev.Data))
	for k := range ev.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("**")
	b.WriteString(ev.Type)
	b.WriteString("**")
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=`%v`", k, ev.Data[k])
	}
	return b.String()
}
