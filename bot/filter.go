package bot

import (
	"strings"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
)

// newLinkFilter accepts text messages carrying a catalog link. Outside
// private chats the message must also mention the bot.
func newLinkFilter(username string) func(msg *gotgbot.Message) bool {
	return func(msg *gotgbot.Message) bool {
		if !message.Text(msg) || message.Command(msg) {
			return false
		}

		if _, ok := catalog.ParseLink(msg.Text); !ok {
			return false
		}

		return msg.Chat.Type == "private" || mentions(msg, username)
	}
}

func mentions(msg *gotgbot.Message, username string) bool {
	want := "@" + strings.TrimPrefix(username, "@")
	for _, ent := range msg.Entities {
		if ent.Type != "mention" {
			continue
		}

		if strings.EqualFold(gotgbot.ParseEntity(msg.Text, ent).Text, want) {
			return true
		}
	}

	return false
}
