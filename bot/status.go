package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PaulSonOfLars/gotgbot/v2"
)

// messageStatus shows batch progress by editing one message in place.
type messageStatus struct {
	bot       *gotgbot.Bot
	chatID    int64
	messageID int64
}

func (s *messageStatus) SetStatus(ctx context.Context, text string) error {
	opts := &gotgbot.EditMessageTextOpts{ //nolint:exhaustruct
		ChatId:    s.chatID,
		MessageId: s.messageID,
	}
	if _, _, err := s.bot.EditMessageTextWithContext(ctx, text, opts); nil != err {
		if isNotModified(err) {
			return nil
		}

		return fmt.Errorf("failed to edit status message: %w", err)
	}

	return nil
}

func (s *messageStatus) Delete(ctx context.Context) error {
	if _, err := s.bot.DeleteMessageWithContext(ctx, s.chatID, s.messageID, nil); nil != err {
		return fmt.Errorf("failed to delete status message: %w", err)
	}

	return nil
}

// isNotModified reports whether err is Telegram refusing an edit that would
// leave the message text unchanged.
func isNotModified(err error) bool {
	var tgErr *gotgbot.TelegramError
	if !errors.As(err, &tgErr) {
		return false
	}

	return strings.Contains(strings.ToLower(tgErr.Description), "message is not modified")
}
