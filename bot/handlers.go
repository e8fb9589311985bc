package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/rs/zerolog"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
	"github.com/neura-neura/sp0t-dl-tg/config"
)

const (
	msgIneligible = "Account is not premium. Cannot proceed."
	msgSearching  = "Searching..."
	msgBusy       = "⏳ Another download is in progress. Try again later."
	msgCanceled   = "⏹️ Download was canceled."
	msgShutdown   = "🛑 Bot is shutting down. Download was not completed. Try again after bot restart."
	msgHelp       = "Send me a track, album or playlist link, or use /search <terms>.\n" +
		"In groups, mention me in the message with the link.\n" +
		"/cancel stops the running download."
)

var ErrNotAllowed = errors.New("sender is not allowed")

func NewChainHandler(handlers ...handlers.Response) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		for _, handler := range handlers {
			if err := handler(b, u); nil != err {
				if errors.Is(err, ErrNotAllowed) {
					return ext.EndGroups
				}

				return err
			}
		}

		return ext.ContinueGroups
	}
}

func NewPapaOnlyGuard(papaID int64) handlers.Response {
	return func(_ *gotgbot.Bot, u *ext.Context) error {
		if u.EffectiveSender.Id() != papaID {
			return ErrNotAllowed
		}

		return nil
	}
}

// NewAllowedGuard lets through papa and the configured allowed users.
func NewAllowedGuard(conf config.Bot) handlers.Response {
	return func(_ *gotgbot.Bot, u *ext.Context) error {
		if !conf.IsAllowed(u.EffectiveSender.Id()) {
			return ErrNotAllowed
		}

		return nil
	}
}

func NewStartCommandHandler(ctx context.Context) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		msg := "Hello! 👋🏻\n\n" + msgHelp
		if _, err := b.SendMessageWithContext(ctx, u.EffectiveChat.Id, msg, replyTo(u.EffectiveMessage)); nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}

		return nil
	}
}

func NewHelpCommandHandler(ctx context.Context) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		if _, err := b.SendMessageWithContext(ctx, u.EffectiveChat.Id, msgHelp, replyTo(u.EffectiveMessage)); nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}

		return nil
	}
}

func NewCancelCommandHandler(ctx context.Context, worker *Worker) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		msg := "Nothing to cancel."
		if worker.CancelJobs() > 0 {
			msg = "Canceling..."
		}

		if _, err := b.SendMessageWithContext(ctx, u.EffectiveChat.Id, msg, replyTo(u.EffectiveMessage)); nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}

		return nil
	}
}

func NewSearchCommandHandler(ctx context.Context, logger zerolog.Logger, svc *Service) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		chatID := u.EffectiveChat.Id
		sendOpt := replyTo(u.EffectiveMessage)

		query := strings.Join(u.Args()[1:], " ")
		if query == "" {
			if _, err := b.SendMessageWithContext(ctx, chatID, "Please provide search terms after /search.", sendOpt); nil != err {
				return fmt.Errorf("failed to send message: %w", err)
			}

			return nil
		}

		res, err := svc.catalog.Search(ctx, query, searchLimit)
		if nil != err {
			msg := "❌ Search failed. Try again later."
			if errors.Is(err, catalog.ErrTooManyRequests) {
				msg = "⏳ Rate limit exceeded, try again later."
			}
			logger.Error().Err(err).Str("query", query).Msg("Search failed")

			if _, err := b.SendMessageWithContext(ctx, chatID, msg, sendOpt); nil != err {
				return fmt.Errorf("failed to send message: %w", err)
			}

			return nil
		}

		if len(res.Tracks)+len(res.Albums)+len(res.Playlists) == 0 {
			if _, err := b.SendMessageWithContext(ctx, chatID, "No results found.", sendOpt); nil != err {
				return fmt.Errorf("failed to send message: %w", err)
			}

			return nil
		}

		sendOpt.ReplyMarkup = searchKeyboard(res)
		if _, err := b.SendMessageWithContext(ctx, chatID, "Results for: "+query, sendOpt); nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}

		return nil
	}
}

func NewLinkHandler(ctx context.Context, logger zerolog.Logger, svc *Service, worker *Worker, apiURL string) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		chatID := u.EffectiveChat.Id
		sendOpt := replyTo(u.EffectiveMessage)
		logger := logger.
			With().
			Int64("chat_id", chatID).
			Int64("message_id", u.EffectiveMessage.MessageId).
			Int64("sender_id", u.EffectiveSender.Id()).
			Logger()

		link, ok := catalog.ParseLink(u.EffectiveMessage.Text)
		if !ok {
			return nil
		}

		jobCtx, release, ok := worker.TryAcquireJob(ctx)
		if !ok {
			if _, err := b.SendMessageWithContext(ctx, chatID, msgBusy, sendOpt); nil != err {
				return fmt.Errorf("failed to send message: %w", err)
			}

			return nil
		}
		defer release()

		if err := svc.CheckEligible(jobCtx); nil != err {
			msg := "❌ Failed to check the account. See logs for details."
			if errors.Is(err, ErrIneligibleAccount) {
				msg = msgIneligible
			}
			logger.Warn().Err(err).Msg("Account check failed")

			if _, err := b.SendMessageWithContext(ctx, chatID, msg, sendOpt); nil != err {
				return fmt.Errorf("failed to send message: %w", err)
			}

			return nil
		}

		statusMsg, err := b.SendMessageWithContext(jobCtx, chatID, msgSearching, sendOpt)
		if nil != err {
			return fmt.Errorf("failed to send message: %w", err)
		}
		status := &messageStatus{bot: b, chatID: chatID, messageID: statusMsg.MessageId}

		return runBatch(jobCtx, logger, svc, status, &audioDeliverer{bot: b, chatID: chatID, apiURL: apiURL}, link)
	}
}

func NewCallbackHandler(ctx context.Context, logger zerolog.Logger, svc *Service, worker *Worker, apiURL string) handlers.Response {
	return func(b *gotgbot.Bot, u *ext.Context) error {
		cq := u.CallbackQuery
		chatID := u.EffectiveChat.Id
		status := &messageStatus{bot: b, chatID: chatID, messageID: cq.Message.GetMessageId()}
		logger := logger.
			With().
			Int64("chat_id", chatID).
			Int64("message_id", status.messageID).
			Int64("sender_id", u.EffectiveSender.Id()).
			Logger()

		if _, err := b.AnswerCallbackQueryWithContext(ctx, cq.Id, nil); nil != err {
			logger.Warn().Err(err).Msg("Failed to answer callback query")
		}

		link, ok, err := parseCallbackData(cq.Data)
		if nil != err {
			logger.Warn().Err(err).Msg("Ignoring callback")
			return nil
		}

		if !ok {
			return status.Delete(ctx)
		}

		jobCtx, release, ok := worker.TryAcquireJob(ctx)
		if !ok {
			return status.SetStatus(ctx, msgBusy)
		}
		defer release()

		if err := svc.CheckEligible(jobCtx); nil != err {
			logger.Warn().Err(err).Msg("Account check failed")
			if errors.Is(err, ErrIneligibleAccount) {
				return status.SetStatus(ctx, msgIneligible)
			}

			return status.SetStatus(ctx, "Error: "+err.Error())
		}

		if err := status.SetStatus(jobCtx, msgSearching); nil != err {
			return err
		}

		return runBatch(jobCtx, logger, svc, status, &audioDeliverer{bot: b, chatID: chatID, apiURL: apiURL}, link)
	}
}

func runBatch(
	ctx context.Context,
	logger zerolog.Logger,
	svc *Service,
	status *messageStatus,
	deliverer *audioDeliverer,
	link catalog.Link,
) error {
	if _, err := svc.Process(ctx, logger, status, deliverer, link); nil != err {
		if errors.Is(err, context.Canceled) {
			msg := msgShutdown
			if errors.Is(context.Cause(ctx), ErrJobCanceled) {
				msg = msgCanceled
			}

			if err := status.SetStatus(context.WithoutCancel(ctx), msg); nil != err {
				return err
			}

			return nil
		}

		logger.Error().Err(err).Msg("Batch failed")

		return nil
	}

	return nil
}

func replyTo(msg *gotgbot.Message) *gotgbot.SendMessageOpts {
	return &gotgbot.SendMessageOpts{ //nolint:exhaustruct
		ReplyParameters: &gotgbot.ReplyParameters{ //nolint:exhaustruct
			MessageId:                msg.MessageId,
			AllowSendingWithoutReply: true,
		},
	}
}
