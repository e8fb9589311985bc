package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/rs/zerolog"

	"github.com/neura-neura/sp0t-dl-tg/config"
	"github.com/neura-neura/sp0t-dl-tg/constant"
)

type Bot struct {
	bot        *gotgbot.Bot
	updater    *ext.Updater
	dispatcher *ext.Dispatcher
	logger     zerolog.Logger
	papaChatID int64
	Account    Account
}

type Account struct {
	ID        int64
	Username  string
	IsBot     bool
	FirstName string
}

func (a *Account) ToDict() *zerolog.Event {
	return zerolog.
		Dict().
		Int64("id", a.ID).
		Str("username", a.Username).
		Bool("is_bot", a.IsBot).
		Str("first_name", a.FirstName)
}

func newAPIClient(conf config.Bot) (*gotgbot.Bot, error) {
	b, err := gotgbot.NewBot(conf.Token, &gotgbot.BotOpts{ //nolint:exhaustruct
		BotClient: &gotgbot.BaseBotClient{
			Client:             http.Client{}, //nolint:exhaustruct
			UseTestEnvironment: false,
			DefaultRequestOpts: &gotgbot.RequestOpts{
				Timeout: 30 * time.Second,
				APIURL:  conf.APIURL,
			},
		},
	})
	if nil != err {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	return b, nil
}

func New(ctx context.Context, logger zerolog.Logger, conf config.Bot) (*Bot, error) {
	b, err := newAPIClient(conf)
	if nil != err {
		return nil, err
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{ //nolint:exhaustruct
		Error: func(_ *gotgbot.Bot, _ *ext.Context, err error) ext.DispatcherAction {
			if ctxErr := ctx.Err(); nil != ctxErr && errors.Is(ctxErr, context.Canceled) && errors.Is(err, context.Canceled) {
				logger.Warn().Msg("Context cancelled while handling update")
				return ext.DispatcherActionEndGroups
			}

			logger.Error().Err(err).Msg("An error occurred while handling update")

			return ext.DispatcherActionNoop
		},
		Panic: func(_ *gotgbot.Bot, _ *ext.Context, r any) {
			logger.Error().Any("panic", r).Msg("Panic occurred while handling update")
		},
		MaxRoutines: 10,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	return &Bot{
		bot:        b,
		updater:    updater,
		dispatcher: dispatcher,
		logger:     logger,
		papaChatID: conf.PapaID,
		Account: Account{
			ID:        b.Id,
			Username:  b.Username,
			IsBot:     b.IsBot,
			FirstName: b.FirstName,
		},
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	commands := []gotgbot.BotCommand{
		{Command: "search", Description: "Search for songs, albums, or playlists"},
		{Command: "help", Description: "Show usage"},
		{Command: "cancel", Description: "Cancel the running download"},
	}
	if _, err := b.bot.SetMyCommandsWithContext(ctx, commands, nil); nil != err {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}

	pollOpts := ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{ //nolint:exhaustruct
			Timeout: 9,
			RequestOpts: &gotgbot.RequestOpts{ //nolint:exhaustruct
				Timeout: time.Second * 10,
			},
			AllowedUpdates: []string{"message", "callback_query"},
		},
		EnableWebhookDeletion: true,
	}
	if err := b.updater.StartPolling(b.bot, &pollOpts); nil != err {
		return fmt.Errorf("failed to start polling: %v", err)
	}

	sendOpts := &gotgbot.SendMessageOpts{ //nolint:exhaustruct
		ParseMode: gotgbot.ParseModeMarkdownV2,
	}
	compiledAt, _ := time.Parse(time.RFC3339, constant.CompileTime)
	msg := strings.Join([]string{
		`I'm online, Papa 🙂`,
		``,
		"> 🏷️ Version: `" + constant.Version + "`",
		"> 🕒 Compiled At: `" + compiledAt.Format("2006/01/02 15:04:05") + " UTC`",
	}, "\n")
	if _, err := b.bot.SendMessageWithContext(ctx, b.papaChatID, msg, sendOpts); nil != err {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func (b *Bot) Stop() error {
	if err := b.updater.Stop(); nil != err {
		return fmt.Errorf("failed to bot stop updater: %v", err)
	}

	if _, err := b.bot.SendMessage(b.papaChatID, "I'm going offline, Papa 🥲", nil); nil != err {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func (b *Bot) RegisterHandlers(ctx context.Context, logger zerolog.Logger, conf config.Bot, svc *Service, worker *Worker) {
	username := conf.Username
	if username == "" {
		username = b.Account.Username
	}

	b.dispatcher.AddHandler(
		handlers.
			NewMessage(
				newLinkFilter(username),
				NewChainHandler(
					NewAllowedGuard(conf),
					NewLinkHandler(ctx, logger, svc, worker, conf.APIURL),
				),
			).
			SetAllowChannel(false).
			SetAllowEdited(false),
	)

	b.dispatcher.AddHandler(
		handlers.NewCallback(
			callbackquery.All,
			NewChainHandler(
				NewAllowedGuard(conf),
				NewCallbackHandler(ctx, logger, svc, worker, conf.APIURL),
			),
		),
	)

	b.dispatcher.AddHandler(
		handlers.
			NewCommand(
				"start",
				NewChainHandler(
					NewStartCommandHandler(ctx),
				),
			).
			SetAllowChannel(false).
			SetAllowEdited(false),
	)

	b.dispatcher.AddHandler(
		handlers.
			NewCommand(
				"help",
				NewChainHandler(
					NewHelpCommandHandler(ctx),
				),
			).
			SetAllowChannel(false).
			SetAllowEdited(false),
	)

	b.dispatcher.AddHandler(
		handlers.
			NewCommand(
				"search",
				NewChainHandler(
					NewAllowedGuard(conf),
					NewSearchCommandHandler(ctx, logger, svc),
				),
			).
			SetAllowChannel(false).
			SetAllowEdited(false),
	)

	b.dispatcher.AddHandler(
		handlers.
			NewCommand(
				"cancel",
				NewChainHandler(
					NewPapaOnlyGuard(conf.PapaID),
					NewCancelCommandHandler(ctx, worker),
				),
			).
			SetAllowChannel(false).
			SetAllowEdited(false),
	)
}

type APIBot struct {
	bot     *gotgbot.Bot
	Account Account
}

func NewAPI(conf config.Bot) (*APIBot, error) {
	b, err := newAPIClient(conf)
	if nil != err {
		return nil, err
	}

	return &APIBot{
		bot: b,
		Account: Account{
			ID:        b.Id,
			Username:  b.Username,
			IsBot:     b.IsBot,
			FirstName: b.FirstName,
		},
	}, nil
}

// Logout logs out from the cloud Bot API server before launching the bot
// against a local server. Logging back in to the cloud server is refused for
// 10 minutes afterwards.
func (b *APIBot) Logout(ctx context.Context) error {
	if _, err := b.bot.LogOutWithContext(ctx, nil); nil != err {
		return fmt.Errorf("failed to log out: %w", err)
	}

	return nil
}

// Close closes the bot instance before moving it from one local server to
// another. It fails with 429 during the first 10 minutes after launch.
func (b *APIBot) Close(ctx context.Context) error {
	if _, err := b.bot.DeleteWebhookWithContext(ctx, nil); nil != err {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	if _, err := b.bot.CloseWithContext(ctx, nil); nil != err {
		return fmt.Errorf("failed to close bot: %w", err)
	}

	return nil
}
