package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/neura-neura/sp0t-dl-tg/batch"
	"github.com/neura-neura/sp0t-dl-tg/bot"
	"github.com/neura-neura/sp0t-dl-tg/cache"
	"github.com/neura-neura/sp0t-dl-tg/catalog"
	"github.com/neura-neura/sp0t-dl-tg/config"
	"github.com/neura-neura/sp0t-dl-tg/constant"
	"github.com/neura-neura/sp0t-dl-tg/license"
	"github.com/neura-neura/sp0t-dl-tg/log"
	"github.com/neura-neura/sp0t-dl-tg/media"
	"github.com/neura-neura/sp0t-dl-tg/ratelimit"
	"github.com/neura-neura/sp0t-dl-tg/session"
)

func main() {
	logger := log.NewDefault()

	//nolint:exhaustruct
	app := &cli.Command{
		Name:    "sp0t-dl-tg",
		Version: constant.Version,
		Metadata: map[string]any{
			"compiled_at": constant.CompileTime,
		},
		Suggest:                    true,
		Usage:                      "Telegram music catalog downloader",
		EnableShellCompletion:      true,
		ShellCompletionCommandName: "shell-completion",
		AllowExtFlags:              false,
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:     "config",
				Usage:    "Config file path",
				Required: false,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "bot",
				Usage: "Bot commands",
				Commands: []*cli.Command{
					//nolint:exhaustruct
					{
						Name:   "run",
						Usage:  "Run the bot",
						Action: botRun,
					},
					{
						Name:  "logout",
						Usage: "Logout the bot",
						Description: strings.Join(
							[]string{
								"Execute before you want to move the bot from the cloud Bot API server.",
								"Otherwise there is no guarantee that the bot will receive updates.",
								"After a successful call, you can immediately log in on a local server,",
								"but will not be able to log in back to the cloud Bot API server for 10 minutes.",
							},
							"\n",
						),
						Action: botLogout,
					},
					{
						Name:  "close",
						Usage: "Closes the bot",
						Description: strings.Join(
							[]string{
								"Execute before you want to move the bot from one local server to another.",
								"Errors if execute in the first 10 minutes of the bot being launched.",
							},
							"\n",
						),
						Action: botClose,
					},
				},
			},
			{
				Name:  "catalog",
				Usage: "Catalog commands",
				Commands: []*cli.Command{
					//nolint:exhaustruct
					{
						Name:      "search",
						Usage:     "Search tracks, albums and playlists",
						ArgsUsage: "<terms>",
						Action:    catalogSearch,
					},
					{
						Name:   "account",
						Usage:  "Show the account product tier",
						Action: catalogAccount,
					},
				},
			},
			//nolint:exhaustruct
			{
				Name:   "totp",
				Usage:  "Print the current one-time code for the configured secret",
				Action: printTOTP,
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			os.Exit(1)
		}

		var exitCode exitCodeError
		if errors.As(err, &exitCode) {
			os.Exit(int(exitCode))
		}

		logger.Error().Err(err).Msg("Application exited with error")
		os.Exit(10)
	}
}

type exitCodeError int

func (e exitCodeError) Error() string {
	return "error with exit code: " + strconv.Itoa(int(e))
}

func loadConfig(cmd *cli.Command) (*config.Config, zerolog.Logger, error) {
	logger := log.NewDefault()

	if err := godotenv.Load(); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, logger, fmt.Errorf("load .env file: %v", err)
		}
		logger.Info().Msg(".env file was not found")
	} else {
		logger.Debug().Msg(".env file was loaded")
	}

	conf, err := config.Load(cmd.String("config"))
	if nil != err {
		return nil, logger, fmt.Errorf("load config: %v", err)
	}

	logger = log.FromConfig(conf.Log)
	logger.Debug().Dict("config", conf.ToDict()).Msg("Config loaded")

	return conf, logger, nil
}

func newCatalog(ctx context.Context, logger zerolog.Logger, conf *config.Config) (*session.Session, *catalog.Client, *cache.Covers, error) {
	cookies, err := session.LoadCookies(conf.Session.CookiesFile)
	if nil != err {
		return nil, nil, nil, fmt.Errorf("load cookies: %v", err)
	}

	sess, err := session.Initialize(ctx, logger, session.OptionsFromConfig(conf.Session), cookies)
	if nil != err {
		if errors.Is(err, session.ErrAuth) {
			logger.Error().Err(err).Msg("Session could not be initialized. Check the cookie file and TOTP secret.")
			return nil, nil, nil, exitCodeError(2)
		}

		return nil, nil, nil, fmt.Errorf("initialize session: %w", err)
	}
	logger.Debug().Msg("Session initialized")

	covers := cache.NewCovers()
	client := catalog.NewClient(sess, sess.HTTPClient(), conf.Catalog, covers, ratelimit.NewPlaylistPacer())

	return sess, client, covers, nil
}

func botRun(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conf, logger, err := loadConfig(cmd)
	if nil != err {
		return err
	}

	sess, cat, covers, err := newCatalog(ctx, logger, conf)
	if nil != err {
		return err
	}
	defer covers.Stop()
	go sess.KeepFresh(ctx, logger, time.Duration(conf.Session.RenewInterval)*time.Second)

	exchanger := license.NewExchanger(sess, sess.HTTPClient(), conf.License, license.Unavailable{})
	logger.Warn().Msg("No protection client is linked into this build; every asset will fail at key resolution")

	unprotector, transcoder := media.ToolsFromConfig(conf.Tools)
	downloader := media.NewDownloader(&http.Client{}, time.Duration(conf.Catalog.Timeouts.Download)*time.Second) //nolint:exhaustruct
	pipeline := media.NewPipeline(cat, downloader, unprotector, transcoder)
	orchestrator := batch.NewOrchestrator(cat, cat, exchanger, pipeline, conf.Bot.ScratchDir, conf.Delivery)
	svc := bot.NewService(cat, orchestrator, conf.Catalog.EligibleProduct)

	b, err := bot.New(ctx, logger, conf.Bot)
	if nil != err {
		return fmt.Errorf("create bot: %w", err)
	}
	logger.Info().Dict("account", b.Account.ToDict()).Msg("Bot instance created")

	worker := bot.NewWorker(1)
	b.RegisterHandlers(ctx, logger, conf.Bot, svc, worker)

	logger.Debug().Msg("Starting bot")
	if err := b.Start(ctx); nil != err {
		return fmt.Errorf("start bot: %w", err)
	}
	logger.Info().Msg("Bot started and listening for updates")

	<-ctx.Done()
	logger.Warn().Msg("Stopping application")

	if err := b.Stop(); nil != err {
		return fmt.Errorf("stop bot: %v", err)
	}
	logger.Info().Msg("Bot stopped successfully")

	return nil
}

func botLogout(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conf, logger, err := loadConfig(cmd)
	if nil != err {
		return err
	}

	b, err := bot.NewAPI(conf.Bot)
	if nil != err {
		return fmt.Errorf("create API bot: %w", err)
	}
	logger.Info().Dict("account", b.Account.ToDict()).Msg("Bot instance created")

	if err := b.Logout(ctx); nil != err {
		return fmt.Errorf("logout API bot: %w", err)
	}
	logger.Info().Msg("Bot instance logged out successfully. You can now run the bot locally.")

	return nil
}

func botClose(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conf, logger, err := loadConfig(cmd)
	if nil != err {
		return err
	}

	b, err := bot.NewAPI(conf.Bot)
	if nil != err {
		return fmt.Errorf("create API bot: %w", err)
	}
	logger.Info().Dict("account", b.Account.ToDict()).Msg("Bot instance created")

	if err := b.Close(ctx); nil != err {
		return fmt.Errorf("close API bot: %w", err)
	}
	logger.
		Info().
		Msg("Bot instance closed successfully. You can now move the bot to another local server.")

	return nil
}

func catalogSearch(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	query := strings.Join(cmd.Args().Slice(), " ")
	if query == "" {
		return errors.New("search terms are required")
	}

	conf, logger, err := loadConfig(cmd)
	if nil != err {
		return err
	}

	_, cat, covers, err := newCatalog(ctx, logger, conf)
	if nil != err {
		return err
	}
	defer covers.Stop()

	res, err := cat.Search(ctx, query, 10)
	if nil != err {
		return fmt.Errorf("search: %w", err)
	}

	fmt.Fprintln(os.Stdout, renderSearchResults(res))

	return nil
}

func catalogAccount(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conf, logger, err := loadConfig(cmd)
	if nil != err {
		return err
	}

	_, cat, covers, err := newCatalog(ctx, logger, conf)
	if nil != err {
		return err
	}
	defer covers.Stop()

	account, err := cat.AccountAttributes(ctx)
	if nil != err {
		return fmt.Errorf("get account attributes: %w", err)
	}
	logger.Info().
		Str("product", account.Product).
		Str("country", account.Country).
		Str("username", account.Username).
		Bool("eligible", strings.EqualFold(account.Product, conf.Catalog.EligibleProduct)).
		Msg("Account attributes")

	return nil
}

func printTOTP(_ context.Context, cmd *cli.Command) error {
	conf, _, err := loadConfig(cmd)
	if nil != err {
		return err
	}

	now := time.Now()
	code := session.NewTOTP([]byte(conf.Session.TOTPSecret)).Generate(now)
	fmt.Fprintln(os.Stdout, code)

	return nil
}
