package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/waifugrab/waifubot"
	"github.com/ellavondegurechaff/waifugrab/waifubot/commands"
	"github.com/ellavondegurechaff/waifugrab/waifubot/database"
	"github.com/ellavondegurechaff/waifugrab/waifubot/database/repositories"
	"github.com/ellavondegurechaff/waifugrab/waifubot/handlers"
	"github.com/ellavondegurechaff/waifugrab/waifubot/logger"
	"github.com/ellavondegurechaff/waifugrab/waifubot/messenger"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	slog.SetDefault(slog.New(logger.NewHandler()))

	cfg, err := waifubot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.SetDefault(slog.New(logger.NewHandlerWithWriter(os.Stdout, cfg.Log.Level, cfg.Log.Color)))

	logger.LogSystem("Starting WaifuGrab",
		slog.String("version", version),
		slog.String("commit", commit))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbStartTime := time.Now()
	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("type", "db"),
			slog.Any("error", err),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	if err = db.Ping(ctx); err != nil {
		slog.Error("Database ping failed", slog.String("type", "db"), slog.Any("error", err))
		os.Exit(-1)
	}
	if err = db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema", slog.String("type", "db"), slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Database ready",
		slog.String("type", "db"),
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	store, err := repositories.NewStore(db, waifubot.CardCacheSize)
	if err != nil {
		slog.Error("Failed to create store", slog.String("type", "db"), slog.Any("error", err))
		os.Exit(-1)
	}

	b := waifubot.New(*cfg, version, commit)
	defer b.Close()

	h := handler.New()
	commands.RegisterInteractions(h, b)

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"))
		os.Exit(-1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	resolver, err := b.NewMediaResolver(ctx)
	if err != nil {
		slog.Error("Failed to create media resolver", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}
	discordMessenger, err := messenger.New(b.Client.Rest(), resolver)
	if err != nil {
		slog.Error("Failed to create messenger", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}
	sessionStore, err := b.NewSessionStore(ctx)
	if err != nil {
		slog.Error("Failed to open session store",
			slog.String("type", "sys"),
			slog.String("backend", cfg.Sessions.Backend),
			slog.Any("error", err))
		os.Exit(-1)
	}
	if err = b.InitServices(store, discordMessenger, sessionStore); err != nil {
		slog.Error("Failed to initialize services", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}

	router := handlers.NewMessageRouter(cfg.Bot.Prefix, b.Tracker, b.Store, b.Messenger, b.Guard)
	commands.RegisterText(router, b)
	b.Client.AddEventListeners(bot.NewListenerFunc(router.OnGuildMessage))

	if *shouldSyncCommands {
		logger.LogSystem("Syncing commands",
			slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"))
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "gateway"))
		os.Exit(-1)
	}

	logger.LogSystem("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	logger.LogSystem("Shutting down bot...")
}
