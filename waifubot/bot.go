package waifubot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
	"github.com/redis/go-redis/v9"

	"github.com/ellavondegurechaff/waifugrab/waifubot/economy/auction"
	"github.com/ellavondegurechaff/waifugrab/waifubot/economy/claim"
	"github.com/ellavondegurechaff/waifugrab/waifubot/economy/spawn"
	"github.com/ellavondegurechaff/waifugrab/waifubot/handlers"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/media"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
	"github.com/ellavondegurechaff/waifugrab/waifubot/sessions"
	"github.com/ellavondegurechaff/waifugrab/waifubot/views"
)

// CardCacheSize bounds the in-process card lookup cache.
const CardCacheSize = 1024

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string

	Store     interfaces.Store
	Messenger interfaces.Messenger
	Tracker   *spawn.Tracker
	Claims    *claim.Manager
	Auctions  *auction.Manager
	Browser   *sessions.Browser
	Checkout  *views.Checkout
	Guard     *handlers.SpamGuard

	closers []func()
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMessages, gateway.IntentMessageContent)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventManagerConfigOpts(bot.WithAsyncEventsEnabled()),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

// SpawnConfig converts the configured spawn thresholds and rarity range.
func (c Config) SpawnConfig() spawn.Config {
	return spawn.Config{
		SpawnThreshold:  c.Spawn.SpawnThreshold,
		SettleThreshold: c.Spawn.SettleThreshold,
		Rarities:        rarity.Range{Min: rarity.Tier(c.Spawn.MinRarity), Max: rarity.Tier(c.Spawn.MaxRarity)},
		ExcludeLocked:   *c.Spawn.ExcludeLocked,
	}
}

func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.Sessions.IdleTimeoutSeconds) * time.Second
}

// InitServices builds the game engines and the session browser around
// store and messenger.
func (b *Bot) InitServices(store interfaces.Store, messenger interfaces.Messenger, sessionStore sessions.Store) error {
	guard, err := handlers.NewSpamGuard()
	if err != nil {
		return fmt.Errorf("failed to create spam guard: %w", err)
	}

	b.Store = store
	b.Messenger = messenger
	b.Guard = guard
	b.Claims = claim.NewManager(store)
	b.Auctions = auction.NewManager(store, messenger)
	b.Tracker = spawn.NewTracker(store, b.Auctions, messenger, b.Cfg.SpawnConfig())

	b.Browser = sessions.NewBrowser(sessionStore, messenger, b.Cfg.IdleTimeout())
	b.Browser.Register(sessions.KindBazaar, views.NewBazaar(store, b.Cfg.Sessions.BazaarSize))
	b.Browser.Register(sessions.KindHarem, views.NewHarem(store, b.Cfg.Sessions.HaremPageSize))
	b.Browser.Register(sessions.KindSearch, views.NewSearch(store, b.Cfg.Sessions.SearchPageSize))
	b.Checkout = views.NewCheckout(store, b.Browser, messenger)
	b.closers = append(b.closers, b.Browser.Close)
	return nil
}

// NewSessionStore opens the configured session backend.
func (b *Bot) NewSessionStore(ctx context.Context) (sessions.Store, error) {
	cfg := b.Cfg.Sessions
	switch cfg.Backend {
	case "memory":
		return sessions.NewMemoryStore(), nil
	case "redis":
		store := sessions.NewRedisStore(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.KeyPrefix)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		return store, nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
}

// NewMediaResolver presigns card media from Spaces when a bucket is
// configured, and uses stored references as URLs otherwise.
func (b *Bot) NewMediaResolver(ctx context.Context) (media.Resolver, error) {
	cfg := b.Cfg.Spaces
	if cfg.Bucket == "" {
		return media.Passthrough{}, nil
	}
	return media.NewSpacesResolver(ctx, media.SpacesConfig{
		Key:      cfg.Key,
		Secret:   cfg.Secret,
		Region:   cfg.Region,
		Bucket:   cfg.Bucket,
		CardRoot: cfg.CardRoot,
		TTL:      time.Duration(cfg.PresignSeconds) * time.Second,
	})
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("WaifuGrab is now ready",
		slog.String("type", "sys"),
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("for waifus"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.String("type", "sys"), slog.Any("error", err))
	}
}

// Close releases the session timers and backends.
func (b *Bot) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}
