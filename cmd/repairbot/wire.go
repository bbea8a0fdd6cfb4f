package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/auth"
	"github.com/khayai/repairbot/internal/config"
	httpapi "github.com/khayai/repairbot/internal/http"
	"github.com/khayai/repairbot/internal/line"
	"github.com/khayai/repairbot/internal/notify"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/services"
	"github.com/khayai/repairbot/internal/storage"
	"github.com/khayai/repairbot/internal/store"
)

// app is the wired object graph behind the server and the CLI commands.
type app struct {
	db       *gorm.DB
	redis    *redis.Client
	counters *services.CounterService
	accounts *services.AdminService
	settings *services.SettingsService
	deps     httpapi.Deps
}

// openDB connects to the configured database and brings the schema up to date.
func openDB(c config.Config) (*gorm.DB, error) {
	db, err := repo.Open(c.DBDriver, c.DBPath, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if missing := repo.ValidateColumns(db); len(missing) > 0 {
		log.Warn().Interface("missing", missing).Msg("schema is missing columns")
	}
	return db, nil
}

// newStoreApp wires only the database-backed services. It is enough for
// the maintenance commands.
func newStoreApp(ctx context.Context, c config.Config) (*app, error) {
	db, err := openDB(c)
	if err != nil {
		return nil, err
	}
	a := &app{db: db}

	if c.Stores.State == "redis" || c.Stores.Counter == "redis" {
		a.redis, err = store.NewRedisClient(ctx, c.Redis.Addr, c.Redis.Password)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	loc := c.Location()
	var counterStore store.CounterStore = store.NewSQLCounterStore(db)
	if c.Stores.Counter == "redis" {
		counterStore = store.NewRedisCounterStore(a.redis, c.Redis.Prefix)
	}
	a.counters = &services.CounterService{DB: db, Counters: counterStore, Location: loc}
	a.accounts = &services.AdminService{DB: db, Tokens: auth.NewIssuer(c.Auth.JWTSecret, c.Auth.JWTTTL)}
	return a, nil
}

// newApp wires every service the HTTP surface needs.
func newApp(ctx context.Context, c config.Config) (*app, error) {
	a, err := newStoreApp(ctx, c)
	if err != nil {
		return nil, err
	}
	db, loc := a.db, c.Location()

	var conversations store.ConversationStore = store.NewMemoryConversationStore(c.Stores.StateMaxEntries, c.Stores.StateTTL)
	if c.Stores.State == "redis" {
		conversations = store.NewRedisConversationStore(a.redis, c.Redis.Prefix, c.Stores.StateTTL)
	}

	var objects storage.ObjectStore
	if c.Objects.Enabled() {
		ms, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  c.Objects.Endpoint,
			AccessKey: c.Objects.AccessKey,
			SecretKey: c.Objects.SecretKey,
			Bucket:    c.Objects.Bucket,
			UseSSL:    c.Objects.UseSSL,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("object store: %w", err)
		}
		objects = ms
	}

	client, err := line.NewClient(c.Line.ChannelSecret, c.Line.ChannelAccessToken, line.WithProfileCache(1000, time.Hour))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("line client: %w", err)
	}

	flex := line.NewSettingsHolder(line.DefaultFlexSettings(c.Org.Name))
	templates := line.NewTemplates(flex, c.Line.BaseURL, loc)

	settings := &services.SettingsService{
		DB:       db,
		Env:      notify.Settings{BotToken: c.Telegram.BotToken, ChatID: c.Telegram.ChatID, Enabled: c.Telegram.Enabled},
		Flex:     flex,
		Location: loc,
	}
	settings.Telegram = notify.NewTelegram(c.Telegram.APIBase, settings.StaffSettings)
	if err := settings.LoadFlex(ctx); err != nil {
		log.Warn().Err(err).Msg("stored card settings unreadable; using defaults")
	}
	a.settings = settings

	notifier := &services.Notifier{
		Messenger: client,
		Templates: templates,
		Staff:     settings.Telegram,
		Location:  loc,
	}
	ratings := &services.RatingService{DB: db, Messenger: client, Location: loc}
	requests := &services.RequestService{DB: db, Notifier: notifier, Objects: objects, PresignTTL: c.Objects.PresignTTL}

	a.deps = httpapi.Deps{
		Tokens: a.accounts.Tokens,
		Parser: client,
		Bot: services.NewBot(db, conversations, client, templates, ratings, services.Contact{
			OrgName: c.Org.Name,
			Phone:   c.Org.ContactPhone,
			Email:   c.Org.ContactEmail,
		}, loc),
		Forms: &services.FormService{
			DB:             db,
			Conversations:  conversations,
			Messenger:      client,
			Templates:      templates,
			IDs:            services.NewRequestIDGenerator(a.counters.Counters, loc),
			Notifier:       notifier,
			Objects:        objects,
			IdempotencyTTL: c.IdempotencyTTL,
		},
		Ratings:    ratings,
		Requests:   requests,
		Poles:      &services.PoleService{DB: db},
		Inventory:  &services.InventoryService{DB: db},
		Accounts:   a.accounts,
		Counters:   a.counters,
		Settings:   settings,
		Signatures: &services.SignatureService{DB: db, Objects: objects, PresignTTL: c.Objects.PresignTTL},
	}
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			log.Warn().Err(err).Msg("close redis")
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
