package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/profilehub/profilehub/app/db"
	"github.com/profilehub/profilehub/config"
	"github.com/profilehub/profilehub/internal/api/auth"
	"github.com/profilehub/profilehub/internal/api/bookmarks"
	"github.com/profilehub/profilehub/internal/api/messages"
	"github.com/profilehub/profilehub/internal/api/profiles"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	AuthHandler      *auth.HandlerImpl
	ProfilesHandler  *profiles.HandlerImpl
	MessagesHandler  *messages.HandlerImpl
	BookmarksHandler *bookmarks.HandlerImpl
}

// NewContainer initializes and returns a new dependency container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, cfg, logger)
	authHandler := auth.NewHandlerImpl(authService, logger)

	profilesRepo := profiles.NewPostgresProfilesRepo(pool, logger)
	profilesService := profiles.NewProfilesService(profilesRepo, authRepo, logger)
	profilesHandler := profiles.NewHandlerImpl(profilesService, logger)

	messagesRepo := messages.NewPostgresMessagesRepo(pool, logger)
	messagesService := messages.NewMessagesService(messagesRepo, logger)
	messagesHandler := messages.NewHandlerImpl(messagesService, logger)

	bookmarksRepo := bookmarks.NewPostgresBookmarksRepo(pool, logger)
	bookmarksService := bookmarks.NewBookmarksService(bookmarksRepo, logger)
	bookmarksHandler := bookmarks.NewHandlerImpl(bookmarksService, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Pool:             pool,
		AuthHandler:      authHandler,
		ProfilesHandler:  profilesHandler,
		MessagesHandler:  messagesHandler,
		BookmarksHandler: bookmarksHandler,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
