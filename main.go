package main

import (
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"github.com/videoreview/videoreview_server/internal"
	"github.com/videoreview/videoreview_server/internal/auth"
	"github.com/videoreview/videoreview_server/internal/comment"
	"github.com/videoreview/videoreview_server/internal/health"
	"github.com/videoreview/videoreview_server/internal/integrations"
	"github.com/videoreview/videoreview_server/internal/media"
	"github.com/videoreview/videoreview_server/internal/notify"
	"github.com/videoreview/videoreview_server/internal/readstatus"
	"github.com/videoreview/videoreview_server/internal/storage"
	"github.com/videoreview/videoreview_server/internal/upload"
	"github.com/videoreview/videoreview_server/internal/video"
)

func main() {
	config, err := internal.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
		return
	}

	db, err := internal.NewDB()
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
		return
	}

	backend, err := storage.NewBackend(config.BackendConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing storage backend")
		return
	}
	log.Info().Str("backend", string(backend.Type())).Msg("Storage backend initialized")

	identityRepository := auth.NewPostgresIdentityRepository(db)
	authService := auth.NewService(identityRepository, config.Auth)
	authEndpoints := auth.NewEndpoints(identityRepository, authService)

	videoRepository := video.NewRepository(db)
	videoEndpoints := video.NewEndpoints(videoRepository)

	hub := notify.NewHub()
	go hub.Run()
	wsHandler := notify.NewHandler(hub, authService)

	sessionRepository := upload.NewPostgresSessionRepository(db)
	uploadService := upload.NewService(sessionRepository, videoRepository, backend)
	uploadEndpoints := upload.NewEndpoints(uploadService, config.Upload, hub)

	cleanup := upload.NewCleanupScheduler(sessionRepository, config.Upload.SessionTTLHours)
	cleanup.Start()
	defer cleanup.Stop()

	mediaEndpoints := media.NewEndpoints(backend, videoRepository)

	commentRepository := comment.NewRepository(db)
	commentEndpoints := comment.NewEndpoints(commentRepository, hub)

	readStatusRepository := readstatus.NewRepository(db)
	readStatusEndpoints := readstatus.NewEndpoints(readStatusRepository)

	slackEndpoints := integrations.NewSlackEndpoints(config.Slack)
	jiraEndpoints, err := integrations.NewJiraEndpoints(config.Jira)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing Jira client")
		return
	}

	healthEndpoints := health.NewEndpoints(db)

	requestHandler := internal.NewRequestHandler(
		config,
		authService,
		authEndpoints,
		uploadEndpoints,
		videoEndpoints,
		mediaEndpoints,
		commentEndpoints,
		readStatusEndpoints,
		slackEndpoints,
		jiraEndpoints,
		healthEndpoints,
		wsHandler,
	)

	log.Info().Str("addr", config.ListenAddr).Msg("Server listening")
	if err := fasthttp.ListenAndServe(config.ListenAddr, requestHandler); err != nil {
		log.Fatal().Err(err).Msg("Error starting server")
	}
}
