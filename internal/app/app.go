package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"arkive/internal/config"
	"arkive/internal/database"
	"arkive/internal/handler"
	"arkive/internal/identity"
	"arkive/internal/mailer"
	"arkive/internal/middleware"
	"arkive/internal/repository"
	"arkive/internal/router"
	"arkive/internal/service"
	"arkive/internal/storage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	server       *http.Server
	cleanupFuncs []func(ctx context.Context)
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, database.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	refreshRepo := repository.NewRefreshTokenRepository(pool)
	verificationRepo := repository.NewVerificationTokenRepository(pool)
	resetRepo := repository.NewPasswordResetTokenRepository(pool)
	invalidatedRepo := repository.NewInvalidatedTokenRepository(pool)
	collectionRepo := repository.NewCollectionRepository(pool)
	assetRepo := repository.NewAssetRepository(pool)
	sharedLinkRepo := repository.NewSharedLinkRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	slog.Info("database ready")

	renderer, err := mailer.NewRenderer()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load mail templates: %w", err)
	}
	var mail service.Mailer = mailer.NewLogSender(renderer)
	if cfg.SMTPEnabled() {
		mail = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, renderer)
	} else {
		slog.Warn("SMTP not configured, emails will be logged")
	}

	objectStore, err := storage.NewS3Store(ctx, storage.S3Config{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
		PresignTTL:   cfg.PresignTTL,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	hasher := service.NewBcryptHasher(bcrypt.DefaultCost)
	tokenService := service.NewTokenService(service.TokenConfig{
		Secret:              cfg.JWTSecret,
		Issuer:              cfg.JWTIssuer,
		ValidDuration:       cfg.JWTValidDuration,
		RefreshableDuration: cfg.JWTRefreshableDuration,
	}, invalidatedRepo)
	authService := service.NewAuthService(
		userRepo,
		refreshRepo,
		verificationRepo,
		resetRepo,
		tokenService,
		hasher,
		mail,
		service.AuthConfig{
			VerificationCodeTTL: cfg.VerificationCodeTTL,
			ResetCodeTTL:        cfg.ResetCodeTTL,
			FrontendURL:         cfg.FrontendURL,
		},
	)
	if err := authService.SeedAdmin(ctx, service.AdminSeed{
		Username: cfg.DefaultAdminUsername,
		Email:    cfg.DefaultAdminEmail,
		Password: cfg.DefaultAdminPassword,
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}

	googleService := service.NewGoogleAuthService(identity.NewGoogleVerifier(cfg.GoogleClientID), authService)
	collectionService := service.NewCollectionService(collectionRepo)
	assetService := service.NewAssetService(assetRepo, collectionRepo, objectStore, cfg.AllowedMIMETypes, cfg.MaxUploadSize)
	sharedLinkService := service.NewSharedLinkService(
		sharedLinkRepo,
		collectionRepo,
		assetRepo,
		userRepo,
		hasher,
		objectStore,
		cfg.PublicBaseURL,
	)
	profileService := service.NewProfileService(userRepo, profileRepo)
	auditService := service.NewAuditService(auditRepo, cfg.AuditQueueSize)

	handler.ExposeErrorDetails(cfg.IsDevelopment())
	if err := middleware.TrustProxies(cfg.TrustedProxies); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure trusted proxies: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth: handler.NewAuthHandler(authService, googleService, handler.CookieConfig{
			Secure:     cfg.IsProduction(),
			RefreshTTL: cfg.JWTRefreshableDuration,
		}),
		SharedLink: handler.NewSharedLinkHandler(sharedLinkService),
		Collection: handler.NewCollectionHandler(collectionService),
		Asset:      handler.NewAssetHandler(assetService),
		Profile:    handler.NewProfileHandler(profileService),
		Audit:      handler.NewAuditHandler(auditService),
		Auditor:    auditService,
		Health:     db.Health,
	})

	janitor := service.NewJanitor(refreshRepo, verificationRepo, resetRepo, invalidatedRepo)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go janitor.StartCleanupTicker(cleanupCtx, cfg.CleanupInterval)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadTimeout:       cfg.ServerReadTimeout,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		cleanupFuncs: []func(ctx context.Context){
			func(ctx context.Context) {
				if err := auditService.Close(ctx); err != nil {
					slog.Warn("audit queue not drained", "error", err)
				}
			},
			func(context.Context) {
				cleanupCancel()
			},
			func(context.Context) {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop accepting requests before draining the audit queue.
	shutdownErr := a.server.Shutdown(ctx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup(ctx)
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
