package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"formsadmin/internal/admin"
	"formsadmin/internal/auth"
	"formsadmin/internal/config"
	"formsadmin/internal/export"
	"formsadmin/internal/logging"
	"formsadmin/internal/render"
	"formsadmin/internal/router"
	"formsadmin/internal/storage"
)

// @title        formsadmin
// @version      1.0
// @description  Read-only administration and spreadsheet export of form submissions.
// @BasePath     /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load configuration")
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("unable to configure logging")
	}
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("unable to open database")
	}
	defer db.Close()

	if err := seedAdmin(ctx, db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("unable to seed admin user")
	}

	var renderOpts []render.Option
	if cfg.TemplateDir != "" {
		renderOpts = append(renderOpts, render.WithOverrideDir(cfg.TemplateDir))
	}
	engine, err := render.New(renderOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load templates")
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to init session tokens")
	}

	exporter := export.DefaultSpreadsheet()
	if !exporter.Supports(cfg.ExportFileType) {
		log.Fatal().Str("file_type", cfg.ExportFileType).Msg("unsupported export_file_type")
	}

	site := admin.NewSite("/admin", engine,
		admin.WithTitle(cfg.SiteTitle),
		admin.WithLogoutURL(router.LogoutPath),
	)
	deps := admin.Deps{
		Store:     db,
		Renderer:  engine,
		Exporter:  exporter,
		FileType:  cfg.ExportFileType,
		Languages: cfg.Languages,
	}
	for _, ma := range []admin.ModelAdmin{admin.NewFormDataAdmin(deps), admin.NewFormSubmissionAdmin(deps)} {
		if err := site.Register(ma); err != nil {
			log.Fatal().Err(err).Msg("unable to register model admin")
		}
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: router.New(site, router.Options{
			Issuer:         issuer,
			Users:          db,
			DB:             db,
			AllowedOrigins: cfg.AllowedOrigins,
			LoginRate:      cfg.LoginRate,
			LoginBurst:     cfg.LoginBurst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("formsadmin listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Err(err).Msg("unable to shut down cleanly")
	}
}

// seedAdmin creates the configured staff user when it does not exist yet.
func seedAdmin(ctx context.Context, db *storage.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := db.GetUserByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := db.CreateUser(ctx, username, string(hash), true); err != nil {
		return err
	}
	log.Info().Str("username", username).Msg("seeded admin user")
	return nil
}
