package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/skvorcov/blog_backend/internal/auth"
	"github.com/skvorcov/blog_backend/internal/config"
	"github.com/skvorcov/blog_backend/internal/es"
	"github.com/skvorcov/blog_backend/internal/handlers"
	"github.com/skvorcov/blog_backend/internal/logging"
	"github.com/skvorcov/blog_backend/internal/mykafka"
	"github.com/skvorcov/blog_backend/internal/repo"
	"github.com/skvorcov/blog_backend/internal/service/search"
	httpserver "github.com/skvorcov/blog_backend/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	configuration.MustValidate()

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	accessSecret := []byte(configuration.ACCESS_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod = mykafka.NewProducer(config.CSV(configuration.KAFKA_ADDRESS))
	} else {
		logger.Warn("KAFKA_ADDRESS not set, events disabled")
	}

	var searchSvc *search.Service
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchSvc = search.NewService(esClient, "posts")
	} else {
		logger.Warn("ES_URL not set, search disabled")
	}

	users := &repo.UserRepo{DB: db}
	posts := &repo.PostRepo{DB: db}
	refreshTokens := &repo.RefreshRepo{DB: db}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(httpserver.RequestLogger(logger))
	e.Use(auth.AttachIdentity(accessSecret))

	deps := httpserver.Deps{
		DB:    db,
		Users: users,
		AuthHandler: &handlers.AuthHandler{
			Users:         users,
			RefreshTokens: refreshTokens,
			AccessSecret:  accessSecret,
			RefreshSecret: refreshSecret,
			AccessTTL:     configuration.ACCESS_TTL,
			RefreshTTL:    configuration.REFRESH_TTL,
			Producer:      prod,
		},
		PostHandler: &handlers.PostHandler{
			Posts:    posts,
			Users:    users,
			Producer: prod,
			Search:   searchSvc,
		},
		UserHandler:   &handlers.UserHandler{Users: users},
		SearchHandler: &handlers.SearchHandler{Search: searchSvc},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", configuration.SERVER_PORT),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
