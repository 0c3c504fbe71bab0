package main

import (
	"log"
	"net/http"
	"time"

	"custody-processor/app"
	Config "custody-processor/config"
	"custody-processor/database"
	"custody-processor/middlewares"
	"custody-processor/services"
	"custody-processor/tasks/consolidation"
	"custody-processor/tasks/sweep"
	"custody-processor/utility/cache"
	"custody-processor/utility/locker"
	"custody-processor/utility/logger"
	"custody-processor/utility/ratelimiter"

	"github.com/gorilla/mux"
	validation "gopkg.in/go-playground/validator.v9"
)

func main() {
	config := Config.Data{}
	config.Init("")

	router := mux.NewRouter()
	validator := validation.New()
	memoryCache := cache.Initialize(
		time.Duration(config.ExpireCacheDuration)*time.Second,
		time.Duration(config.PurgeCacheInterval)*time.Second,
	)
	locks := locker.New()
	limiter := ratelimiter.New(ratelimiter.DefaultQuotas(), config.Environment == "test")

	Database := &database.Database{Config: config}
	Database.LoadDBInstance()
	defer Database.CloseDBInstance()
	Database.RunDbMigrations()

	walletRepository := &database.WalletRepository{
		BaseRepository: database.BaseRepository{Database: database.Database{Config: config, DB: Database.DB}},
	}
	custodyService := services.NewCustodyService(memoryCache, config, limiter)
	notificationService := services.NewNotificationService(memoryCache, config)

	App := &app.App{
		Router:    router,
		Validator: validator,
		Config:    config,
		Cache:     memoryCache,
		DB:        Database.DB,
		Custody:   custodyService,
		Notifier:  notificationService,
		Locks:     locks,
	}
	App.RegisterRoutes()

	sweep.ExecuteSweepCronJob(memoryCache, config, walletRepository, custodyService, locks)
	consolidation.ExecuteConsolidationCronJob(memoryCache, config, walletRepository, custodyService, locks)

	middleware := middlewares.NewMiddleware(router).
		LogAPIRequests().
		Timeout(config.RequestTimeout).
		Build()

	serviceAddress := ":" + config.AppPort
	logger.Info("Server started and listening on port %s", config.AppPort)
	log.Fatal(http.ListenAndServe(serviceAddress, middleware))
}
