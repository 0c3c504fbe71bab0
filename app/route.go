package app

import (
	"net/http"
	"sync"

	"custody-processor/controllers"
	"custody-processor/database"

	"custody-processor/utility/logger"
)

var (
	once sync.Once
)

func (app *App) RegisterRoutes() {

	once.Do(func() {
		baseRepository := &database.BaseRepository{Database: database.Database{Config: app.Config, DB: app.DB}}
		walletRepository := &database.WalletRepository{BaseRepository: *baseRepository}

		controller := controllers.NewController(app.Cache, app.Config, app.Validator, baseRepository)
		webhookController := controllers.NewWebhookController(app.Cache, app.Config, app.Validator,
			walletRepository, app.Custody, app.Notifier, app.Locks)

		baseURL := "/api/v1"
		apiRouter := app.Router.PathPrefix(baseURL).Subrouter()

		// General Routes
		apiRouter.HandleFunc("/crypto/ping", controller.Ping).Methods(http.MethodGet)

		// Webhook Routes
		apiRouter.HandleFunc("/webhooks/custody", webhookController.ReceiveCustodyEvent).Methods(http.MethodPost)
	})

	logger.Info("App routes registered successfully!")
}
