package controllers

import (
	"encoding/json"
	"net/http"

	Config "custody-processor/config"
	"custody-processor/database"
	"custody-processor/services"
	"custody-processor/utility/cache"
	"custody-processor/utility/locker"
	"custody-processor/utility/logger"
	"custody-processor/utility/response"

	validation "gopkg.in/go-playground/validator.v9"
)

//Controller : Controller struct
type Controller struct {
	Cache      *cache.Memory
	Config     Config.Data
	Validator  *validation.Validate
	Repository database.IRepository
}

//WebhookController : Webhook controller struct
type WebhookController struct {
	Cache      *cache.Memory
	Config     Config.Data
	Validator  *validation.Validate
	Repository database.IWalletRepository
	Custody    services.ICustodyClient
	Notifier   services.INotificationSink
	Locks      *locker.Keyed
}

// NewController ... Create a new base controller instance
func NewController(memoryCache *cache.Memory, configData Config.Data, validator *validation.Validate, repository database.IRepository) *Controller {
	return &Controller{
		Cache:      memoryCache,
		Config:     configData,
		Validator:  validator,
		Repository: repository,
	}
}

// NewWebhookController ... Create a new webhook controller instance
func NewWebhookController(memoryCache *cache.Memory, configData Config.Data, validator *validation.Validate,
	repository database.IWalletRepository, custody services.ICustodyClient, notifier services.INotificationSink,
	locks *locker.Keyed) *WebhookController {
	return &WebhookController{
		Cache:      memoryCache,
		Config:     configData,
		Validator:  validator,
		Repository: repository,
		Custody:    custody,
		Notifier:   notifier,
		Locks:      locks,
	}
}

//Ping : Ping function
func (controller *Controller) Ping(responseWriter http.ResponseWriter, requestReader *http.Request) {
	apiResponse := response.New()
	logger.Info("Ping request successful! Server is up and listening")

	responseWriter.WriteHeader(http.StatusOK)
	json.NewEncoder(responseWriter).Encode(apiResponse.PlainSuccess("SUCCESS", "Ping request successful! Server is up and listening"))
}
