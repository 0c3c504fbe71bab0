package controllers

import (
	"encoding/json"
	"net/http"

	"custody-processor/dto"
	"custody-processor/services"
	"custody-processor/utility/logger"
	"custody-processor/utility/response"
)

// ReceiveCustodyEvent ... Entry point for custody webhook deliveries. The custody
// service retries any non-2xx response, so once a body decodes this endpoint
// acknowledges with 200 even when processing fails. Failures are logged and
// recovered by redelivery or the scheduled jobs, never by poisoning the queue.
func (controller *WebhookController) ReceiveCustodyEvent(responseWriter http.ResponseWriter, requestReader *http.Request) {
	apiResponse := response.New()

	event := dto.WebhookEvent{}
	if err := json.NewDecoder(requestReader.Body).Decode(&event); err != nil {
		logger.Error("Webhook body could not be decoded : %s", err)
		responseWriter.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(responseWriter).Encode(apiResponse.PlainError("INPUT_ERR", "Request body could not be decoded"))
		return
	}
	defer requestReader.Body.Close()

	if err := controller.Validator.Struct(event); err != nil {
		logger.Error("Webhook body failed validation : %s", err)
		responseWriter.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(responseWriter).Encode(apiResponse.PlainError("INPUT_ERR", "Request body failed validation"))
		return
	}

	logger.Info("Incoming webhook %s for transaction %s with status %s", event.Type, event.Data.ID, event.Data.Status)

	webhookService := services.NewWebhookService(controller.Cache, controller.Config, controller.Repository,
		controller.Custody, controller.Notifier, controller.Locks)
	if err := webhookService.ProcessEvent(event); err != nil {
		logger.Error("Error response from webhook processing of %s : %+v", event.Data.ID, err)
	}

	responseWriter.WriteHeader(http.StatusOK)
	json.NewEncoder(responseWriter).Encode(apiResponse.PlainSuccess("SUCCESS", "Webhook received"))
}
