package services

import (
	"net/http"

	Config "custody-processor/config"
	"custody-processor/utility/apiClient"
	"custody-processor/utility/cache"
	"custody-processor/utility/logger"

	uuid "github.com/satori/go.uuid"
)

// NotificationService ... Pushes user-facing events to the notifications service.
// Delivery is best effort, a failed push is logged and never surfaced to the caller.
type NotificationService struct {
	Cache  *cache.Memory
	Config Config.Data
	Client *apiClient.Client
}

// NewNotificationService ... Creates a new instance of NotificationService
func NewNotificationService(cache *cache.Memory, config Config.Data) *NotificationService {
	return &NotificationService{
		Cache:  cache,
		Config: config,
		Client: apiClient.New(nil, config, config.NotificationServiceURL),
	}
}

type pushRequest struct {
	UserID    string      `json:"userId"`
	EventType string      `json:"eventType"`
	Payload   interface{} `json:"payload"`
}

// Notify ... Delivers one push event to a user
func (service *NotificationService) Notify(userId uuid.UUID, eventType string, payload interface{}) {
	requestBody := pushRequest{
		UserID:    userId.String(),
		EventType: eventType,
		Payload:   payload,
	}
	response := map[string]interface{}{}

	request, err := service.Client.NewRequest(http.MethodPost, "/push", requestBody)
	if err != nil {
		logger.Error("Notification push could not be built for user %s : %s", userId, err)
		return
	}
	if _, err := service.Client.Do(request, &response); err != nil {
		logger.Error("Notification push failed for user %s, event %s : %s", userId, eventType, err)
	}
}
