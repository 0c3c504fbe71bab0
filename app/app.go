package app

import (
	Config "custody-processor/config"
	"custody-processor/services"
	"custody-processor/utility/cache"
	"custody-processor/utility/locker"

	"github.com/gorilla/mux"
	"github.com/jinzhu/gorm"
	validation "gopkg.in/go-playground/validator.v9"
)

//App : app struct
type App struct {
	Router    *mux.Router
	Validator *validation.Validate
	Config    Config.Data
	Cache     *cache.Memory
	DB        *gorm.DB
	Custody   services.ICustodyClient
	Notifier  services.INotificationSink
	Locks     *locker.Keyed
}
