package consolidation

import (
	Config "custody-processor/config"
	"custody-processor/database"
	"custody-processor/services"
	"custody-processor/tasks"
	"custody-processor/utility/cache"
	"custody-processor/utility/locker"
	"custody-processor/utility/logger"

	"github.com/robfig/cron/v3"
)

// RunBackupConsolidation ... One backup consolidation pass over every UTXO asset
func RunBackupConsolidation(memoryCache *cache.Memory, config Config.Data, repository database.IWalletRepository, custody services.ICustodyClient) {
	logger.Info("Backup consolidation operation begins")
	consolidationService := services.NewConsolidationService(memoryCache, config, repository, custody)
	if err := consolidationService.RunBackupConsolidation(); err != nil {
		logger.Error("Error response from backup consolidation job : %+v", err)
		return
	}
	logger.Info("Backup consolidation operation ends")
}

// ExecuteConsolidationCronJob ... Starts the backup consolidation on the configured schedule
func ExecuteConsolidationCronJob(memoryCache *cache.Memory, config Config.Data, repository database.IWalletRepository,
	custody services.ICustodyClient, locks *locker.Keyed) {
	c := cron.New()
	c.AddFunc(config.ConsolidationCronInterval, func() {
		tasks.RunExclusive(locks, "consolidation", func() {
			RunBackupConsolidation(memoryCache, Config.Snapshot(), repository, custody)
		})
	})
	c.Start()
}
