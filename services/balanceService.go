package services

import (
	Config "custody-processor/config"
	"custody-processor/database"
	"custody-processor/model"
	"custody-processor/utility/cache"
	"custody-processor/utility/logger"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
)

// BalanceService ... Ledger adjustments over the wallet balance rows. All writes go
// through the repository's in-place increments so concurrent webhook deliveries for
// different transactions never lose updates.
type BalanceService struct {
	Cache      *cache.Memory
	Config     Config.Data
	Repository database.IWalletRepository
}

// NewBalanceService ... Creates a new instance of BalanceService
func NewBalanceService(cache *cache.Memory, config Config.Data, repository database.IWalletRepository) *BalanceService {
	return &BalanceService{
		Cache:      cache,
		Config:     config,
		Repository: repository,
	}
}

// CreditTotal ... Adds amount to the wallet's total balance for an asset
func (service *BalanceService) CreditTotal(walletId uuid.UUID, assetId string, amount decimal.Decimal) error {
	logger.Info("Crediting total balance of wallet %s, asset %s by %s", walletId, assetId, amount)
	return service.Repository.IncrementTotalBalance(walletId, assetId, amount)
}

// DebitTotal ... Removes amount from the wallet's total balance for an asset
func (service *BalanceService) DebitTotal(walletId uuid.UUID, assetId string, amount decimal.Decimal) error {
	logger.Info("Debiting total balance of wallet %s, asset %s by %s", walletId, assetId, amount)
	return service.Repository.IncrementTotalBalance(walletId, assetId, amount.Neg())
}

// AdjustPending ... Moves the incoming or outgoing pending balance by delta, which
// may be negative to release a previously held amount
func (service *BalanceService) AdjustPending(walletId uuid.UUID, assetId string, direction database.PendingDirection, delta decimal.Decimal) error {
	logger.Info("Adjusting %s pending balance of wallet %s, asset %s by %s", direction, walletId, assetId, delta)
	return service.Repository.IncrementPendingBalance(walletId, assetId, direction, delta)
}

// GetBalance ... Current ledger row for a wallet asset
func (service *BalanceService) GetBalance(walletId uuid.UUID, assetId string, balance *model.WalletAssetBalance) error {
	return service.Repository.GetByFieldName(&model.WalletAssetBalance{WalletID: walletId, AssetID: assetId}, balance)
}
