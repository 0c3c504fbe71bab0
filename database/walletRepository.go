package database

import (
	"custody-processor/model"
	"custody-processor/utility/logger"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
)

// PendingDirection ... which pending ledger column an adjustment targets
type PendingDirection string

const (
	PendingIncoming PendingDirection = "incoming"
	PendingOutgoing PendingDirection = "outgoing"
)

// IWalletRepository ... Interface definition for wallet and ledger queries
type IWalletRepository interface {
	IRepository
	GetWalletByAddress(address string, wallet *model.Wallet) error
	GetAssetByVault(custodyVaultId, assetId string, asset *model.Asset) error
	FetchSweepCandidates(assetIds []string, excludedVaultIds []string, assets *[]model.Asset) error
	IncrementTotalBalance(walletId uuid.UUID, assetId string, delta decimal.Decimal) error
	IncrementPendingBalance(walletId uuid.UUID, assetId string, direction PendingDirection, delta decimal.Decimal) error
}

// WalletRepository ... Model definition for wallet repository
type WalletRepository struct {
	BaseRepository
}

// GetWalletByAddress ... Resolves the wallet owning the asset bound to a deposit address
func (repo *WalletRepository) GetWalletByAddress(address string, wallet *model.Wallet) error {
	asset := model.Asset{}
	if err := repo.DB.Where(&model.Asset{Address: address}).First(&asset).Error; err != nil {
		logger.Error("Error with repository GetWalletByAddress : %+v for address %s", err, address)
		return repoError(err)
	}
	if err := repo.DB.Where(&model.Wallet{BaseModel: model.BaseModel{ID: asset.WalletID}}).First(wallet).Error; err != nil {
		logger.Error("Error with repository GetWalletByAddress : %+v for wallet %v", err, asset.WalletID)
		return repoError(err)
	}
	return nil
}

// GetAssetByVault ... Finds the asset row for a custody sub-account id and chain asset id
func (repo *WalletRepository) GetAssetByVault(custodyVaultId, assetId string, asset *model.Asset) error {
	vaultAccount := model.VaultAccount{}
	if err := repo.DB.Where(&model.VaultAccount{CustodyVaultID: custodyVaultId}).First(&vaultAccount).Error; err != nil {
		logger.Error("Error with repository GetAssetByVault : %+v for vault %s", err, custodyVaultId)
		return repoError(err)
	}
	if err := repo.DB.Where(&model.Asset{VaultAccountID: vaultAccount.ID, AssetID: assetId}).First(asset).Error; err != nil {
		logger.Error("Error with repository GetAssetByVault : %+v for vault %s asset %s", err, custodyVaultId, assetId)
		return repoError(err)
	}
	return nil
}

// FetchSweepCandidates ... Unswept assets in the sweepable set whose owning sub-account is
// neither the omnibus account nor an excluded withdrawal account. The per-asset minimum
// threshold is applied by the caller.
func (repo *WalletRepository) FetchSweepCandidates(assetIds []string, excludedVaultIds []string, assets *[]model.Asset) error {
	query := repo.DB.
		Joins("JOIN vault_accounts ON vault_accounts.id = assets.vault_account_id").
		Where("assets.asset_id IN (?)", assetIds).
		Where("assets.is_swept = ?", false)
	if len(excludedVaultIds) > 0 {
		query = query.Where("vault_accounts.custody_vault_id NOT IN (?)", excludedVaultIds)
	}
	if err := query.Find(assets).Error; err != nil {
		logger.Error("Error with repository FetchSweepCandidates : %s", err)
		return repoError(err)
	}
	return nil
}

// IncrementTotalBalance ... Atomically accumulates delta into the ledger row's total balance,
// creating the row on first use. The in-place UPDATE keeps concurrent adjustments to the same
// (wallet, assetId) row from losing writes.
func (repo *WalletRepository) IncrementTotalBalance(walletId uuid.UUID, assetId string, delta decimal.Decimal) error {
	result := repo.DB.Exec(
		"UPDATE wallet_asset_balances SET total_balance = total_balance + ?, updated_at = CURRENT_TIMESTAMP WHERE wallet_id = ? AND asset_id = ?",
		delta, walletId, assetId)
	if result.Error != nil {
		logger.Error("Error with repository IncrementTotalBalance : %s", result.Error)
		return repoError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repo.createBalanceRow(walletId, assetId, model.WalletAssetBalance{TotalBalance: delta})
	}
	return nil
}

// IncrementPendingBalance ... Same contract as IncrementTotalBalance for the pending columns
func (repo *WalletRepository) IncrementPendingBalance(walletId uuid.UUID, assetId string, direction PendingDirection, delta decimal.Decimal) error {
	column := "incoming_pending_balance"
	seed := model.WalletAssetBalance{IncomingPendingBalance: delta}
	if direction == PendingOutgoing {
		column = "outgoing_pending_balance"
		seed = model.WalletAssetBalance{OutgoingPendingBalance: delta}
	}
	result := repo.DB.Exec(
		"UPDATE wallet_asset_balances SET "+column+" = "+column+" + ?, updated_at = CURRENT_TIMESTAMP WHERE wallet_id = ? AND asset_id = ?",
		delta, walletId, assetId)
	if result.Error != nil {
		logger.Error("Error with repository IncrementPendingBalance : %s", result.Error)
		return repoError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repo.createBalanceRow(walletId, assetId, seed)
	}
	return nil
}

func (repo *WalletRepository) createBalanceRow(walletId uuid.UUID, assetId string, seed model.WalletAssetBalance) error {
	seed.WalletID = walletId
	seed.AssetID = assetId
	if err := repo.DB.Create(&seed).Error; err != nil {
		logger.Error("Error with repository createBalanceRow : %s", err)
		return repoError(err)
	}
	return nil
}
