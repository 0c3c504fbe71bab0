package services

import (
	"time"

	Config "custody-processor/config"
	"custody-processor/database"
	"custody-processor/dto"
	"custody-processor/model"
	"custody-processor/utility/cache"
	"custody-processor/utility/logger"

	"github.com/shopspring/decimal"
)

const consolidationNote = "UTXO consolidation"

// finalityStatuses ... statuses after which a consolidation transfer no longer holds
// the unspent inputs it consumed. CONFIRMING counts: the inputs are spent once the
// transaction is on chain, confirmations only deepen it.
var finalityStatuses = []string{
	model.TransactionStatus.COMPLETED,
	model.TransactionStatus.CANCELLED,
	model.TransactionStatus.BLOCKED,
	model.TransactionStatus.REJECTED,
	model.TransactionStatus.FAILED,
	model.TransactionStatus.CONFIRMING,
}

// ConsolidationService ... Keeps the omnibus sub-account's UTXO set small enough to
// spend. Deposits are counted per asset and every DepositsPerConsolidation-th one
// triggers a self-transfer that merges the accumulated inputs.
type ConsolidationService struct {
	Cache      *cache.Memory
	Config     Config.Data
	Repository database.IWalletRepository
	Custody    ICustodyClient
}

// NewConsolidationService ... Creates a new instance of ConsolidationService
func NewConsolidationService(cache *cache.Memory, config Config.Data, repository database.IWalletRepository, custody ICustodyClient) *ConsolidationService {
	return &ConsolidationService{
		Cache:      cache,
		Config:     config,
		Repository: repository,
		Custody:    custody,
	}
}

// RecordUtxoDeposit ... Counts one completed deposit against the asset's consolidation
// counter and consolidates when the counter reaches the configured ceiling
func (service *ConsolidationService) RecordUtxoDeposit(assetId string) error {
	supportedAsset := model.SupportedAsset{}
	if err := service.Repository.FindOrCreate(&model.SupportedAsset{AssetID: assetId}, &supportedAsset); err != nil {
		return err
	}

	counter := supportedAsset.DepositsCounter + 1
	if counter >= service.Config.DepositsPerConsolidation {
		if _, err := service.ConsolidateDeposits(assetId); err != nil {
			return err
		}
		counter = 0
	}
	return service.setDepositsCounter(assetId, counter)
}

// ConsolidateDeposits ... Merges the omnibus sub-account's accumulated inputs for an
// asset by transferring its full balance back to itself
func (service *ConsolidationService) ConsolidateDeposits(assetId string) (string, error) {
	balance, err := service.Custody.GetSubAccountAssetBalance(service.Config.OmnibusVaultID, assetId)
	if err != nil {
		return "", err
	}
	total, err := decimal.NewFromString(balance.Total)
	if err != nil {
		return "", err
	}
	if !total.IsPositive() {
		logger.Warning("Skipping consolidation of %s, omnibus balance is %s", assetId, balance.Total)
		return "", nil
	}
	return service.createConsolidationTransfer(assetId, total)
}

// RunBackupConsolidation ... Safety net behind the deposit counter. For each UTXO
// asset it keeps issuing max-spendable self-transfers, each awaited to finality,
// until the omnibus unspent input count drops below the configured threshold. A
// failing asset is logged and the remaining assets still run. The deposit counter
// resets only after a consolidation actually lands, an idle pass leaves accrued
// counts building toward the ceiling.
func (service *ConsolidationService) RunBackupConsolidation() error {
	for _, assetId := range service.Config.UtxoAssets {
		if err := service.consolidateAssetBacklog(assetId); err != nil {
			logger.Error("Backup consolidation of %s failed : %s", assetId, err)
		}
	}
	return nil
}

func (service *ConsolidationService) consolidateAssetBacklog(assetId string) error {
	for {
		unspentCount, err := service.Custody.GetUnspentInputCount(service.Config.OmnibusVaultID, assetId)
		if err != nil {
			return err
		}
		if unspentCount < service.Config.UnspentInputsThreshold {
			logger.Info("Unspent inputs for %s at %d, below threshold %d", assetId, unspentCount, service.Config.UnspentInputsThreshold)
			return nil
		}

		maxSpendable, err := service.Custody.GetMaxSpendableAmount(service.Config.OmnibusVaultID, assetId)
		if err != nil {
			return err
		}
		custodyTxId, err := service.createConsolidationTransfer(assetId, maxSpendable)
		if err != nil {
			return err
		}
		if err := service.MonitorTransferToFinality(custodyTxId); err != nil {
			return err
		}
		// The finalized transfer merged every counted deposit.
		if err := service.setDepositsCounter(assetId, 0); err != nil {
			logger.Error("Could not reset consolidation counter for %s : %s", assetId, err)
		}
	}
}

// MonitorTransferToFinality ... Polls the custody service until the transfer reaches a
// status that releases its inputs
func (service *ConsolidationService) MonitorTransferToFinality(custodyTxId string) error {
	pollInterval := time.Duration(service.Config.FinalityPollSeconds) * time.Second
	for {
		status, err := service.Custody.GetTransactionStatus(custodyTxId)
		if err != nil {
			return err
		}
		if isFinalityStatus(status) {
			logger.Info("Consolidation transfer %s reached %s", custodyTxId, status)
			return nil
		}
		logger.Debug("Consolidation transfer %s still %s, polling again in %v", custodyTxId, status, pollInterval)
		time.Sleep(pollInterval)
	}
}

func (service *ConsolidationService) createConsolidationTransfer(assetId string, amount decimal.Decimal) (string, error) {
	omnibusPeer := dto.TransferPeer{Type: dto.PeerVaultAccount, ID: service.Config.OmnibusVaultID}
	response, err := service.Custody.CreateTransfer(dto.CreateTransferRequest{
		AssetID:     assetId,
		Amount:      amount.String(),
		Source:      omnibusPeer,
		Destination: omnibusPeer,
		FeeLevel:    dto.FeeLevelLow,
		Note:        consolidationNote,
	})
	if err != nil {
		return "", err
	}
	logger.Info("Submitted consolidation transfer %s for %s %s", response.ID, amount, assetId)
	return response.ID, nil
}

func (service *ConsolidationService) setDepositsCounter(assetId string, counter int) error {
	result := service.Repository.Db().
		Model(&model.SupportedAsset{}).
		Where("asset_id = ?", assetId).
		Update("deposits_counter", counter)
	if result.Error != nil {
		logger.Error("Could not set consolidation counter for %s : %s", assetId, result.Error)
		return result.Error
	}
	return nil
}

func isFinalityStatus(status string) bool {
	for _, finality := range finalityStatuses {
		if status == finality {
			return true
		}
	}
	return false
}
