package services

import (
	"errors"
	"fmt"
	"net/http"

	Config "custody-processor/config"
	"custody-processor/database"
	"custody-processor/dto"
	"custody-processor/model"
	"custody-processor/utility/cache"
	"custody-processor/utility/errorcode"
	"custody-processor/utility/locker"
	"custody-processor/utility/logger"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
)

// WebhookService ... Drives the transaction lifecycle from custody webhook events.
// Processing for one custody transaction id is serialized through a keyed lock, and
// a transaction whose stored status already settled is never re-applied, so ledger
// effects land exactly once under redelivery.
type WebhookService struct {
	Cache      *cache.Memory
	Config     Config.Data
	Repository database.IWalletRepository
	Custody    ICustodyClient
	Notifier   INotificationSink
	Locks      *locker.Keyed
}

// NewWebhookService ... Creates a new instance of WebhookService
func NewWebhookService(cache *cache.Memory, config Config.Data, repository database.IWalletRepository,
	custody ICustodyClient, notifier INotificationSink, locks *locker.Keyed) *WebhookService {
	return &WebhookService{
		Cache:      cache,
		Config:     config,
		Repository: repository,
		Custody:    custody,
		Notifier:   notifier,
		Locks:      locks,
	}
}

// ProcessEvent ... Entry point for one webhook delivery
func (service *WebhookService) ProcessEvent(event dto.WebhookEvent) error {
	switch event.Type {
	case dto.EventTransactionCreated:
		return service.handleTransactionCreated(event.Data)
	case dto.EventTransactionStatusUpdated:
		return service.handleStatusUpdate(event.Data)
	default:
		logger.Warning("Ignoring webhook event of unknown type %s", event.Type)
		return nil
	}
}

func transactionLockKey(custodyTxId string) string {
	return fmt.Sprintf("custody-tx-%s", custodyTxId)
}

func (service *WebhookService) handleTransactionCreated(snapshot dto.TransactionSnapshot) error {
	release := service.Locks.Acquire(transactionLockKey(snapshot.ID))
	defer release()

	switch ClassifyTransfer(snapshot, service.Config.OmnibusVaultID) {
	case DirectionIncoming:
		return service.recordNewIncoming(snapshot)
	case DirectionOutgoing, DirectionSweep:
		// Already recorded when this side submitted it.
		logger.Info("Observed creation of internally submitted transaction %s", snapshot.ID)
		return nil
	default:
		logger.Warning("Could not classify created transaction %s, skipping", snapshot.ID)
		return nil
	}
}

// recordNewIncoming ... A deposit was detected on chain. Record it and park the
// amount in the incoming pending balance until it completes.
func (service *WebhookService) recordNewIncoming(snapshot dto.TransactionSnapshot) error {
	amount, err := decimal.NewFromString(snapshot.AmountInfo.Amount)
	if err != nil {
		return serviceError(http.StatusBadRequest, errorcode.INPUT_ERR,
			fmt.Errorf("unparseable amount %q on transaction %s", snapshot.AmountInfo.Amount, snapshot.ID))
	}

	transactionService := NewTransactionService(service.Cache, service.Config, service.Repository, service.Custody)
	existing := model.Transaction{}
	if err := transactionService.GetByCustodyTxID(snapshot.ID, &existing); err == nil {
		logger.Info("Transaction %s already recorded, skipping redelivered creation", snapshot.ID)
		return nil
	}

	wallet := model.Wallet{}
	if err := service.Repository.GetWalletByAddress(snapshot.DestinationAddress, &wallet); err != nil {
		logger.Error("No wallet owns deposit address %s on transaction %s", snapshot.DestinationAddress, snapshot.ID)
		return serviceError(http.StatusNotFound, errorcode.WALLET_NOT_FOUND, err)
	}

	transaction := model.Transaction{
		WalletID:                   wallet.ID,
		CustodyTxID:                snapshot.ID,
		AssetID:                    snapshot.AssetID,
		Amount:                     amount,
		Status:                     snapshot.Status,
		Outgoing:                   false,
		TxHash:                     snapshot.TxHash,
		DestinationVaultAccountID:  transactionService.resolveVaultAccount(snapshot.Destination.ID),
		SourceExternalAddress:      snapshot.SourceAddress,
		DestinationExternalAddress: snapshot.DestinationAddress,
	}
	if err := transactionService.RecordTransfer(&transaction); err != nil {
		return err
	}

	balanceService := NewBalanceService(service.Cache, service.Config, service.Repository)
	if err := balanceService.AdjustPending(wallet.ID, snapshot.AssetID, database.PendingIncoming, amount); err != nil {
		return err
	}

	// New funds on the sub-account make it sweepable again.
	service.markAssetUnswept(snapshot.Destination.ID, snapshot.AssetID)

	service.Notifier.Notify(wallet.UserID, dto.NotifyNewIncomingTransaction, snapshot)
	return nil
}

func (service *WebhookService) handleStatusUpdate(snapshot dto.TransactionSnapshot) error {
	release := service.Locks.Acquire(transactionLockKey(snapshot.ID))
	defer release()

	transactionService := NewTransactionService(service.Cache, service.Config, service.Repository, service.Custody)
	transaction := model.Transaction{}
	if err := transactionService.GetByCustodyTxID(snapshot.ID, &transaction); err != nil {
		logger.Error("Status update for unknown transaction %s", snapshot.ID)
		return serviceError(http.StatusNotFound, errorcode.TRANSACTION_NOT_FOUND, err)
	}

	if model.BucketForStatus(transaction.Status) != model.BucketPending {
		logger.Info("Transaction %s already settled as %s, ignoring update to %s",
			snapshot.ID, transaction.Status, snapshot.Status)
		return nil
	}

	// Ledger effects run before the status write. A failing effect leaves the
	// stored status pending, so the custody service's redelivery retries it. A
	// stored settled status is never re-applied.
	switch model.BucketForStatus(snapshot.Status) {
	case model.BucketCompleted:
		if err := service.handleCompleted(snapshot, transaction); err != nil {
			return err
		}
	case model.BucketFailed:
		if err := service.handleFailed(snapshot, transaction); err != nil {
			return err
		}
	default:
		logger.Info("Transaction %s moved to %s", snapshot.ID, snapshot.Status)
	}

	return transactionService.UpdateStatus(&transaction, snapshot.Status)
}

func (service *WebhookService) handleCompleted(snapshot dto.TransactionSnapshot, transaction model.Transaction) error {
	switch ClassifyTransfer(snapshot, service.Config.OmnibusVaultID) {
	case DirectionSweep:
		if err := service.completeSweep(snapshot); err != nil {
			return err
		}
	case DirectionIncoming:
		if err := service.completeIncoming(snapshot, transaction); err != nil {
			return err
		}
	case DirectionOutgoing:
		if err := service.completeOutgoing(snapshot, transaction); err != nil {
			return err
		}
	default:
		logger.Warning("Completed transaction %s could not be classified, ledger unchanged", snapshot.ID)
	}

	transactionService := NewTransactionService(service.Cache, service.Config, service.Repository, service.Custody)
	return transactionService.RefreshCompletedDetails(&transaction, snapshot)
}

// completeIncoming ... A deposit confirmed. The credit moves from pending to total
// only after the provider's reported block height has caught up with the deposit's,
// so the provider balance we mirror already contains it. Testnet assets are exempt,
// their providers lag too far behind.
func (service *WebhookService) completeIncoming(snapshot dto.TransactionSnapshot, transaction model.Transaction) error {
	wallet := model.Wallet{}
	if err := service.Repository.GetWalletByAddress(snapshot.DestinationAddress, &wallet); err != nil {
		return serviceError(http.StatusNotFound, errorcode.WALLET_NOT_FOUND, err)
	}

	providerBalance, err := service.Custody.GetSubAccountAssetBalance(snapshot.Destination.ID, snapshot.AssetID)
	if err != nil {
		return err
	}

	if service.Config.IsUtxoAsset(snapshot.AssetID) {
		consolidationService := NewConsolidationService(service.Cache, service.Config, service.Repository, service.Custody)
		if err := consolidationService.RecordUtxoDeposit(snapshot.AssetID); err != nil {
			// The backup consolidation job covers a missed count.
			logger.Error("Could not count deposit %s toward consolidation : %s", snapshot.ID, err)
		}
	}

	if providerBalance.BlockHeight < snapshot.BlockInfo.BlockHeight && !service.Config.IsTestnetAsset(snapshot.AssetID) {
		return serviceError(http.StatusConflict, errorcode.BALANCE_INCONSISTENT,
			fmt.Errorf("provider height %d behind deposit height %d for transaction %s",
				providerBalance.BlockHeight, snapshot.BlockInfo.BlockHeight, snapshot.ID))
	}

	service.addToObservedAssetBalance(snapshot.Destination.ID, snapshot.AssetID, transaction.Amount)

	balanceService := NewBalanceService(service.Cache, service.Config, service.Repository)
	if err := balanceService.CreditTotal(wallet.ID, snapshot.AssetID, transaction.Amount); err != nil {
		return err
	}
	if err := balanceService.AdjustPending(wallet.ID, snapshot.AssetID, database.PendingIncoming, transaction.Amount.Neg()); err != nil {
		return err
	}

	service.Notifier.Notify(wallet.UserID, dto.NotifyTransactionStatus, snapshot)
	service.Notifier.Notify(wallet.UserID, dto.NotifyBalanceUpdate, dto.BalanceUpdateNotice{
		AssetID: snapshot.AssetID,
		Amount:  transaction.Amount.String(),
	})
	return nil
}

// completeOutgoing ... A withdrawal settled. The total balance was already debited
// at submission, so completion only releases the pending hold.
func (service *WebhookService) completeOutgoing(snapshot dto.TransactionSnapshot, transaction model.Transaction) error {
	balanceService := NewBalanceService(service.Cache, service.Config, service.Repository)
	if err := balanceService.AdjustPending(transaction.WalletID, snapshot.AssetID, database.PendingOutgoing, transaction.Amount.Neg()); err != nil {
		return err
	}

	wallet := model.Wallet{}
	if err := service.Repository.Get(&model.Wallet{BaseModel: model.BaseModel{ID: transaction.WalletID}}, &wallet); err != nil {
		logger.Warning("Could not resolve wallet %v for notification : %s", transaction.WalletID, err)
		return nil
	}
	service.Notifier.Notify(wallet.UserID, dto.NotifyTransactionStatus, snapshot)
	service.Notifier.Notify(wallet.UserID, dto.NotifyBalanceUpdate, dto.BalanceUpdateNotice{
		AssetID: snapshot.AssetID,
		Amount:  transaction.Amount.Neg().String(),
	})
	return nil
}

// completeSweep ... A sweep into the omnibus sub-account settled. The swept amount
// moves between the observed asset rows and the source is marked swept. The
// user-facing ledger is untouched, sweeping is internal custody plumbing.
func (service *WebhookService) completeSweep(snapshot dto.TransactionSnapshot) error {
	if snapshot.Source.ID == service.Config.OmnibusVaultID {
		// Omnibus self-transfer, a consolidation. No balances move.
		logger.Info("Consolidation transfer %s completed", snapshot.ID)
		return nil
	}

	sourceAsset := model.Asset{}
	if err := service.Repository.GetAssetByVault(snapshot.Source.ID, snapshot.AssetID, &sourceAsset); err != nil {
		return serviceError(http.StatusNotFound, errorcode.ASSET_NOT_FOUND, err)
	}

	amount, err := decimal.NewFromString(snapshot.AmountInfo.Amount)
	if err != nil {
		return serviceError(http.StatusBadRequest, errorcode.INPUT_ERR, err)
	}
	if !amount.Equal(sourceAsset.Balance) {
		// A deposit can confirm between sweep submission and settlement. Only
		// the swept amount moves, the late deposit stays on the source.
		logger.Warning("Sweep %s moved %s but source asset %s holds %s", snapshot.ID, amount, sourceAsset.ID, sourceAsset.Balance)
	}

	omnibusAsset := model.Asset{}
	omnibusErr := service.Repository.GetAssetByVault(service.Config.OmnibusVaultID, snapshot.AssetID, &omnibusAsset)
	if omnibusErr != nil {
		logger.Warning("No omnibus asset record for %s, sweep %s credited nowhere locally", snapshot.AssetID, snapshot.ID)
	}

	// Both rows move by in-place deltas inside one transaction, so concurrent
	// sweeps crediting the same omnibus row cannot lose each other's write. All
	// reads happen before the transaction takes its connection.
	tx := database.NewTx(service.Repository.Db())
	tx = tx.Exec("UPDATE assets SET balance = balance - ?, is_swept = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		amount, true, sourceAsset.ID)
	if omnibusErr == nil {
		tx = tx.Exec("UPDATE assets SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			amount, omnibusAsset.ID)
	}
	return tx.Commit()
}

func (service *WebhookService) handleFailed(snapshot dto.TransactionSnapshot, transaction model.Transaction) error {
	balanceService := NewBalanceService(service.Cache, service.Config, service.Repository)

	switch ClassifyTransfer(snapshot, service.Config.OmnibusVaultID) {
	case DirectionSweep:
		logger.Warning("Sweep %s failed with %s, funds remain on the source sub-account", snapshot.ID, snapshot.Status)
		// The flag was set optimistically at submission; clear it so the
		// funds become sweepable again.
		service.markAssetUnswept(snapshot.Source.ID, snapshot.AssetID)
		return nil
	case DirectionIncoming:
		wallet := model.Wallet{}
		if err := service.Repository.GetWalletByAddress(snapshot.DestinationAddress, &wallet); err != nil {
			return serviceError(http.StatusNotFound, errorcode.WALLET_NOT_FOUND, err)
		}
		if err := balanceService.AdjustPending(wallet.ID, snapshot.AssetID, database.PendingIncoming, transaction.Amount.Neg()); err != nil {
			return err
		}
		service.Notifier.Notify(wallet.UserID, dto.NotifyTransactionStatus, snapshot)
		return nil
	case DirectionOutgoing:
		// Reverse the optimistic hold taken at submission.
		if err := balanceService.AdjustPending(transaction.WalletID, snapshot.AssetID, database.PendingOutgoing, transaction.Amount.Neg()); err != nil {
			return err
		}
		if err := balanceService.CreditTotal(transaction.WalletID, snapshot.AssetID, transaction.Amount); err != nil {
			return err
		}
		service.notifyWalletUser(transaction.WalletID, dto.NotifyTransactionStatus, snapshot)
		return nil
	default:
		logger.Warning("Failed transaction %s could not be classified, ledger unchanged", snapshot.ID)
		return serviceError(http.StatusBadRequest, errorcode.INPUT_ERR,
			errors.New("transaction direction could not be derived"))
	}
}

func (service *WebhookService) markAssetUnswept(custodyVaultId, assetId string) {
	asset := model.Asset{}
	if err := service.Repository.GetAssetByVault(custodyVaultId, assetId, &asset); err != nil {
		logger.Warning("No asset record for sub-account %s, %s stays unmarked", custodyVaultId, assetId)
		return
	}
	if err := service.Repository.Db().Model(&asset).Update("is_swept", false).Error; err != nil {
		logger.Error("Could not clear swept flag on asset %s : %s", asset.ID, err)
	}
}

func (service *WebhookService) addToObservedAssetBalance(custodyVaultId, assetId string, amount decimal.Decimal) {
	asset := model.Asset{}
	if err := service.Repository.GetAssetByVault(custodyVaultId, assetId, &asset); err != nil {
		logger.Warning("No asset record for sub-account %s, observed %s balance unmirrored", custodyVaultId, assetId)
		return
	}
	if err := service.Repository.Db().Model(&asset).Update("balance", asset.Balance.Add(amount)).Error; err != nil {
		logger.Error("Could not mirror observed balance on asset %s : %s", asset.ID, err)
	}
}

func (service *WebhookService) notifyWalletUser(walletId uuid.UUID, eventType string, payload interface{}) {
	wallet := model.Wallet{}
	if err := service.Repository.Get(&model.Wallet{BaseModel: model.BaseModel{ID: walletId}}, &wallet); err != nil {
		logger.Warning("Could not resolve wallet %v for notification : %s", walletId, err)
		return
	}
	service.Notifier.Notify(wallet.UserID, eventType, payload)
}
