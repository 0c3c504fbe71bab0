package services

import (
	"errors"
	"math/rand"
	"net/http"

	Config "custody-processor/config"
	"custody-processor/database"
	"custody-processor/dto"
	"custody-processor/model"
	"custody-processor/utility/cache"
	"custody-processor/utility/errorcode"
	"custody-processor/utility/logger"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
)

// TransactionService ... Transaction records and the withdrawal submission path
type TransactionService struct {
	Cache      *cache.Memory
	Config     Config.Data
	Repository database.IWalletRepository
	Custody    ICustodyClient
}

// NewTransactionService ... Creates a new instance of TransactionService
func NewTransactionService(cache *cache.Memory, config Config.Data, repository database.IWalletRepository, custody ICustodyClient) *TransactionService {
	return &TransactionService{
		Cache:      cache,
		Config:     config,
		Repository: repository,
		Custody:    custody,
	}
}

// GetByCustodyTxID ... Loads the transaction record keyed by the custody transaction id
func (service *TransactionService) GetByCustodyTxID(custodyTxId string, transaction *model.Transaction) error {
	return service.Repository.GetByFieldName(&model.Transaction{CustodyTxID: custodyTxId}, transaction)
}

// RecordTransfer ... Persists a new transaction record
func (service *TransactionService) RecordTransfer(transaction *model.Transaction) error {
	return service.Repository.Create(transaction)
}

// UpdateStatus ... Overwrites the stored status of a transaction record
func (service *TransactionService) UpdateStatus(transaction *model.Transaction, status string) error {
	return service.Repository.Update(transaction, &model.Transaction{Status: status})
}

// RefreshCompletedDetails ... Copies the final on-chain details from a completed
// snapshot onto the stored record. Vault references that cannot be resolved locally
// are left empty rather than failing the completion.
func (service *TransactionService) RefreshCompletedDetails(transaction *model.Transaction, snapshot dto.TransactionSnapshot) error {
	update := model.Transaction{
		TxHash:                     snapshot.TxHash,
		SourceExternalAddress:      snapshot.SourceAddress,
		DestinationExternalAddress: snapshot.DestinationAddress,
	}
	if snapshot.Source.Type == dto.PeerVaultAccount {
		update.SourceVaultAccountID = service.resolveVaultAccount(snapshot.Source.ID)
	}
	if snapshot.Destination.Type == dto.PeerVaultAccount {
		update.DestinationVaultAccountID = service.resolveVaultAccount(snapshot.Destination.ID)
	}
	return service.Repository.Update(transaction, &update)
}

func (service *TransactionService) resolveVaultAccount(custodyVaultId string) uuid.UUID {
	vaultAccount := model.VaultAccount{}
	if err := service.Repository.GetByFieldName(&model.VaultAccount{CustodyVaultID: custodyVaultId}, &vaultAccount); err != nil {
		logger.Warning("No local vault account record for custody sub-account %s", custodyVaultId)
		return uuid.UUID{}
	}
	return vaultAccount.ID
}

// SubmitWithdrawal ... Submits an outgoing transfer for a wallet and takes the
// optimistic ledger hold: the total balance is debited here, once, and the amount
// is parked in the outgoing pending balance until the custody service settles it.
func (service *TransactionService) SubmitWithdrawal(walletId uuid.UUID, assetId string, amount decimal.Decimal, destinationAddress, externalTxId string) (model.Transaction, error) {
	transaction := model.Transaction{}

	balance := model.WalletAssetBalance{}
	if err := service.Repository.GetByFieldName(&model.WalletAssetBalance{WalletID: walletId, AssetID: assetId}, &balance); err != nil {
		return transaction, err
	}
	if balance.TotalBalance.LessThan(amount) {
		return transaction, serviceError(http.StatusBadRequest, errorcode.INSUFFICIENT_BALANCE,
			errors.New("wallet balance is below the requested withdrawal amount"))
	}

	sourceVaultId := service.pickWithdrawalVault()
	response, err := service.Custody.CreateTransfer(dto.CreateTransferRequest{
		AssetID: assetId,
		Amount:  amount.String(),
		Source:  dto.TransferPeer{Type: dto.PeerVaultAccount, ID: sourceVaultId},
		Destination: dto.TransferPeer{
			Type:           dto.PeerOneTimeAddress,
			OneTimeAddress: destinationAddress,
		},
		FeeLevel:     dto.FeeLevelMedium,
		ExternalTxID: externalTxId,
	})
	if err != nil {
		return transaction, err
	}

	status := response.Status
	if status == "" {
		status = model.TransactionStatus.SUBMITTED
	}
	transaction = model.Transaction{
		WalletID:                   walletId,
		CustodyTxID:                response.ID,
		AssetID:                    assetId,
		Amount:                     amount,
		Status:                     status,
		Outgoing:                   true,
		SourceVaultAccountID:       service.resolveVaultAccount(sourceVaultId),
		DestinationExternalAddress: destinationAddress,
		ExternalTxID:               externalTxId,
	}
	if err := service.Repository.Create(&transaction); err != nil {
		return transaction, err
	}

	balanceService := NewBalanceService(service.Cache, service.Config, service.Repository)
	if err := balanceService.DebitTotal(walletId, assetId, amount); err != nil {
		return transaction, err
	}
	if err := balanceService.AdjustPending(walletId, assetId, database.PendingOutgoing, amount); err != nil {
		return transaction, err
	}
	return transaction, nil
}

func (service *TransactionService) pickWithdrawalVault() string {
	vaultIds := service.Config.WithdrawalVaultIDs
	if len(vaultIds) == 0 {
		return service.Config.OmnibusVaultID
	}
	return vaultIds[rand.Intn(len(vaultIds))]
}
