package services

import (
	"custody-processor/dto"
	"custody-processor/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func (s *Suite) consolidationService() *ConsolidationService {
	return NewConsolidationService(s.Cache, s.Config, s.Repository, s.Custody)
}

func (s *Suite) fetchDepositsCounter(assetId string) int {
	supportedAsset := model.SupportedAsset{}
	require.NoError(s.T(), s.DB.Where(&model.SupportedAsset{AssetID: assetId}).First(&supportedAsset).Error)
	return supportedAsset.DepositsCounter
}

func (s *Suite) TestRecordUtxoDepositIncrementsCounter() {
	require.NoError(s.T(), s.DB.Create(&model.SupportedAsset{AssetID: "BTC", IsUtxo: true, DepositsCounter: 5}).Error)

	require.NoError(s.T(), s.consolidationService().RecordUtxoDeposit("BTC"))

	require.Equal(s.T(), 6, s.fetchDepositsCounter("BTC"))
	require.Empty(s.T(), s.Custody.transfers)
}

func (s *Suite) TestRecordUtxoDepositCreatesCounterRow() {
	require.NoError(s.T(), s.consolidationService().RecordUtxoDeposit("BTC"))
	require.Equal(s.T(), 1, s.fetchDepositsCounter("BTC"))
}

func (s *Suite) TestRecordUtxoDepositTriggersConsolidationAtCeiling() {
	require.NoError(s.T(), s.DB.Create(&model.SupportedAsset{AssetID: "BTC", IsUtxo: true, DepositsCounter: 248}).Error)
	s.Custody.balances[balanceKey("9", "BTC")] = dto.SubAccountAssetBalance{Available: "3.2", Total: "3.2"}
	s.Custody.transferResponse = dto.CreateTransferResponse{ID: "tx-c1", Status: "SUBMITTED"}

	require.NoError(s.T(), s.consolidationService().RecordUtxoDeposit("BTC"))

	require.Len(s.T(), s.Custody.transfers, 1)
	transfer := s.Custody.transfers[0]
	require.Equal(s.T(), "9", transfer.Source.ID)
	require.Equal(s.T(), "9", transfer.Destination.ID)
	require.Equal(s.T(), "3.2", transfer.Amount)
	require.Equal(s.T(), consolidationNote, transfer.Note)

	require.Zero(s.T(), s.fetchDepositsCounter("BTC"))
}

func (s *Suite) TestConsolidateDepositsSkipsEmptyOmnibusBalance() {
	s.Custody.balances[balanceKey("9", "BTC")] = dto.SubAccountAssetBalance{Available: "0", Total: "0"}

	custodyTxId, err := s.consolidationService().ConsolidateDeposits("BTC")
	require.NoError(s.T(), err)
	require.Empty(s.T(), custodyTxId)
	require.Empty(s.T(), s.Custody.transfers)
}

func (s *Suite) TestBackupConsolidationDrainsUnspentBacklog() {
	require.NoError(s.T(), s.DB.Create(&model.SupportedAsset{AssetID: "BTC", IsUtxo: true, DepositsCounter: 17}).Error)

	config := s.Config
	config.UtxoAssets = []string{"BTC"}
	consolidationService := NewConsolidationService(s.Cache, config, s.Repository, s.Custody)

	// Two passes needed before the count drops under the threshold of 250.
	s.Custody.unspentCounts = []int{612, 320, 120}
	s.Custody.maxSpendable = decimal.RequireFromString("1.7")
	s.Custody.statuses = []string{model.TransactionStatus.SUBMITTED, model.TransactionStatus.CONFIRMING, model.TransactionStatus.COMPLETED}
	s.Custody.transferResponse = dto.CreateTransferResponse{ID: "tx-c1", Status: "SUBMITTED"}

	require.NoError(s.T(), consolidationService.RunBackupConsolidation())

	require.Len(s.T(), s.Custody.transfers, 2)
	for _, transfer := range s.Custody.transfers {
		require.Equal(s.T(), "9", transfer.Source.ID)
		require.Equal(s.T(), "9", transfer.Destination.ID)
		require.Equal(s.T(), "1.7", transfer.Amount)
	}
	require.Zero(s.T(), s.fetchDepositsCounter("BTC"))
}

func (s *Suite) TestBackupConsolidationContinuesPastFailingAsset() {
	config := s.Config
	config.UtxoAssets = []string{"BTC", "BTC_TEST"}
	consolidationService := NewConsolidationService(s.Cache, config, s.Repository, s.Custody)

	require.NoError(s.T(), s.DB.Create(&model.SupportedAsset{AssetID: "BTC_TEST", IsUtxo: true, DepositsCounter: 30}).Error)

	// BTC needs a consolidation but the transfer submission fails; BTC_TEST is
	// already below the threshold and must still be visited.
	s.Custody.unspentCounts = []int{612, 12}
	s.Custody.maxSpendable = decimal.RequireFromString("1.7")
	s.Custody.transferErr = errExternal
	defer func() { s.Custody.transferErr = nil }()

	require.NoError(s.T(), consolidationService.RunBackupConsolidation())

	// Both assets were visited, and BTC_TEST consolidated nothing so its
	// accrued deposit count survives the pass.
	require.Empty(s.T(), s.Custody.unspentCounts)
	require.Equal(s.T(), 30, s.fetchDepositsCounter("BTC_TEST"))
}

func (s *Suite) TestBackupConsolidationKeepsCounterWhenBelowThreshold() {
	require.NoError(s.T(), s.DB.Create(&model.SupportedAsset{AssetID: "BTC", IsUtxo: true, DepositsCounter: 200}).Error)

	config := s.Config
	config.UtxoAssets = []string{"BTC"}
	consolidationService := NewConsolidationService(s.Cache, config, s.Repository, s.Custody)

	s.Custody.unspentCounts = []int{10}

	require.NoError(s.T(), consolidationService.RunBackupConsolidation())

	// Nothing consolidated, so the counter keeps building toward the ceiling.
	require.Empty(s.T(), s.Custody.transfers)
	require.Equal(s.T(), 200, s.fetchDepositsCounter("BTC"))
}
