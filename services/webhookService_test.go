package services

import (
	"custody-processor/dto"
	"custody-processor/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func depositSnapshot(custodyTxId, assetId, amount, destVaultId, destAddress string, blockHeight int64) dto.TransactionSnapshot {
	return dto.TransactionSnapshot{
		ID:                 custodyTxId,
		Status:             model.TransactionStatus.SUBMITTED,
		AssetID:            assetId,
		AmountInfo:         dto.AmountInfo{Amount: amount},
		Source:             dto.TransferPeer{Type: dto.PeerUnknown},
		Destination:        dto.TransferPeer{Type: dto.PeerVaultAccount, ID: destVaultId},
		DestinationAddress: destAddress,
		BlockInfo:          dto.BlockInfo{BlockHeight: blockHeight},
	}
}

func (s *Suite) TestIncomingDepositCreated() {
	wallet := s.seedWallet()
	_, asset := s.seedVaultAsset(wallet, "12", "ETH_TEST5", "0xabc", decimal.Zero, true)

	snapshot := depositSnapshot("tx-1", "ETH_TEST5", "1.5", "12", "0xabc", 100)
	err := s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionCreated, Data: snapshot})
	require.NoError(s.T(), err)

	transaction := s.fetchTransaction("tx-1")
	require.False(s.T(), transaction.Outgoing)
	require.Equal(s.T(), wallet.ID, transaction.WalletID)
	s.requireDecimalEqual("1.5", transaction.Amount)

	balance := s.fetchBalance(wallet, "ETH_TEST5")
	s.requireDecimalEqual("0", balance.TotalBalance)
	s.requireDecimalEqual("1.5", balance.IncomingPendingBalance)

	require.False(s.T(), s.fetchAsset(asset.ID).IsSwept)
	require.Equal(s.T(), []string{dto.NotifyNewIncomingTransaction}, s.Notifier.eventTypes())
	require.Equal(s.T(), wallet.UserID, s.Notifier.sent[0].UserID)
}

func (s *Suite) TestIncomingDepositCreatedRedeliveryIsIgnored() {
	wallet := s.seedWallet()
	s.seedVaultAsset(wallet, "12", "ETH_TEST5", "0xabc", decimal.Zero, false)

	snapshot := depositSnapshot("tx-1", "ETH_TEST5", "1.5", "12", "0xabc", 100)
	event := dto.WebhookEvent{Type: dto.EventTransactionCreated, Data: snapshot}
	require.NoError(s.T(), s.webhookService().ProcessEvent(event))
	require.NoError(s.T(), s.webhookService().ProcessEvent(event))

	var count int
	s.DB.Model(&model.Transaction{}).Where(&model.Transaction{CustodyTxID: "tx-1"}).Count(&count)
	require.Equal(s.T(), 1, count)

	s.requireDecimalEqual("1.5", s.fetchBalance(wallet, "ETH_TEST5").IncomingPendingBalance)
}

func (s *Suite) TestIncomingDepositCompleted() {
	wallet := s.seedWallet()
	_, asset := s.seedVaultAsset(wallet, "12", "ETH_TEST5", "0xabc", decimal.Zero, true)

	created := depositSnapshot("tx-1", "ETH_TEST5", "1.5", "12", "0xabc", 100)
	require.NoError(s.T(), s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionCreated, Data: created}))

	// Testnet assets skip the provider height comparison.
	s.Custody.balances[balanceKey("12", "ETH_TEST5")] = dto.SubAccountAssetBalance{Available: "1.5", Total: "1.5", BlockHeight: 90}

	completed := created
	completed.Status = model.TransactionStatus.COMPLETED
	completed.TxHash = "0xhash"
	require.NoError(s.T(), s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionStatusUpdated, Data: completed}))

	balance := s.fetchBalance(wallet, "ETH_TEST5")
	s.requireDecimalEqual("1.5", balance.TotalBalance)
	s.requireDecimalEqual("0", balance.IncomingPendingBalance)

	refreshed := s.fetchAsset(asset.ID)
	s.requireDecimalEqual("1.5", refreshed.Balance)

	transaction := s.fetchTransaction("tx-1")
	require.Equal(s.T(), model.TransactionStatus.COMPLETED, transaction.Status)
	require.Equal(s.T(), "0xhash", transaction.TxHash)

	require.Contains(s.T(), s.Notifier.eventTypes(), dto.NotifyTransactionStatus)
	require.Contains(s.T(), s.Notifier.eventTypes(), dto.NotifyBalanceUpdate)
}

func (s *Suite) TestIncomingDepositCompletionAppliedExactlyOnce() {
	wallet := s.seedWallet()
	s.seedVaultAsset(wallet, "12", "ETH_TEST5", "0xabc", decimal.Zero, false)

	created := depositSnapshot("tx-1", "ETH_TEST5", "1.5", "12", "0xabc", 100)
	require.NoError(s.T(), s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionCreated, Data: created}))

	completed := created
	completed.Status = model.TransactionStatus.COMPLETED
	event := dto.WebhookEvent{Type: dto.EventTransactionStatusUpdated, Data: completed}
	require.NoError(s.T(), s.webhookService().ProcessEvent(event))
	require.NoError(s.T(), s.webhookService().ProcessEvent(event))

	balance := s.fetchBalance(wallet, "ETH_TEST5")
	s.requireDecimalEqual("1.5", balance.TotalBalance)
	s.requireDecimalEqual("0", balance.IncomingPendingBalance)
}

func (s *Suite) TestIncomingCompletionHeldBackByStaleProviderHeight() {
	wallet := s.seedWallet()
	s.seedVaultAsset(wallet, "12", "ETH", "0xabc", decimal.Zero, false)

	created := depositSnapshot("tx-1", "ETH", "2", "12", "0xabc", 100)
	require.NoError(s.T(), s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionCreated, Data: created}))

	s.Custody.balances[balanceKey("12", "ETH")] = dto.SubAccountAssetBalance{Available: "2", Total: "2", BlockHeight: 90}

	completed := created
	completed.Status = model.TransactionStatus.COMPLETED
	event := dto.WebhookEvent{Type: dto.EventTransactionStatusUpdated, Data: completed}
	require.Error(s.T(), s.webhookService().ProcessEvent(event))

	// Ledger untouched, stored status still pending so redelivery can retry.
	balance := s.fetchBalance(wallet, "ETH")
	s.requireDecimalEqual("0", balance.TotalBalance)
	s.requireDecimalEqual("2", balance.IncomingPendingBalance)
	require.Equal(s.T(), model.TransactionStatus.SUBMITTED, s.fetchTransaction("tx-1").Status)

	// Provider catches up, redelivery lands the credit.
	s.Custody.balances[balanceKey("12", "ETH")] = dto.SubAccountAssetBalance{Available: "2", Total: "2", BlockHeight: 100}
	require.NoError(s.T(), s.webhookService().ProcessEvent(event))
	balance = s.fetchBalance(wallet, "ETH")
	s.requireDecimalEqual("2", balance.TotalBalance)
	s.requireDecimalEqual("0", balance.IncomingPendingBalance)
}

func (s *Suite) TestIncomingDepositFailedReleasesPendingHold() {
	wallet := s.seedWallet()
	s.seedVaultAsset(wallet, "12", "ETH_TEST5", "0xabc", decimal.Zero, false)

	created := depositSnapshot("tx-1", "ETH_TEST5", "1.5", "12", "0xabc", 100)
	require.NoError(s.T(), s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionCreated, Data: created}))

	failed := created
	failed.Status = model.TransactionStatus.REJECTED
	require.NoError(s.T(), s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionStatusUpdated, Data: failed}))

	balance := s.fetchBalance(wallet, "ETH_TEST5")
	s.requireDecimalEqual("0", balance.TotalBalance)
	s.requireDecimalEqual("0", balance.IncomingPendingBalance)
}

func (s *Suite) TestOutgoingFailureRefundsOptimisticDebit() {
	wallet := s.seedWallet()
	// A withdrawal of 2 was submitted against a balance of 10.
	s.seedBalance(wallet, "ETH", decimal.RequireFromString("8"), decimal.Zero, decimal.RequireFromString("2"))
	withdrawal := model.Transaction{
		WalletID:    wallet.ID,
		CustodyTxID: "tx-w1",
		AssetID:     "ETH",
		Amount:      decimal.RequireFromString("2"),
		Status:      model.TransactionStatus.SUBMITTED,
		Outgoing:    true,
	}
	require.NoError(s.T(), s.DB.Create(&withdrawal).Error)

	failed := dto.TransactionSnapshot{
		ID:          "tx-w1",
		Status:      model.TransactionStatus.FAILED,
		AssetID:     "ETH",
		AmountInfo:  dto.AmountInfo{Amount: "2"},
		Source:      dto.TransferPeer{Type: dto.PeerVaultAccount, ID: "7"},
		Destination: dto.TransferPeer{Type: dto.PeerOneTimeAddress, OneTimeAddress: "0xdead"},
	}
	require.NoError(s.T(), s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionStatusUpdated, Data: failed}))

	balance := s.fetchBalance(wallet, "ETH")
	s.requireDecimalEqual("10", balance.TotalBalance)
	s.requireDecimalEqual("0", balance.OutgoingPendingBalance)
	require.Equal(s.T(), model.TransactionStatus.FAILED, s.fetchTransaction("tx-w1").Status)
	require.Equal(s.T(), []string{dto.NotifyTransactionStatus}, s.Notifier.eventTypes())
}

func (s *Suite) TestOutgoingCompletionOnlyReleasesPendingHold() {
	wallet := s.seedWallet()
	s.seedBalance(wallet, "ETH", decimal.RequireFromString("8"), decimal.Zero, decimal.RequireFromString("2"))
	withdrawal := model.Transaction{
		WalletID:    wallet.ID,
		CustodyTxID: "tx-w1",
		AssetID:     "ETH",
		Amount:      decimal.RequireFromString("2"),
		Status:      model.TransactionStatus.CONFIRMING,
		Outgoing:    true,
	}
	require.NoError(s.T(), s.DB.Create(&withdrawal).Error)

	completed := dto.TransactionSnapshot{
		ID:          "tx-w1",
		Status:      model.TransactionStatus.COMPLETED,
		AssetID:     "ETH",
		AmountInfo:  dto.AmountInfo{Amount: "2"},
		Source:      dto.TransferPeer{Type: dto.PeerVaultAccount, ID: "7"},
		Destination: dto.TransferPeer{Type: dto.PeerOneTimeAddress, OneTimeAddress: "0xdead"},
		TxHash:      "0xhash",
	}
	require.NoError(s.T(), s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionStatusUpdated, Data: completed}))

	// The total was debited at submission, completion must not debit it again.
	balance := s.fetchBalance(wallet, "ETH")
	s.requireDecimalEqual("8", balance.TotalBalance)
	s.requireDecimalEqual("0", balance.OutgoingPendingBalance)

	require.Equal(s.T(), []string{dto.NotifyTransactionStatus, dto.NotifyBalanceUpdate}, s.Notifier.eventTypes())
	notice := s.Notifier.sent[1].Payload.(dto.BalanceUpdateNotice)
	require.Equal(s.T(), "ETH", notice.AssetID)
	require.Equal(s.T(), "-2", notice.Amount)
}

func (s *Suite) TestSweepCompletionMovesObservedBalances() {
	wallet := s.seedWallet()
	_, sourceAsset := s.seedVaultAsset(wallet, "12", "ETH", "0xabc", decimal.RequireFromString("0.5"), true)
	_, omnibusAsset := s.seedVaultAsset(wallet, "9", "ETH", "0xomni", decimal.RequireFromString("2"), false)
	s.seedBalance(wallet, "ETH", decimal.RequireFromString("0.5"), decimal.Zero, decimal.Zero)

	sweepTx := model.Transaction{
		WalletID:    wallet.ID,
		CustodyTxID: "tx-s1",
		AssetID:     "ETH",
		Amount:      decimal.RequireFromString("0.5"),
		Status:      model.TransactionStatus.SUBMITTED,
		Outgoing:    true,
		IsSweeping:  true,
	}
	require.NoError(s.T(), s.DB.Create(&sweepTx).Error)

	completed := dto.TransactionSnapshot{
		ID:          "tx-s1",
		Status:      model.TransactionStatus.COMPLETED,
		AssetID:     "ETH",
		AmountInfo:  dto.AmountInfo{Amount: "0.5"},
		Source:      dto.TransferPeer{Type: dto.PeerVaultAccount, ID: "12"},
		Destination: dto.TransferPeer{Type: dto.PeerVaultAccount, ID: "9"},
	}
	require.NoError(s.T(), s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionStatusUpdated, Data: completed}))

	source := s.fetchAsset(sourceAsset.ID)
	s.requireDecimalEqual("0", source.Balance)
	require.True(s.T(), source.IsSwept)

	omnibus := s.fetchAsset(omnibusAsset.ID)
	s.requireDecimalEqual("2.5", omnibus.Balance)

	// Sweeping is internal plumbing, the user-facing ledger is untouched.
	s.requireDecimalEqual("0.5", s.fetchBalance(wallet, "ETH").TotalBalance)
	require.Empty(s.T(), s.Notifier.sent)
}

func (s *Suite) TestSweepCompletionWithDepositLandedMidFlight() {
	wallet := s.seedWallet()
	// A 0.2 deposit confirmed after the 0.5 sweep was submitted.
	_, sourceAsset := s.seedVaultAsset(wallet, "12", "ETH", "0xabc", decimal.RequireFromString("0.7"), true)
	_, omnibusAsset := s.seedVaultAsset(wallet, "9", "ETH", "0xomni", decimal.RequireFromString("2"), false)

	sweepTx := model.Transaction{
		WalletID:    wallet.ID,
		CustodyTxID: "tx-s1",
		AssetID:     "ETH",
		Amount:      decimal.RequireFromString("0.5"),
		Status:      model.TransactionStatus.SUBMITTED,
		Outgoing:    true,
		IsSweeping:  true,
	}
	require.NoError(s.T(), s.DB.Create(&sweepTx).Error)

	completed := dto.TransactionSnapshot{
		ID:          "tx-s1",
		Status:      model.TransactionStatus.COMPLETED,
		AssetID:     "ETH",
		AmountInfo:  dto.AmountInfo{Amount: "0.5"},
		Source:      dto.TransferPeer{Type: dto.PeerVaultAccount, ID: "12"},
		Destination: dto.TransferPeer{Type: dto.PeerVaultAccount, ID: "9"},
	}
	require.NoError(s.T(), s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionStatusUpdated, Data: completed}))

	// Only the swept amount moves, the late deposit stays on the source.
	source := s.fetchAsset(sourceAsset.ID)
	s.requireDecimalEqual("0.2", source.Balance)
	s.requireDecimalEqual("2.5", s.fetchAsset(omnibusAsset.ID).Balance)
	require.Equal(s.T(), model.TransactionStatus.COMPLETED, s.fetchTransaction("tx-s1").Status)
}

func (s *Suite) TestSweepFailureLeavesLedgerUntouched() {
	wallet := s.seedWallet()
	_, sourceAsset := s.seedVaultAsset(wallet, "12", "ETH", "0xabc", decimal.RequireFromString("0.5"), true)

	sweepTx := model.Transaction{
		WalletID:    wallet.ID,
		CustodyTxID: "tx-s1",
		AssetID:     "ETH",
		Amount:      decimal.RequireFromString("0.5"),
		Status:      model.TransactionStatus.SUBMITTED,
		Outgoing:    true,
		IsSweeping:  true,
	}
	require.NoError(s.T(), s.DB.Create(&sweepTx).Error)

	failed := dto.TransactionSnapshot{
		ID:          "tx-s1",
		Status:      model.TransactionStatus.BLOCKED,
		AssetID:     "ETH",
		AmountInfo:  dto.AmountInfo{Amount: "0.5"},
		Source:      dto.TransferPeer{Type: dto.PeerVaultAccount, ID: "12"},
		Destination: dto.TransferPeer{Type: dto.PeerVaultAccount, ID: "9"},
	}
	require.NoError(s.T(), s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionStatusUpdated, Data: failed}))

	// Balances untouched, the optimistic swept flag is cleared so the funds
	// become sweepable again.
	source := s.fetchAsset(sourceAsset.ID)
	s.requireDecimalEqual("0.5", source.Balance)
	require.False(s.T(), source.IsSwept)
	require.Equal(s.T(), model.TransactionStatus.BLOCKED, s.fetchTransaction("tx-s1").Status)
	require.Empty(s.T(), s.Notifier.sent)
}

func (s *Suite) TestStatusUpdateForUnknownTransactionFails() {
	snapshot := depositSnapshot("tx-ghost", "ETH", "1", "12", "0xabc", 100)
	snapshot.Status = model.TransactionStatus.COMPLETED
	err := s.webhookService().ProcessEvent(dto.WebhookEvent{Type: dto.EventTransactionStatusUpdated, Data: snapshot})
	require.Error(s.T(), err)
}

func (s *Suite) TestUnknownEventTypeIsIgnored() {
	event := dto.WebhookEvent{Type: "VAULT_ACCOUNT_ADDED", Data: dto.TransactionSnapshot{ID: "tx-1", Status: "SUBMITTED"}}
	require.NoError(s.T(), s.webhookService().ProcessEvent(event))

	var count int
	s.DB.Model(&model.Transaction{}).Count(&count)
	require.Zero(s.T(), count)
}
