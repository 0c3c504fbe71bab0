package services

import (
	"custody-processor/dto"
	"custody-processor/model"
	"custody-processor/utility/appError"

	"custody-processor/utility/errorcode"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func (s *Suite) transactionService() *TransactionService {
	return NewTransactionService(s.Cache, s.Config, s.Repository, s.Custody)
}

func (s *Suite) TestSubmitWithdrawalTakesOptimisticDebit() {
	wallet := s.seedWallet()
	s.seedVaultAsset(wallet, "7", "ETH", "0xwithdrawal", decimal.Zero, false)
	s.seedBalance(wallet, "ETH", decimal.RequireFromString("10"), decimal.Zero, decimal.Zero)
	s.Custody.transferResponse = dto.CreateTransferResponse{ID: "tx-w1", Status: "SUBMITTED"}

	transaction, err := s.transactionService().SubmitWithdrawal(
		wallet.ID, "ETH", decimal.RequireFromString("2"), "0xdead", "ext-1")
	require.NoError(s.T(), err)

	require.Equal(s.T(), "tx-w1", transaction.CustodyTxID)
	require.True(s.T(), transaction.Outgoing)
	require.Equal(s.T(), "ext-1", transaction.ExternalTxID)

	require.Len(s.T(), s.Custody.transfers, 1)
	transfer := s.Custody.transfers[0]
	require.Equal(s.T(), "7", transfer.Source.ID)
	require.Equal(s.T(), dto.PeerOneTimeAddress, transfer.Destination.Type)
	require.Equal(s.T(), "0xdead", transfer.Destination.OneTimeAddress)
	require.Equal(s.T(), "2", transfer.Amount)

	balance := s.fetchBalance(wallet, "ETH")
	s.requireDecimalEqual("8", balance.TotalBalance)
	s.requireDecimalEqual("2", balance.OutgoingPendingBalance)
}

func (s *Suite) TestSubmitWithdrawalRefusedOnInsufficientBalance() {
	wallet := s.seedWallet()
	s.seedBalance(wallet, "ETH", decimal.RequireFromString("1"), decimal.Zero, decimal.Zero)

	_, err := s.transactionService().SubmitWithdrawal(
		wallet.ID, "ETH", decimal.RequireFromString("2"), "0xdead", "ext-1")
	require.Error(s.T(), err)

	appErr, ok := err.(appError.Err)
	require.True(s.T(), ok)
	require.Equal(s.T(), errorcode.INSUFFICIENT_BALANCE, appErr.ErrType)

	require.Empty(s.T(), s.Custody.transfers)
	s.requireDecimalEqual("1", s.fetchBalance(wallet, "ETH").TotalBalance)
}

func (s *Suite) TestSubmitWithdrawalSurfacesCustodyFailure() {
	wallet := s.seedWallet()
	s.seedBalance(wallet, "ETH", decimal.RequireFromString("10"), decimal.Zero, decimal.Zero)
	s.Custody.transferErr = errExternal
	defer func() { s.Custody.transferErr = nil }()

	_, err := s.transactionService().SubmitWithdrawal(
		wallet.ID, "ETH", decimal.RequireFromString("2"), "0xdead", "ext-1")
	require.Error(s.T(), err)

	// Nothing was recorded and the ledger is untouched.
	var count int
	s.DB.Model(&model.Transaction{}).Count(&count)
	require.Zero(s.T(), count)
	balance := s.fetchBalance(wallet, "ETH")
	s.requireDecimalEqual("10", balance.TotalBalance)
	s.requireDecimalEqual("0", balance.OutgoingPendingBalance)
}
