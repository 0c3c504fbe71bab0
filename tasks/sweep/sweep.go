package sweep

import (
	Config "custody-processor/config"
	"custody-processor/database"
	"custody-processor/dto"
	"custody-processor/model"
	"custody-processor/services"
	"custody-processor/tasks"
	"custody-processor/utility/cache"
	"custody-processor/utility/locker"
	"custody-processor/utility/logger"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

const sweepNote = "sweep"

// sweepEpsilon ... tolerated drift between the locally observed balance and the
// provider-reported balance before a sweep is refused
var sweepEpsilon = decimal.RequireFromString("0.000001")

// SweepBalances ... One sweep pass. Every unswept deposit sub-account whose observed
// balance has reached the per-asset minimum is emptied into the omnibus sub-account.
// A failing candidate is logged and the rest of the pass continues.
func SweepBalances(memoryCache *cache.Memory, config Config.Data, repository database.IWalletRepository, custody services.ICustodyClient) {
	logger.Info("Sweep operation begins")

	assetIds := make([]string, 0, len(config.MinimumSweep))
	for assetId := range config.MinimumSweep {
		assetIds = append(assetIds, assetId)
	}
	if len(assetIds) == 0 {
		logger.Warning("No sweep minimums configured, nothing to sweep")
		return
	}
	excludedVaultIds := append([]string{config.OmnibusVaultID}, config.WithdrawalVaultIDs...)

	var candidates []model.Asset
	if err := repository.FetchSweepCandidates(assetIds, excludedVaultIds, &candidates); err != nil {
		logger.Error("Error response from Sweep job : could not fetch sweep candidates %+v", err)
		return
	}
	logger.Info("Fetched %d sweep candidates", len(candidates))

	swept := 0
	for _, asset := range candidates {
		if err := sweepAsset(config, repository, custody, asset); err != nil {
			logger.Error("Error response from Sweep job : %+v for asset %s", err, asset.ID)
			continue
		}
		swept++
	}
	logger.Info("Sweep operation ends, %d of %d candidates swept", swept, len(candidates))
}

func sweepAsset(config Config.Data, repository database.IWalletRepository, custody services.ICustodyClient, asset model.Asset) error {
	minimum := decimal.NewFromFloat(config.MinimumSweep[asset.AssetID])
	if asset.Balance.LessThan(minimum) {
		logger.Debug("Skipping %s asset %s, balance %s below minimum %s", asset.AssetID, asset.ID, asset.Balance, minimum)
		return nil
	}

	vaultAccount := model.VaultAccount{}
	if err := repository.Get(&model.VaultAccount{BaseModel: model.BaseModel{ID: asset.VaultAccountID}}, &vaultAccount); err != nil {
		return err
	}

	providerBalance, err := custody.GetSubAccountAssetBalance(vaultAccount.CustodyVaultID, asset.AssetID)
	if err != nil {
		return err
	}
	available, err := decimal.NewFromString(providerBalance.Available)
	if err != nil {
		return err
	}
	if available.Sub(asset.Balance).Abs().GreaterThan(sweepEpsilon) {
		logger.Warning("Not sweeping sub-account %s, provider reports %s but %s is recorded for %s",
			vaultAccount.CustodyVaultID, available, asset.Balance, asset.AssetID)
		return nil
	}

	response, err := custody.CreateTransfer(dto.CreateTransferRequest{
		AssetID:     asset.AssetID,
		Amount:      available.String(),
		Source:      dto.TransferPeer{Type: dto.PeerVaultAccount, ID: vaultAccount.CustodyVaultID},
		Destination: dto.TransferPeer{Type: dto.PeerVaultAccount, ID: config.OmnibusVaultID},
		FeeLevel:    dto.FeeLevelLow,
		Note:        sweepNote,
	})
	if err != nil {
		return err
	}
	logger.Info("Submitted sweep %s of %s %s from sub-account %s", response.ID, available, asset.AssetID, vaultAccount.CustodyVaultID)

	status := response.Status
	if status == "" {
		status = model.TransactionStatus.SUBMITTED
	}
	if err := repository.Create(&model.Transaction{
		WalletID:             asset.WalletID,
		CustodyTxID:          response.ID,
		AssetID:              asset.AssetID,
		Amount:               available,
		Status:               status,
		Outgoing:             true,
		IsSweeping:           true,
		SourceVaultAccountID: asset.VaultAccountID,
	}); err != nil {
		return err
	}

	// Marked swept as soon as the sweep is in flight so the next pass cannot
	// sweep the same funds again. A terminal failure clears the flag.
	return repository.Db().Model(&asset).Update("is_swept", true).Error
}

// ExecuteSweepCronJob ... Starts the periodic sweep on the configured schedule
func ExecuteSweepCronJob(memoryCache *cache.Memory, config Config.Data, repository database.IWalletRepository,
	custody services.ICustodyClient, locks *locker.Keyed) {
	c := cron.New()
	c.AddFunc(config.SweepCronInterval, func() {
		tasks.RunExclusive(locks, "sweep", func() {
			SweepBalances(memoryCache, Config.Snapshot(), repository, custody)
		})
	})
	c.Start()
}
