package services

import (
	"errors"
	"fmt"
	"net/http"

	Config "custody-processor/config"
	"custody-processor/dto"
	"custody-processor/utility/apiClient"
	"custody-processor/utility/cache"
	"custody-processor/utility/errorcode"
	"custody-processor/utility/ratelimiter"

	"github.com/shopspring/decimal"
)

// CustodyService ... REST client for the custody provider. Every call passes
// through the endpoint rate limiter before it goes on the wire.
type CustodyService struct {
	Cache   *cache.Memory
	Config  Config.Data
	Limiter *ratelimiter.Limiter
	Client  *apiClient.Client
}

// NewCustodyService ... Creates a new instance of CustodyService
func NewCustodyService(cache *cache.Memory, config Config.Data, limiter *ratelimiter.Limiter) *CustodyService {
	return &CustodyService{
		Cache:   cache,
		Config:  config,
		Limiter: limiter,
		Client:  apiClient.New(nil, config, config.CustodyServiceURL),
	}
}

func (service *CustodyService) call(method, path string, body, response interface{}) error {
	service.Limiter.Throttle(method, path)

	request, err := service.Client.NewRequest(method, path, body)
	if err != nil {
		return serviceError(http.StatusInternalServerError, errorcode.SERVER_ERR, err)
	}
	service.Client.AddHeader(request, map[string]string{
		"X-API-Key": service.Config.CustodyAPIKey,
	})
	if _, err := service.Client.Do(request, response); err != nil {
		return serviceError(http.StatusInternalServerError, errorcode.EXTERNAL_SERVICE_ERR, err)
	}
	return nil
}

// CreateTransfer ... Submits a transfer to the custody service
func (service *CustodyService) CreateTransfer(request dto.CreateTransferRequest) (dto.CreateTransferResponse, error) {
	response := dto.CreateTransferResponse{}
	if err := service.call(http.MethodPost, "/v1/transactions", request, &response); err != nil {
		return response, err
	}
	if response.ID == "" {
		return response, serviceError(http.StatusInternalServerError, errorcode.EXTERNAL_SERVICE_ERR,
			errors.New("custody service returned no transaction id"))
	}
	return response, nil
}

// GetSubAccountAssetBalance ... Provider-reported balance and block height for one
// sub-account asset
func (service *CustodyService) GetSubAccountAssetBalance(subAccountId, assetId string) (dto.SubAccountAssetBalance, error) {
	response := dto.SubAccountAssetBalance{}
	path := fmt.Sprintf("/v1/vault/accounts/%s/%s", subAccountId, assetId)
	err := service.call(http.MethodGet, path, nil, &response)
	return response, err
}

// GetUnspentInputCount ... Number of unspent inputs held by a UTXO sub-account asset
func (service *CustodyService) GetUnspentInputCount(subAccountId, assetId string) (int, error) {
	var response []dto.UnspentInput
	path := fmt.Sprintf("/v1/vault/accounts/%s/%s/unspent_inputs", subAccountId, assetId)
	if err := service.call(http.MethodGet, path, nil, &response); err != nil {
		return 0, err
	}
	return len(response), nil
}

// GetMaxSpendableAmount ... Largest amount spendable from a sub-account asset in a
// single transaction
func (service *CustodyService) GetMaxSpendableAmount(subAccountId, assetId string) (decimal.Decimal, error) {
	response := dto.MaxSpendableAmountResponse{}
	path := fmt.Sprintf("/v1/vault/accounts/%s/%s/max_spendable_amount", subAccountId, assetId)
	if err := service.call(http.MethodGet, path, nil, &response); err != nil {
		return decimal.Zero, err
	}
	amount, err := decimal.NewFromString(response.MaxSpendableAmount)
	if err != nil {
		return decimal.Zero, serviceError(http.StatusInternalServerError, errorcode.EXTERNAL_SERVICE_ERR, err)
	}
	return amount, nil
}

// GetAddresses ... Deposit addresses of a sub-account asset, cached per sub-account
// since address sets change rarely
func (service *CustodyService) GetAddresses(subAccountId, assetId string) ([]dto.AddressEntry, error) {
	cacheKey := fmt.Sprintf("addresses-%s-%s", subAccountId, assetId)
	if cached := service.Cache.Get(cacheKey); cached != nil {
		return cached.([]dto.AddressEntry), nil
	}

	response := dto.AddressesResponse{}
	path := fmt.Sprintf("/v1/vault/accounts/%s/%s/addresses", subAccountId, assetId)
	if err := service.call(http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	service.Cache.Set(cacheKey, response.Addresses, true)
	return response.Addresses, nil
}

// GetTransactionStatus ... Current status of a custody transaction
func (service *CustodyService) GetTransactionStatus(id string) (string, error) {
	response := dto.TransactionStatusResponse{}
	path := fmt.Sprintf("/v1/transactions/%s", id)
	if err := service.call(http.MethodGet, path, nil, &response); err != nil {
		return "", err
	}
	return response.Status, nil
}
