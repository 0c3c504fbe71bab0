package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"custody-processor/dto"
	"custody-processor/utility/cache"
	"custody-processor/utility/ratelimiter"

	"github.com/stretchr/testify/require"
)

func (s *Suite) custodyServiceFor(baseURL string) *CustodyService {
	config := s.Config
	config.CustodyServiceURL = baseURL
	config.CustodyAPIKey = "test-api-key"
	memoryCache := cache.Initialize(time.Minute, time.Minute)
	return NewCustodyService(memoryCache, config, ratelimiter.New(ratelimiter.DefaultQuotas(), true))
}

func (s *Suite) TestGetAddressesCachesLookups() {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(s.T(), "/v1/vault/accounts/12/ETH/addresses", r.URL.Path)
		require.Equal(s.T(), "test-api-key", r.Header.Get("X-API-Key"))
		json.NewEncoder(w).Encode(dto.AddressesResponse{Addresses: []dto.AddressEntry{{Address: "0xabc"}}})
	}))
	defer server.Close()

	custodyService := s.custodyServiceFor(server.URL)

	first, err := custodyService.GetAddresses("12", "ETH")
	require.NoError(s.T(), err)
	require.Equal(s.T(), []dto.AddressEntry{{Address: "0xabc"}}, first)

	// The second lookup is served from the cache without touching the wire.
	second, err := custodyService.GetAddresses("12", "ETH")
	require.NoError(s.T(), err)
	require.Equal(s.T(), first, second)
	require.Equal(s.T(), 1, requests)
}

func (s *Suite) TestGetAddressesSeparateSubAccountsNotShared() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := dto.AddressEntry{Address: "addr-for-" + r.URL.Path}
		json.NewEncoder(w).Encode(dto.AddressesResponse{Addresses: []dto.AddressEntry{entry}})
	}))
	defer server.Close()

	custodyService := s.custodyServiceFor(server.URL)

	first, err := custodyService.GetAddresses("12", "ETH")
	require.NoError(s.T(), err)
	other, err := custodyService.GetAddresses("13", "ETH")
	require.NoError(s.T(), err)
	require.NotEqual(s.T(), first, other)
}
