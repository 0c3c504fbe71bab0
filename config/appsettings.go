package config

import (
	"fmt"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

//Data : config data
type Data struct {
	AppPort     string `mapstructure:"appPort"  yaml:"appPort,omitempty"`
	ServiceName string `mapstructure:"serviceName"  yaml:"serviceName,omitempty"`
	Environment string `mapstructure:"environment"  yaml:"environment,omitempty"`

	DBHost          string `mapstructure:"dbHost"  yaml:"dbHost,omitempty"`
	DBUser          string `mapstructure:"dbUser"  yaml:"dbUser,omitempty"`
	DBPassword      string `mapstructure:"dbPassword"  yaml:"dbPassword,omitempty"`
	DBName          string `mapstructure:"dbName"  yaml:"dbName,omitempty"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"  yaml:"maxIdleConns,omitempty"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"  yaml:"maxOpenConns,omitempty"`
	ConnMaxLifetime int    `mapstructure:"connMaxLifetime"  yaml:"connMaxLifetime,omitempty"`

	CustodyServiceURL      string `mapstructure:"custodyServiceURL"  yaml:"custodyServiceURL,omitempty"`
	CustodyAPIKey          string `mapstructure:"custodyAPIKey"  yaml:"custodyAPIKey,omitempty"`
	NotificationServiceURL string `mapstructure:"notificationServiceURL"  yaml:"notificationServiceURL,omitempty"`
	RequestTimeout         int    `mapstructure:"requestTimeout"  yaml:"requestTimeout,omitempty"`

	// OmnibusVaultID is the custody sub-account all sweeps and consolidations flow into.
	OmnibusVaultID     string   `mapstructure:"omnibusVaultId"  yaml:"omnibusVaultId,omitempty"`
	WithdrawalVaultIDs []string `mapstructure:"withdrawalVaultIds"  yaml:"withdrawalVaultIds,omitempty"`

	SweepCronInterval string             `mapstructure:"sweepCronInterval"  yaml:"sweepCronInterval,omitempty"`
	MinimumSweep      map[string]float64 `mapstructure:"minimumSweep"  yaml:"minimumSweep,omitempty"`

	ConsolidationCronInterval string   `mapstructure:"consolidationCronInterval"  yaml:"consolidationCronInterval,omitempty"`
	UtxoAssets                []string `mapstructure:"utxoAssets"  yaml:"utxoAssets,omitempty"`
	TestnetAssets             []string `mapstructure:"testnetAssets"  yaml:"testnetAssets,omitempty"`
	DepositsPerConsolidation  int      `mapstructure:"depositsPerConsolidation"  yaml:"depositsPerConsolidation,omitempty"`
	UnspentInputsThreshold    int      `mapstructure:"unspentInputsThreshold"  yaml:"unspentInputsThreshold,omitempty"`
	FinalityPollSeconds       int      `mapstructure:"finalityPollSeconds"  yaml:"finalityPollSeconds,omitempty"`

	ExpireCacheDuration int `mapstructure:"expireCacheDuration"  yaml:"expireCacheDuration,omitempty"`
	PurgeCacheInterval  int `mapstructure:"purgeCacheInterval"  yaml:"purgeCacheInterval,omitempty"`
}

//Init : initialize data
func (c *Data) Init(configDir string) {

	dir, dirErr := os.Getwd()
	if dirErr != nil {
		log.Printf("Cannot set default input/output directory to the current working directory >> %s", dirErr)
	}

	viper.SetEnvPrefix("cps") // Prefix all env variables with CPS (Custody Processor Service)
	viper.AutomaticEnv()
	viper.BindEnv("appPort")
	viper.BindEnv("custodyServiceURL")
	viper.BindEnv("custodyAPIKey")
	viper.BindEnv("omnibusVaultId")

	viper.SetConfigName("config")
	viper.AddConfigPath("../")
	viper.AddConfigPath(dir)
	viper.AddConfigPath(configDir)
	viper.WatchConfig()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			panic(fmt.Errorf("\n Configuration file not found >>%s ", err))
		} else {
			panic(fmt.Errorf("\n fatal error: could not read from config file >>%s ", err))
		}
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				panic(fmt.Errorf("\n Configuration file not found >>%s ", err))
			} else {
				panic(fmt.Errorf("\n fatal error: could not read from config file >>%s ", err))
			}
		}
		viper.Unmarshal(c)
		fmt.Println("Config file changed:", e.Name)
	})

	viper.Unmarshal(c)
	log.Println("App configuration loaded successfully!")
}

// Snapshot ... Re-reads the currently loaded configuration. Scheduled jobs take a
// fresh snapshot each run so live config changes, sweep minimums especially, apply
// without a restart.
func Snapshot() Data {
	c := Data{}
	viper.Unmarshal(&c)
	return c
}

// IsTestnetAsset ... Assets exempt from the block height consistency check on deposit completion
func (c Data) IsTestnetAsset(assetId string) bool {
	for _, asset := range c.TestnetAssets {
		if asset == assetId {
			return true
		}
	}
	return false
}

// IsUtxoAsset ...
func (c Data) IsUtxoAsset(assetId string) bool {
	for _, asset := range c.UtxoAssets {
		if asset == assetId {
			return true
		}
	}
	return false
}

// IsWithdrawalVault ...
func (c Data) IsWithdrawalVault(vaultId string) bool {
	for _, id := range c.WithdrawalVaultIDs {
		if id == vaultId {
			return true
		}
	}
	return false
}
