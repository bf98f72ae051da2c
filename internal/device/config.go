// File: internal/device/config.go
package device

import (
	"fmt"

	"github.com/spf13/viper"
)

// ZonedConfig holds the geometry and paths used when building backends
// from URIs. File-backed and simulated devices have no hardware to
// report a geometry, so it comes from here.
type ZonedConfig struct {
	BlockSize      uint32 `mapstructure:"block_size" json:"block_size"`
	ZoneSize       uint64 `mapstructure:"zone_size" json:"zone_size"`
	NrZones        uint32 `mapstructure:"nr_zones" json:"nr_zones"`
	MaxActiveZones uint32 `mapstructure:"max_active_zones" json:"max_active_zones"`
	MaxOpenZones   uint32 `mapstructure:"max_open_zones" json:"max_open_zones"`
	DevicePath     string `mapstructure:"device_path" json:"device_path"`
}

// LoadZonedConfig loads the device configuration using Viper.
func LoadZonedConfig() (*ZonedConfig, error) {
	viper.SetConfigName("zraid-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.zraid")
	viper.AddConfigPath("/etc/zraid")

	viper.SetDefault("block_size", 4096)
	viper.SetDefault("zone_size", 0x100000)
	viper.SetDefault("nr_zones", 32)
	viper.SetDefault("max_active_zones", 14)
	viper.SetDefault("max_open_zones", 14)
	viper.SetDefault("device_path", "/dev")

	viper.SetEnvPrefix("ZRAID")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults apply.
	}

	var config ZonedConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks that the configured geometry is usable.
func (c *ZonedConfig) Validate() error {
	if c.BlockSize == 0 {
		return fmt.Errorf("block size cannot be zero")
	}
	if c.ZoneSize == 0 || c.ZoneSize%uint64(c.BlockSize) != 0 {
		return fmt.Errorf("zone size %#x must be a non-zero multiple of block size %#x",
			c.ZoneSize, c.BlockSize)
	}
	if c.NrZones == 0 {
		return fmt.Errorf("zone count cannot be zero")
	}
	return nil
}
