package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Volume floor bases. The original scanner variant summed 24h buy volume with
// itself when checking the floor; buy_only reproduces that behaviour for
// operators who tuned thresholds against it, buy_sell is the default.
const (
	VolumeFloorBuySell = "buy_sell"
	VolumeFloorBuyOnly = "buy_only"
)

// GateParams is the tunable threshold set consumed by the admission pipeline.
// It is reloaded from disk at the start of every scan cycle so operators can
// tune gates without a restart.
type GateParams struct {
	MinLiquidityUSD      float64 `yaml:"min_liquidity_in_usd"`
	MinMcapUSD           float64 `yaml:"min_mcap_in_usd"`
	MaxMcapUSD           float64 `yaml:"max_mcap_in_usd"`
	MaxTop5HolderPct     float64 `yaml:"max_holding_percentage_top_5_holders"`
	MinHolderCount       int     `yaml:"min_holder_count"`
	Min24hVolumePctOfFDV float64 `yaml:"min_24h_usd_volume_as_percentage_of_mcap"`
	OutlierMultiple      float64 `yaml:"std_multiple_for_outlier"`
	VolumeFloorBasis     string  `yaml:"volume_floor_basis"`
}

func DefaultGateParams() GateParams {
	return GateParams{
		MinLiquidityUSD:      10_000,
		MinMcapUSD:           100_000,
		MaxMcapUSD:           10_000_000,
		MaxTop5HolderPct:     50.0,
		MinHolderCount:       100,
		Min24hVolumePctOfFDV: 5.0,
		OutlierMultiple:      2.0,
		VolumeFloorBasis:     VolumeFloorBuySell,
	}
}

func (p GateParams) Validate() error {
	if p.MinLiquidityUSD < 0 {
		return fmt.Errorf("min_liquidity_in_usd must not be negative")
	}
	if p.MinMcapUSD < 0 || p.MaxMcapUSD < 0 {
		return fmt.Errorf("mcap bounds must not be negative")
	}
	if p.MinMcapUSD > p.MaxMcapUSD {
		return fmt.Errorf("min_mcap_in_usd %.2f exceeds max_mcap_in_usd %.2f", p.MinMcapUSD, p.MaxMcapUSD)
	}
	if p.MaxTop5HolderPct < 0 {
		return fmt.Errorf("max_holding_percentage_top_5_holders must not be negative")
	}
	if p.MinHolderCount < 0 {
		return fmt.Errorf("min_holder_count must not be negative")
	}
	if p.Min24hVolumePctOfFDV < 0 {
		return fmt.Errorf("min_24h_usd_volume_as_percentage_of_mcap must not be negative")
	}
	if p.OutlierMultiple < 0 {
		return fmt.Errorf("std_multiple_for_outlier must not be negative")
	}
	switch p.VolumeFloorBasis {
	case VolumeFloorBuySell, VolumeFloorBuyOnly:
	default:
		return fmt.Errorf("volume_floor_basis must be %q or %q", VolumeFloorBuySell, VolumeFloorBuyOnly)
	}
	return nil
}

// GateParamsPath returns the parameter file location for a chain.
func GateParamsPath(paramsDir, chain string) string {
	return filepath.Join(paramsDir, chain+".yaml")
}

// LoadGateParams reads the gate parameter file. When the file does not exist
// yet the defaults are written out so operators have a file to edit, matching
// first-run behaviour. A malformed or invalid file surfaces an error; callers
// keep their last-known-good set in that case.
func LoadGateParams(path string) (GateParams, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		params := DefaultGateParams()
		if writeErr := writeGateParams(path, params); writeErr != nil {
			return params, nil
		}
		return params, nil
	}
	if err != nil {
		return GateParams{}, fmt.Errorf("failed to read gate parameters: %w", err)
	}

	params := DefaultGateParams()
	if err := yaml.Unmarshal(data, &params); err != nil {
		return GateParams{}, fmt.Errorf("failed to parse gate parameters: %w", err)
	}
	if err := params.Validate(); err != nil {
		return GateParams{}, fmt.Errorf("invalid gate parameters: %w", err)
	}
	return params, nil
}

func writeGateParams(path string, params GateParams) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(params)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
