package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/unitdag/unitd/domain/dagconfig"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	missingConfigFile := filepath.Join(dir, "missing.conf")

	paramsFile := filepath.Join(dir, "params.yaml")
	err := os.WriteFile(paramsFile, []byte("max_messages_per_unit: 7\ncatchup_mci_interval: 3\n"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %+v", err)
	}
	configFile := filepath.Join(dir, "unitd.conf")
	err = os.WriteFile(configFile, []byte("[Application Options]\ntestnet=true\nvalidation-workers=9\n"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %+v", err)
	}

	tests := []struct {
		name      string
		args      []string
		expectErr bool
		check     func(t *testing.T, cfg *Config)
	}{
		{
			name: "mainnet by default",
			args: []string{"--configfile", missingConfigFile},
			check: func(t *testing.T, cfg *Config) {
				if cfg.NetParams() != dagconfig.MainnetParams {
					t.Fatalf("expected mainnet, got %s", cfg.NetParams().Name)
				}
				if cfg.ValidationWorkers != defaultValidationWorkers {
					t.Fatalf("expected %d workers, got %d", defaultValidationWorkers, cfg.ValidationWorkers)
				}
				rotation := cfg.logRotation()
				if rotation.ThresholdKB != defaultLogMaxSizeMiB*1024 || rotation.MaxRolls != defaultLogMaxRolls {
					t.Fatalf("unexpected log rotation %+v", rotation)
				}
			},
		},
		{
			name: "devnet with catch-up flags",
			args: []string{"--configfile", missingConfigFile, "--devnet", "--appdir", dir,
				"--catchup-mci-interval", "4", "--catchup-max-chain-balls", "20"},
			check: func(t *testing.T, cfg *Config) {
				params := cfg.NetParams()
				if params.Name != dagconfig.DevnetParams.Name {
					t.Fatalf("expected devnet, got %s", params.Name)
				}
				if params.CatchupMCIInterval != 4 || params.CatchupMaxChainBalls != 20 {
					t.Fatalf("catch-up flags were not applied: %d, %d",
						params.CatchupMCIInterval, params.CatchupMaxChainBalls)
				}
				if dagconfig.DevnetParams.CatchupMaxChainBalls == 20 {
					t.Fatalf("the registered devnet params were modified")
				}
				if cfg.AppDir != filepath.Join(dir, params.Name) {
					t.Fatalf("expected the app dir to be namespaced by network, got %s", cfg.AppDir)
				}
			},
		},
		{
			name: "params file",
			args: []string{"--configfile", missingConfigFile, "--devnet", "--params", paramsFile},
			check: func(t *testing.T, cfg *Config) {
				params := cfg.NetParams()
				if params.MaxMessagesPerUnit != 7 || params.CatchupMCIInterval != 3 {
					t.Fatalf("params file was not applied: %d, %d",
						params.MaxMessagesPerUnit, params.CatchupMCIInterval)
				}
			},
		},
		{
			name: "config file",
			args: []string{"--configfile", configFile},
			check: func(t *testing.T, cfg *Config) {
				if cfg.NetParams() != dagconfig.TestnetParams {
					t.Fatalf("expected testnet, got %s", cfg.NetParams().Name)
				}
				if cfg.ValidationWorkers != 9 {
					t.Fatalf("expected 9 workers from the config file, got %d", cfg.ValidationWorkers)
				}
			},
		},
		{
			name: "command line overrides config file",
			args: []string{"--configfile", configFile, "--validation-workers", "2"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.ValidationWorkers != 2 {
					t.Fatalf("expected 2 workers, got %d", cfg.ValidationWorkers)
				}
			},
		},
		{
			name:      "two networks",
			args:      []string{"--configfile", missingConfigFile, "--devnet", "--testnet"},
			expectErr: true,
		},
		{
			name:      "params file on mainnet",
			args:      []string{"--configfile", missingConfigFile, "--params", paramsFile},
			expectErr: true,
		},
		{
			name:      "no workers",
			args:      []string{"--configfile", missingConfigFile, "--validation-workers", "0"},
			expectErr: true,
		},
		{
			name:      "bad profile port",
			args:      []string{"--configfile", missingConfigFile, "--profile", "80"},
			expectErr: true,
		},
		{
			name:      "no rolled logs",
			args:      []string{"--configfile", missingConfigFile, "--log-max-rolls", "0"},
			expectErr: true,
		},
		{
			name:      "catch-up chain too short",
			args:      []string{"--configfile", missingConfigFile, "--devnet", "--catchup-max-chain-balls", "1"},
			expectErr: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			cfg, err := loadConfig(test.args)
			if test.expectErr {
				if err == nil {
					t.Fatalf("loadConfig: expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfig: %+v", err)
			}
			test.check(t, cfg)
		})
	}
}
