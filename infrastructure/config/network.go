package config

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/dagconfig"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet    bool   `long:"testnet" description:"Use the test network"`
	Devnet     bool   `long:"devnet" description:"Use the development test network"`
	ParamsFile string `long:"params" description:"YAML file overriding network params (not allowed on mainnet)"`

	ActiveNetParams *dagconfig.Params
}

// ResolveNetwork parses the network command line argument and sets NetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	networkFlags.ActiveNetParams = dagconfig.MainnetParams
	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		networkFlags.ActiveNetParams = dagconfig.TestnetParams
	}
	if networkFlags.Devnet {
		numNets++
		networkFlags.ActiveNetParams = dagconfig.DevnetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, devnet) cannot be used " +
			"together. Please choose only one network"
		err := errors.Errorf(message)
		fmt.Fprintln(os.Stderr, err)
		if parser != nil {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	return nil
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *dagconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) loadParamsFile() error {
	if !networkFlags.Testnet && !networkFlags.Devnet {
		return errors.Errorf("params is not allowed on mainnet")
	}
	params, err := dagconfig.LoadParamsFile(networkFlags.ParamsFile, networkFlags.ActiveNetParams)
	if err != nil {
		return err
	}
	log.Infof("Loaded %s params from %s", params.Name, networkFlags.ParamsFile)
	networkFlags.ActiveNetParams = params
	return nil
}
