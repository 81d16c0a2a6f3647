package testutils

import (
	"testing"

	"github.com/unitdag/unitd/domain/dagconfig"
)

// ForAllNets runs testFunc in a parallel subtest per registered network.
// Every subtest gets its own copy of the network params.
func ForAllNets(t *testing.T, testFunc func(*testing.T, *dagconfig.Params)) {
	for _, name := range []string{
		dagconfig.MainnetParams.Name,
		dagconfig.TestnetParams.Name,
		dagconfig.DevnetParams.Name,
	} {
		params, err := dagconfig.ParamsByName(name)
		if err != nil {
			t.Fatalf("ParamsByName: %+v", err)
		}
		params = params.Clone()
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			testFunc(t, params)
		})
	}
}
