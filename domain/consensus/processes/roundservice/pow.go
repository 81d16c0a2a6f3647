package roundservice

import (
	"math/bits"
	"strconv"

	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/consensushashing"
)

func uint64String(n uint64) string {
	return strconv.FormatUint(n, 10)
}

func solutionHash(seed string, address string, nonce uint64) *externalapi.DomainHash {
	return consensushashing.DataHash(seed + "|" + address + "|" + uint64String(nonce))
}

func leadingZeroBits(hash *externalapi.DomainHash) int {
	count := 0
	for _, b := range hash.ByteSlice() {
		if b != 0 {
			return count + bits.LeadingZeros8(b)
		}
		count += 8
	}
	return count
}

// VerifySolution returns whether solution was found by address for seed and
// meets difficultyBits
func VerifySolution(seed string, address string, solution *externalapi.PowSolution, difficultyBits int) bool {
	hash := solutionHash(seed, address, solution.Nonce)
	return hash.String() == solution.Hash && leadingZeroBits(hash) >= difficultyBits
}

// Solve searches for the first nonce whose solution meets difficultyBits
func Solve(seed string, address string, difficultyBits int) *externalapi.PowSolution {
	for nonce := uint64(0); ; nonce++ {
		hash := solutionHash(seed, address, nonce)
		if leadingZeroBits(hash) >= difficultyBits {
			return &externalapi.PowSolution{Hash: hash.String(), Nonce: nonce}
		}
	}
}
