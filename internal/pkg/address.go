package pkg

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress validates a hex wallet address and returns its canonical
// lowercased form. All persistence and cache keys use the normalized form.
func NormalizeAddress(s string) (string, bool) {
	if !common.IsHexAddress(s) {
		return "", false
	}
	return strings.ToLower(common.HexToAddress(s).Hex()), true
}
