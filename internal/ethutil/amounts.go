package ethutil

import (
	"fmt"
	"math/big"
	"strings"
)

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ParseWei parses a non-negative integer wei amount from its decimal string.
func ParseWei(s string) (*big.Int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("empty wei amount")
	}
	v, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative wei amount %q", s)
	}
	return v, nil
}

// FormatEther renders a wei amount as a decimal ether string for logs,
// trimming trailing zeros ("0.0005", "1", "12.25").
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	whole, frac := new(big.Int).QuoRem(wei, weiPerEther, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}
	digits := strings.TrimRight(fmt.Sprintf("%018s", frac.String()), "0")
	return whole.String() + "." + digits
}
