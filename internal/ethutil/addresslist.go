package ethutil

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddressList parses hex addresses out of a single string, as used for
// the OWNER_ADDRESSES / MANAGER_ADDRESSES environment variables.
//
// Commas, semicolons, and any whitespace separate entries. Duplicates are
// dropped (first occurrence wins). Returns (nil, nil) for a blank input.
func ParseAddressList(raw string) ([]common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	parts := strings.FieldsFunc(trimmed, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\n', '\r', '\t':
			return true
		default:
			return false
		}
	})

	out := make([]common.Address, 0, len(parts))
	seen := make(map[common.Address]struct{}, len(parts))
	for _, part := range parts {
		s := strings.TrimSpace(part)
		if s == "" {
			continue
		}
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid hex address %q in %q", s, raw)
		}
		addr := common.HexToAddress(s)
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no addresses found in %q", raw)
	}
	return out, nil
}

// AddressSet builds a membership set from a slice of addresses.
func AddressSet(addrs []common.Address) map[common.Address]struct{} {
	out := make(map[common.Address]struct{}, len(addrs))
	for _, a := range addrs {
		out[a] = struct{}{}
	}
	return out
}
