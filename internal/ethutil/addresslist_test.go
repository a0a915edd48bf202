package ethutil

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseAddressList(t *testing.T) {
	a := "0x1111111111111111111111111111111111111111"
	b := "0x2222222222222222222222222222222222222222"

	got, err := ParseAddressList(a + ", " + b + ";\n" + a)
	if err != nil {
		t.Fatalf("ParseAddressList: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 unique addresses, got %d", len(got))
	}
	if got[0] != common.HexToAddress(a) || got[1] != common.HexToAddress(b) {
		t.Fatalf("order/content mismatch: %v", got)
	}
}

func TestParseAddressList_Blank(t *testing.T) {
	got, err := ParseAddressList("   \n\t ")
	if err != nil {
		t.Fatalf("blank input should not error: %v", err)
	}
	if got != nil {
		t.Fatalf("blank input should yield nil, got %v", got)
	}
}

func TestParseAddressList_Invalid(t *testing.T) {
	if _, err := ParseAddressList("0x1111111111111111111111111111111111111111, nope"); err == nil {
		t.Fatalf("expected error for invalid entry")
	}
}

func TestAddressSet(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	set := AddressSet([]common.Address{a, a})
	if len(set) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(set))
	}
	if _, ok := set[a]; !ok {
		t.Fatalf("address missing from set")
	}
}
