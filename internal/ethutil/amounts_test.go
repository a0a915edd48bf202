package ethutil

import (
	"math/big"
	"testing"
)

func TestParseWei(t *testing.T) {
	v, err := ParseWei(" 500000000000000 ")
	if err != nil {
		t.Fatalf("ParseWei: %v", err)
	}
	if got, want := v.String(), "500000000000000"; got != want {
		t.Fatalf("value mismatch: got %s want %s", got, want)
	}

	for _, bad := range []string{"", "abc", "-5", "1.5"} {
		if _, err := ParseWei(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestFormatEther(t *testing.T) {
	ether := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	cases := []struct {
		wei  *big.Int
		want string
	}{
		{nil, "0"},
		{big.NewInt(0), "0"},
		{ether, "1"},
		{big.NewInt(500_000_000_000_000), "0.0005"},
		{new(big.Int).Add(new(big.Int).Mul(big.NewInt(12), ether), new(big.Int).Div(ether, big.NewInt(4))), "12.25"},
	}
	for _, tc := range cases {
		if got := FormatEther(tc.wei); got != tc.want {
			t.Fatalf("FormatEther(%v): got %s want %s", tc.wei, got, tc.want)
		}
	}
}
