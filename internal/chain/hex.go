package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// EncodeBig renders a quantity as the 0x-prefixed minimal hex form the
// JSON-RPC wire format expects.
func EncodeBig(n *big.Int) string {
	if n == nil || n.Sign() == 0 {
		return "0x0"
	}
	return "0x" + n.Text(16)
}

func EncodeUint64(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

func DecodeBig(s string) (*big.Int, error) {
	raw, ok := strings.CutPrefix(s, "0x")
	if !ok || raw == "" {
		return nil, fmt.Errorf("DecodeBig: not a hex quantity: %q", s)
	}
	n, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return nil, fmt.Errorf("DecodeBig: not a hex quantity: %q", s)
	}
	return n, nil
}

func DecodeUint64(s string) (uint64, error) {
	n, err := DecodeBig(s)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("DecodeUint64: quantity overflows uint64: %q", s)
	}
	return n.Uint64(), nil
}

// IsHexAddress reports whether s is a 0x-prefixed 20-byte hex account
// identifier. Checksum casing is not enforced.
func IsHexAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

func addressBytes(addr string) ([]byte, error) {
	if !IsHexAddress(addr) {
		return nil, fmt.Errorf("addressBytes: malformed address %q", addr)
	}
	return hex.DecodeString(addr[2:])
}
