package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// ABI encoding for the two payroll contract entry points. The contract
// surface is fixed, so the encoder covers exactly these signatures rather
// than pulling in a general-purpose ABI package:
//
//	balanceOf(address employer) view returns (uint256)
//	disburse(address employer, address[] workers, uint256[] amounts, uint256 total)

const wordSize = 32

var (
	balanceOfSelector = methodSelector("balanceOf(address)")
	disburseSelector  = methodSelector("disburse(address,address[],uint256[],uint256)")
)

func methodSelector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

func addressWord(addr string) ([]byte, error) {
	raw, err := addressBytes(addr)
	if err != nil {
		return nil, err
	}
	word := make([]byte, wordSize)
	copy(word[wordSize-len(raw):], raw)
	return word, nil
}

func uintWord(n *big.Int) ([]byte, error) {
	if n == nil || n.Sign() < 0 {
		return nil, fmt.Errorf("uintWord: value must be a non-negative integer")
	}
	raw := n.Bytes()
	if len(raw) > wordSize {
		return nil, fmt.Errorf("uintWord: value overflows uint256")
	}
	word := make([]byte, wordSize)
	copy(word[wordSize-len(raw):], raw)
	return word, nil
}

func encodeBalanceOf(employer string) (string, error) {
	word, err := addressWord(employer)
	if err != nil {
		return "", fmt.Errorf("encodeBalanceOf: %w", err)
	}
	data := append(append([]byte{}, balanceOfSelector...), word...)
	return "0x" + hex.EncodeToString(data), nil
}

// encodeDisburse produces selector + head (employer, two array offsets,
// total) + tail (length-prefixed arrays), per the contract ABI layout.
func encodeDisburse(employer string, workers []string, amounts []*big.Int, total *big.Int) (string, error) {
	if len(workers) != len(amounts) {
		return "", fmt.Errorf("encodeDisburse: %d workers but %d amounts", len(workers), len(amounts))
	}

	employerWord, err := addressWord(employer)
	if err != nil {
		return "", fmt.Errorf("encodeDisburse: employer: %w", err)
	}
	totalWord, err := uintWord(total)
	if err != nil {
		return "", fmt.Errorf("encodeDisburse: total: %w", err)
	}

	const headWords = 4
	workersOffset := headWords * wordSize
	amountsOffset := workersOffset + (1+len(workers))*wordSize

	head := make([]byte, 0, headWords*wordSize)
	head = append(head, employerWord...)
	head = appendOffset(head, workersOffset)
	head = appendOffset(head, amountsOffset)
	head = append(head, totalWord...)

	tail := make([]byte, 0, (2+len(workers)+len(amounts))*wordSize)
	tail = appendOffset(tail, len(workers))
	for i, w := range workers {
		word, err := addressWord(w)
		if err != nil {
			return "", fmt.Errorf("encodeDisburse: worker %d: %w", i, err)
		}
		tail = append(tail, word...)
	}
	tail = appendOffset(tail, len(amounts))
	for i, a := range amounts {
		word, err := uintWord(a)
		if err != nil {
			return "", fmt.Errorf("encodeDisburse: amount %d: %w", i, err)
		}
		tail = append(tail, word...)
	}

	data := make([]byte, 0, 4+len(head)+len(tail))
	data = append(data, disburseSelector...)
	data = append(data, head...)
	data = append(data, tail...)
	return "0x" + hex.EncodeToString(data), nil
}

func appendOffset(dst []byte, n int) []byte {
	word := make([]byte, wordSize)
	big.NewInt(int64(n)).FillBytes(word)
	return append(dst, word...)
}
