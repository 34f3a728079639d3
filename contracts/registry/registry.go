// Package registry carries the ABI surface of the VehicleRegistry contract
// that the reconciliation core reads from. Only the read-only methods the core
// calls are encoded here; transaction submission is out of scope.
package registry

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

// 4-byte method selectors, first four bytes of keccak256 of the canonical
// method signature. These are the standard ERC-721 selectors.
const (
	SelectorOwnerOf     = "6352211e" // ownerOf(uint256)
	SelectorTotalSupply = "18160ddd" // totalSupply()
)

const wordSize = 32

// OwnerOfCallData encodes an eth_call payload for ownerOf(tokenId).
func OwnerOfCallData(tokenID uint64) []byte {
	selector, _ := hex.DecodeString(SelectorOwnerOf)
	word := make([]byte, wordSize)
	new(big.Int).SetUint64(tokenID).FillBytes(word)
	return append(selector, word...)
}

// TotalSupplyCallData encodes an eth_call payload for totalSupply().
func TotalSupplyCallData() []byte {
	selector, _ := hex.DecodeString(SelectorTotalSupply)
	return selector
}

// DecodeAddress unpacks a single address return word into 0x-prefixed
// lowercase hex.
func DecodeAddress(ret []byte) (string, error) {
	if len(ret) != wordSize {
		return "", fmt.Errorf("decode address: expected %d bytes, got %d", wordSize, len(ret))
	}
	// address occupies the low-order 20 bytes of the word
	return "0x" + hex.EncodeToString(ret[12:]), nil
}

// DecodeUint64 unpacks a single uint256 return word. Values above the uint64
// range are rejected; token supplies in this registry never approach it.
func DecodeUint64(ret []byte) (uint64, error) {
	if len(ret) != wordSize {
		return 0, fmt.Errorf("decode uint256: expected %d bytes, got %d", wordSize, len(ret))
	}
	v := new(big.Int).SetBytes(ret)
	if !v.IsUint64() {
		return 0, fmt.Errorf("decode uint256: value exceeds uint64 range")
	}
	return v.Uint64(), nil
}
