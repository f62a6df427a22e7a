package domain

import "strings"

// AssetRef identifies a single non-fungible asset: the collection contract plus the token id
// (a base-10 unsigned integer, kept as a string so 256-bit ids survive).
type AssetRef struct {
	Contract string `json:"asset_contract"`
	TokenID  string `json:"asset_id"`
}

// NewAssetRef normalizes the contract address so lookups are case-insensitive, and drops
// leading zeros from the token id so "07" and "7" name the same asset.
func NewAssetRef(contract, tokenID string) AssetRef {
	return AssetRef{Contract: NormalizeAddress(contract), TokenID: canonicalTokenID(tokenID)}
}

func canonicalTokenID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}
	if trimmed := strings.TrimLeft(id, "0"); trimmed != "" {
		return trimmed
	}
	return "0"
}

func (a AssetRef) String() string {
	return a.Contract + "/" + a.TokenID
}

// NormalizeAddress lower-cases and trims an account or contract address.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
