package nostr

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/bech32"
)

// NpubPrefix is the bech32 human-readable part of public keys
const NpubPrefix = "npub"

// EncodeNpub converts a 32-byte hex public key to its npub form
func EncodeNpub(pubKey string) (string, error) {
	raw, err := hex.DecodeString(pubKey)
	if err != nil {
		return "", fmt.Errorf("invalid public key %q: %w", pubKey, err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("invalid public key %q: expected 32 bytes, got %d", pubKey, len(raw))
	}

	data, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert public key: %w", err)
	}

	npub, err := bech32.Encode(NpubPrefix, data)
	if err != nil {
		return "", fmt.Errorf("failed to encode npub: %w", err)
	}
	return npub, nil
}
