package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// GenerateID generates a random hex ID
func GenerateID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CreateRunID derives a stable ID for an analyzed run from its directory and
// parameter fingerprint, so re-analyzing the same run maps to the same record.
func CreateRunID(runDirectory, fingerprint string) string {
	data := fmt.Sprintf("%s|%s", runDirectory, fingerprint)
	return crypto.Keccak256Hash([]byte(data)).Hex()
}

// ParseBlockHash converts the bare hex block hash printed by replicas into a
// 32-byte hash. Shorter inputs are left-padded.
func ParseBlockHash(raw string) (common.Hash, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if raw == "" {
		return common.Hash{}, fmt.Errorf("empty block hash")
	}
	if len(raw) > 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("block hash %q longer than %d bytes", raw, common.HashLength)
	}
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return common.Hash{}, fmt.Errorf("block hash %q is not hex: %w", raw, err)
	}
	return common.BytesToHash(b), nil
}

// FormatBlockHash renders a block hash without the 0x prefix, the way replicas log it
func FormatBlockHash(h common.Hash) string {
	return strings.TrimPrefix(h.Hex(), "0x")
}
