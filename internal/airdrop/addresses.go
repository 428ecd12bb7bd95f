package airdrop

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// LoadAddresses reads recipients from a JSON array or a newline separated list.
// Blank lines and # comments are ignored, addresses are normalized and deduplicated in order.
func LoadAddresses(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read address list: %w", err)
	}
	var entries []string
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("decode address list %s: %w", path, err)
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(raw))
		for scanner.Scan() {
			entries = append(entries, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}
	return normalizeList(entries)
}

func normalizeList(entries []string) ([]string, error) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		addr, err := sui.NormalizeAddress(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out, nil
}
