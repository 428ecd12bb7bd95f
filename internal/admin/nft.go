package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// NFT template categories in the metadata file. Anything else is a blank coupon that cannot be minted.
const (
	CategoryAvatar = 1
	CategorySpace  = 2
	CategoryCoupon = 3
)

// MetadataRecord is one entry of the NFT metadata file.
type MetadataRecord struct {
	Name        string `json:"name"`
	Category    int    `json:"category"`
	Description string `json:"description"`
	Amount      uint64 `json:"amount,omitempty"`
	Rarity      string `json:"rarity"`
	AssetID     string `json:"assetId,omitempty"`
	SceneID     uint8  `json:"sceneId,omitempty"`
	Image       string `json:"image"`
}

// CreatedItem is written out after templates are created. ObjectID is empty when creation failed.
type CreatedItem struct {
	Name     string `json:"name"`
	ObjectID string `json:"objectId"`
	Category int    `json:"category"`
	Rarity   string `json:"rarity"`
}

// LoadMetadata reads the metadata list from a JSON file.
func LoadMetadata(path string) ([]MetadataRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var out []MetadataRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", path, err)
	}
	return out, nil
}

// SaveCreated writes created template ids as indented JSON.
func SaveCreated(path string, items []CreatedItem) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// CreateAvatarNFTConfig creates an avatar template and returns its id.
func (s *Service) CreateAvatarNFTConfig(ctx context.Context, rec MetadataRecord, canMint bool) (string, error) {
	return s.createNFTConfig(ctx, "create_avatar_nft_config", rec.Name,
		rec.Name, rec.Description, rec.Image, canMint, rec.AssetID)
}

func (s *Service) CreateSpaceNFTConfig(ctx context.Context, rec MetadataRecord, canMint bool) (string, error) {
	return s.createNFTConfig(ctx, "create_space_nft_config", rec.Name,
		rec.Name, rec.Description, rec.Image, canMint, rec.SceneID)
}

// CreateCouponNFTConfig creates a coupon worth amount whole SUI.
func (s *Service) CreateCouponNFTConfig(ctx context.Context, rec MetadataRecord, amount uint64, canMint bool) (string, error) {
	return s.createNFTConfig(ctx, "create_coupon_nft_config", rec.Name,
		rec.Name, rec.Description, rec.Image, canMint, "SUI", sui.U64(amount))
}

func (s *Service) createNFTConfig(ctx context.Context, function, name string, args ...any) (string, error) {
	if err := s.requireContract(); err != nil {
		return "", err
	}
	res, err := s.call(ctx, "nft_config", function, append([]any{s.contract.ContractID}, args...)...)
	if err != nil {
		return "", err
	}
	id := res.FirstCreated()
	if id == "" {
		return "", fmt.Errorf("%s for %q created no object", function, name)
	}
	return id, nil
}

// AddNFTItems creates one template per record and returns what was created, in input order.
// A failed item is kept with an empty object id so the output lines up with the input.
func (s *Service) AddNFTItems(ctx context.Context, records []MetadataRecord) ([]CreatedItem, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if err := s.requireContract(); err != nil {
		return nil, err
	}

	created := make([]CreatedItem, 0, len(records))
	for _, rec := range records {
		if s.itemPause > 0 {
			select {
			case <-time.After(s.itemPause):
			case <-ctx.Done():
				return created, ctx.Err()
			}
		}

		var (
			id  string
			err error
		)
		switch rec.Category {
		case CategoryAvatar:
			id, err = s.CreateAvatarNFTConfig(ctx, rec, true)
		case CategorySpace:
			id, err = s.CreateSpaceNFTConfig(ctx, rec, true)
		case CategoryCoupon:
			id, err = s.CreateCouponNFTConfig(ctx, rec, rec.Amount, true)
		default:
			id, err = s.CreateCouponNFTConfig(ctx, rec, 0, false)
		}
		if err != nil {
			if ctx.Err() != nil {
				return created, ctx.Err()
			}
			s.log.Warn().Err(err).Str("name", rec.Name).Int("category", rec.Category).Msg("nft template not created")
		}
		created = append(created, CreatedItem{Name: rec.Name, ObjectID: id, Category: rec.Category, Rarity: rec.Rarity})

		if snapshot, mErr := json.Marshal(created); mErr == nil {
			s.log.Info().RawJSON("created", snapshot).Msg("nft templates so far")
		}
	}
	return created, nil
}
