package admin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// DeployInfo collects the ids a publish transaction created.
type DeployInfo struct {
	PackageID         string
	CollectionID      string
	ContractID        string
	UpgradeCap        string
	PhaseID           string
	AvatarMintCap     string
	SpaceMintCap      string
	CouponMintCap     string
	MysteryBoxMintCap string
	BoxInfoID         string
}

var (
	avatarCapType     = regexp.MustCompile(`0x[0-9a-fA-F]+::mint_cap::MintCap<0x[0-9a-fA-F]+::box_nft::AvatarNFT>`)
	spaceCapType      = regexp.MustCompile(`0x[0-9a-fA-F]+::mint_cap::MintCap<0x[0-9a-fA-F]+::box_nft::SpaceNFT>`)
	couponCapType     = regexp.MustCompile(`0x[0-9a-fA-F]+::mint_cap::MintCap<0x[0-9a-fA-F]+::box_nft::CouponNFT>`)
	mysteryBoxCapType = regexp.MustCompile(`0x[0-9a-fA-F]+::mint_cap::MintCap<0x[0-9a-fA-F]+::box_nft::MysteryBox>`)
	boxInfoType       = regexp.MustCompile(`0x[0-9a-fA-F]+::box_nft::BoxInfo`)
)

// FetchDeployInfo reads the publish transaction digest and picks out the package and created objects.
func (s *Service) FetchDeployInfo(ctx context.Context, digest string) (*DeployInfo, error) {
	if s.reader == nil {
		return nil, errors.New("no chain reader configured")
	}
	tx, err := s.reader.GetTransactionBlock(ctx, digest, sui.FullTransactionOptions)
	if err != nil {
		return nil, err
	}
	info, err := ParseDeployInfo(tx.ObjectChanges)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", digest, err)
	}
	return info, nil
}

// ParseDeployInfo extracts deployment ids from object changes. The first match wins.
func ParseDeployInfo(changes []sui.ObjectChange) (*DeployInfo, error) {
	info := &DeployInfo{}
	for _, c := range changes {
		if c.Type == "published" && info.PackageID == "" {
			info.PackageID = c.PackageID
		}
	}
	if info.PackageID == "" {
		return nil, errors.New("no published package in object changes")
	}

	contains := func(sub string) func(string) bool {
		return func(t string) bool { return strings.Contains(t, sub) }
	}
	pick := func(dst *string, match func(string) bool) {
		for _, c := range changes {
			if c.Type == "created" && match(c.ObjectType) {
				*dst = c.ObjectID
				return
			}
		}
	}
	pick(&info.CollectionID, contains("::Collection"))
	pick(&info.ContractID, contains("::Contract"))
	pick(&info.UpgradeCap, contains("::UpgradeCap"))
	pick(&info.PhaseID, contains("::Phase"))
	pick(&info.AvatarMintCap, avatarCapType.MatchString)
	pick(&info.SpaceMintCap, spaceCapType.MatchString)
	pick(&info.CouponMintCap, couponCapType.MatchString)
	pick(&info.MysteryBoxMintCap, mysteryBoxCapType.MatchString)
	pick(&info.BoxInfoID, boxInfoType.MatchString)
	return info, nil
}

// EnvLines renders the ids as KEY=value lines ready to paste into .env. Missing ids are skipped.
func (d *DeployInfo) EnvLines() string {
	pairs := [][2]string{
		{"PACKAGE_ID", d.PackageID},
		{"COLLECTION_ID", d.CollectionID},
		{"CONTRACT_ID", d.ContractID},
		{"UPGRADE_CAP", d.UpgradeCap},
		{"PHASE_ID", d.PhaseID},
		{"AVATAR_MINT_CAP", d.AvatarMintCap},
		{"SPACE_MINT_CAP", d.SpaceMintCap},
		{"COUPON_MINT_CAP", d.CouponMintCap},
		{"MYSTERY_BOX_MINT_CAP", d.MysteryBoxMintCap},
		{"BOX_INFO_ID", d.BoxInfoID},
	}
	var b strings.Builder
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(p[1])
		b.WriteByte('\n')
	}
	return b.String()
}

// QueryObject fetches an object with its type and content.
func (s *Service) QueryObject(ctx context.Context, objectID string) (*sui.ObjectData, error) {
	if s.reader == nil {
		return nil, errors.New("no chain reader configured")
	}
	resp, err := s.reader.GetObject(ctx, objectID, sui.ObjectDataOptions{ShowType: true, ShowContent: true})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("object %s: no data", objectID)
	}
	return resp.Data, nil
}
