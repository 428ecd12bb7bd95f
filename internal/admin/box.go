package admin

import (
	"context"
	"errors"

	"github.com/StarryNift/starrynift-nft-box/internal/config"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// CreateBoxConfig creates a box config for phase and returns its object id. The box opens immediately.
func (s *Service) CreateBoxConfig(ctx context.Context, phase uint8, priceMist uint64) (string, error) {
	if err := s.requireContract(); err != nil {
		return "", err
	}
	if err := s.requireBox(); err != nil {
		return "", err
	}
	res, err := s.call(ctx, "box_config", "create_box_config",
		s.contract.ContractID,
		phase,
		s.box.Name,
		s.box.Description,
		s.box.Image,
		sui.U64(priceMist),
		sui.U64(unixCeil(s.now())),
	)
	if err != nil {
		return "", err
	}
	id := res.FirstCreated()
	if id == "" {
		return "", errors.New("create_box_config created no object")
	}
	s.log.Info().Str("box_config_id", id).Uint8("phase", phase).Uint64("price_mist", priceMist).Msg("box config created")
	return id, nil
}

// ModifyBoxConfig rewrites an existing box config in place.
func (s *Service) ModifyBoxConfig(ctx context.Context, boxConfigID string, phase uint8, priceMist uint64) error {
	if err := config.Require("PACKAGE_ID", s.contract.PackageID, "CONTRACT_ID", s.contract.ContractID, "BOX_CONFIG_ID", boxConfigID); err != nil {
		return err
	}
	if err := s.requireBox(); err != nil {
		return err
	}
	_, err := s.call(ctx, "box_config", "modify_box_config",
		boxConfigID,
		s.contract.ContractID,
		phase,
		s.box.Name,
		s.box.Description,
		s.box.Image,
		sui.U64(priceMist),
		sui.U64(unixCeil(s.now())),
	)
	return err
}

func (s *Service) requireBox() error {
	if s.box.Name == "" || s.box.Image == "" {
		return errors.New("box name and image must be configured")
	}
	return nil
}
