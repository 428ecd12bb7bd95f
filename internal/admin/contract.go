package admin

import (
	"context"

	"github.com/StarryNift/starrynift-nft-box/internal/config"
	"github.com/StarryNift/starrynift-nft-box/internal/execution"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

func (s *Service) SetContractOwner(ctx context.Context, contractID, owner string) (*execution.Result, error) {
	if err := config.Require("PACKAGE_ID", s.contract.PackageID, "CONTRACT_ID", contractID); err != nil {
		return nil, err
	}
	addr, err := sui.NormalizeAddress(owner)
	if err != nil {
		return nil, err
	}
	return s.call(ctx, "admin", "set_contract_owner", contractID, addr)
}

// SetContractReceiver changes where box sale proceeds go.
func (s *Service) SetContractReceiver(ctx context.Context, contractID, receiver string) (*execution.Result, error) {
	if err := config.Require("PACKAGE_ID", s.contract.PackageID, "CONTRACT_ID", contractID); err != nil {
		return nil, err
	}
	addr, err := sui.NormalizeAddress(receiver)
	if err != nil {
		return nil, err
	}
	return s.call(ctx, "admin", "set_contract_receiver", contractID, addr)
}

// SetSignerPublicKey registers the ed25519 key the contract checks mint and open vouchers against.
func (s *Service) SetSignerPublicKey(ctx context.Context, publicKey []byte) (*execution.Result, error) {
	if err := s.requireContract(); err != nil {
		return nil, err
	}
	return s.call(ctx, "admin", "set_contract_signer_public_key", s.contract.ContractID, sui.PureBytes(publicKey))
}

func (s *Service) ToggleContractFreeze(ctx context.Context) (*execution.Result, error) {
	if err := s.requireContract(); err != nil {
		return nil, err
	}
	return s.call(ctx, "admin", "toggle_contract_freeze", s.contract.ContractID)
}

func (s *Service) requireContract() error {
	return config.Require("PACKAGE_ID", s.contract.PackageID, "CONTRACT_ID", s.contract.ContractID)
}
