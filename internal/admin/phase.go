package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/StarryNift/starrynift-nft-box/internal/config"
	"github.com/StarryNift/starrynift-nft-box/internal/execution"
	"github.com/StarryNift/starrynift-nft-box/internal/sui"
)

// PhaseTimeLayout is how phase start times are written in config, in local time.
const PhaseTimeLayout = "2006-01-02 15:04:05"

// PhaseWindow resolves the configured start and duration into unix seconds.
func PhaseWindow(p config.Phase, now time.Time) (start, end uint64, err error) {
	begin := now
	if s := strings.TrimSpace(p.Start); s != "" {
		begin, err = time.ParseInLocation(PhaseTimeLayout, s, time.Local)
		if err != nil {
			return 0, 0, fmt.Errorf("phase start: %w", err)
		}
	}
	if begin.Unix() < 0 {
		return 0, 0, fmt.Errorf("phase start %s is before the epoch", begin)
	}
	start = uint64(begin.Unix())
	end = start + uint64(p.DurationDays)*86400
	return start, end, nil
}

func (s *Service) AddOrModifyPhaseConfig(ctx context.Context, phase uint8, allowPublicMint bool, start, end uint64) (*execution.Result, error) {
	if err := s.requirePhase(); err != nil {
		return nil, err
	}
	if end <= start {
		return nil, fmt.Errorf("phase %d: end %d is not after start %d", phase, end, start)
	}
	return s.call(ctx, "phase_config", "add_or_modify_phase_config",
		s.contract.PhaseID, s.contract.ContractID, phase, allowPublicMint, sui.U64(start), sui.U64(end))
}

func (s *Service) SetCurrentPhase(ctx context.Context, phase uint8) (*execution.Result, error) {
	if err := s.requirePhase(); err != nil {
		return nil, err
	}
	return s.call(ctx, "phase_config", "set_current_phase", s.contract.PhaseID, s.contract.ContractID, phase)
}

func (s *Service) requirePhase() error {
	return config.Require(
		"PACKAGE_ID", s.contract.PackageID,
		"CONTRACT_ID", s.contract.ContractID,
		"PHASE_ID", s.contract.PhaseID,
	)
}
