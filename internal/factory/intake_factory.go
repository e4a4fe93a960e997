package factory

import (
	"errors"

	"github.com/mikey/fraudguard/internal/adapters/intake"
	"github.com/mikey/fraudguard/internal/bus"
	"github.com/mikey/fraudguard/internal/config"
	"github.com/mikey/fraudguard/internal/extractor"
	"github.com/mikey/fraudguard/internal/ports"
	"github.com/mikey/fraudguard/internal/trust"
	"go.uber.org/zap"
)

// ErrIntakeDisabled is returned by CreateIntake when intake.enabled is false
var ErrIntakeDisabled = errors.New("intake disabled")

// IntakeFactory creates mail intakes based on configuration
type IntakeFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	requester *bus.Requester
	extractor *extractor.Extractor
}

// NewIntakeFactory creates a new intake factory
func NewIntakeFactory(cfg *config.Config, logger *zap.Logger, requester *bus.Requester, ex *extractor.Extractor) *IntakeFactory {
	return &IntakeFactory{
		cfg:       cfg,
		logger:    logger,
		requester: requester,
		extractor: ex,
	}
}

// CreateIntake creates the SMTP intake
func (f *IntakeFactory) CreateIntake() (ports.Intake, error) {
	intakeCfg, err := f.cfg.GetIntake()
	if err != nil {
		return nil, err
	}
	if !intakeCfg.Enabled {
		return nil, ErrIntakeDisabled
	}

	return intake.NewSMTPIntake(
		f.requester,
		f.extractor,
		trust.NewChecker(intakeCfg.TrustedDomains, f.logger),
		intakeCfg,
		f.logger,
	), nil
}
