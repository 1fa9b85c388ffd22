// File: internal/inspect/service.go
package inspect

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/geometry"
	"github.com/xkilldash9x/stylelens/internal/style"
)

// Precondition errors. The analysis functions themselves never fail; these guard the
// user-facing entry points.
var (
	ErrNoElements     = errors.New("no elements selected to validate")
	ErrNoProfile      = errors.New("please select a valid style profile from the list")
	ErrTooFewElements = errors.New("please select at least 2 elements")
)

// Service is the single entry point used by the CLI, the HTTP API and report generation.
type Service interface {
	ValidateStyles(snapshots []schemas.ElementSnapshot, profile *schemas.ExpectedProfile) ([]schemas.ElementValidation, error)
	Alignment(snapshots []schemas.ElementSnapshot) (*schemas.AlignmentReport, error)
	Spacing(snapshots []schemas.ElementSnapshot) (*schemas.PairReport, error)
	Inspect(req Request) (*schemas.InspectionReport, error)
}

// Sections selects which analyses Inspect runs.
type Sections struct {
	Validate  bool
	Alignment bool
	Spacing   bool
}

// AllSections enables every analysis.
func AllSections() Sections {
	return Sections{Validate: true, Alignment: true, Spacing: true}
}

// Request describes one inspection run.
type Request struct {
	Snapshots []schemas.ElementSnapshot
	Profile   *schemas.ExpectedProfile
	Source    string
	Sections  Sections
}

// service is the concrete implementation of Service.
type service struct {
	logger    *zap.Logger
	validator *style.Validator
	now       func() time.Time
}

// Option customizes the service.
type Option func(*service)

// WithClock replaces time.Now for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithValidator replaces the default style validator.
func WithValidator(v *style.Validator) Option {
	return func(s *service) { s.validator = v }
}

// NewService creates a new inspection service.
func NewService(logger *zap.Logger, opts ...Option) Service {
	s := &service{
		logger: logger.Named("inspect"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = style.NewValidator(logger, nil, nil)
	}
	return s
}

// ValidateStyles checks every snapshot against profile.
func (s *service) ValidateStyles(snapshots []schemas.ElementSnapshot, profile *schemas.ExpectedProfile) ([]schemas.ElementValidation, error) {
	if len(snapshots) == 0 {
		return nil, ErrNoElements
	}
	if profile == nil {
		return nil, ErrNoProfile
	}
	results := s.validator.ValidateAll(snapshots, profile)
	s.logger.Debug("Validated element styles.",
		zap.String("profile", profile.Name),
		zap.Int("elements", len(snapshots)),
		zap.Int("properties", profile.Len()))
	return results, nil
}

// Alignment measures every element against the first.
func (s *service) Alignment(snapshots []schemas.ElementSnapshot) (*schemas.AlignmentReport, error) {
	if len(snapshots) < 2 {
		return nil, fmt.Errorf("%w to validate alignment", ErrTooFewElements)
	}
	report := geometry.ValidateAlignment(snapshots)
	return &report, nil
}

// Spacing classifies consecutive pairs.
func (s *service) Spacing(snapshots []schemas.ElementSnapshot) (*schemas.PairReport, error) {
	if len(snapshots) < 2 {
		return nil, fmt.Errorf("%w to calculate spacing", ErrTooFewElements)
	}
	report := geometry.AnalyzePairs(snapshots)
	if report.Unpaired != nil {
		s.logger.Info("Odd number of elements, last element skipped.",
			zap.Int("position", report.Unpaired.Position+1))
	}
	return &report, nil
}

// Inspect runs the requested sections and bundles them into a report. Sections whose
// preconditions are not met are left out; only an empty selection is an error.
func (s *service) Inspect(req Request) (*schemas.InspectionReport, error) {
	if len(req.Snapshots) == 0 {
		return nil, ErrNoElements
	}

	report := &schemas.InspectionReport{
		ID:          uuid.New().String(),
		GeneratedAt: s.now().UTC(),
		Source:      req.Source,
		Elements:    req.Snapshots,
		Profile:     req.Profile,
	}
	if req.Profile != nil {
		report.ProfileName = req.Profile.Name
	}

	if req.Sections.Validate {
		validations, err := s.ValidateStyles(req.Snapshots, req.Profile)
		switch {
		case errors.Is(err, ErrNoProfile):
			s.logger.Debug("No profile selected, skipping style validation.")
		case err != nil:
			return nil, err
		default:
			report.Validations = validations
		}
	}

	if len(req.Snapshots) >= 2 {
		if req.Sections.Alignment {
			report.Alignment, _ = s.Alignment(req.Snapshots)
		}
		if req.Sections.Spacing {
			report.Spacing, _ = s.Spacing(req.Snapshots)
		}
	} else if req.Sections.Alignment || req.Sections.Spacing {
		s.logger.Debug("Single element selected, skipping geometry analysis.")
	}

	s.logger.Info("Inspection complete.",
		zap.String("report_id", report.ID),
		zap.Int("elements", len(report.Elements)),
		zap.Int("mismatches", report.Mismatches()),
		zap.Int("misaligned", report.Misaligned()))
	return report, nil
}
