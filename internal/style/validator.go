// internal/style/validator.go
package style

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
)

// ValidateElementStyles compares a captured StyleMap against an expected profile using the
// default schema and normalizer. Properties missing on the element are VerdictUnknown.
func ValidateElementStyles(actual schemas.StyleMap, expected *schemas.ExpectedProfile) schemas.ValidationResult {
	return validate(DefaultSchema, defaultNormalizer, actual, expected)
}

func validate(schema *Schema, n *Normalizer, actual schemas.StyleMap, expected *schemas.ExpectedProfile) schemas.ValidationResult {
	result := make(schemas.ValidationResult, expected.Len())
	for _, key := range expected.Keys() {
		actualRaw, ok := actual.Lookup(schema.CamelName(key))
		if !ok {
			result[key] = schemas.VerdictUnknown
			continue
		}
		expectedRaw, _ := expected.Get(key)
		result[key] = schemas.VerdictOf(n.Normalize(expectedRaw).Equal(n.Normalize(actualRaw)))
	}
	return result
}

// Validator runs profile validation over a captured selection.
type Validator struct {
	logger     *zap.Logger
	schema     *Schema
	normalizer *Normalizer
}

// NewValidator creates a validator. Nil schema or normalizer select the defaults.
func NewValidator(logger *zap.Logger, schema *Schema, normalizer *Normalizer) *Validator {
	if schema == nil {
		schema = DefaultSchema
	}
	if normalizer == nil {
		normalizer = defaultNormalizer
	}
	return &Validator{
		logger:     logger.Named("validator"),
		schema:     schema,
		normalizer: normalizer,
	}
}

// Validate compares one element.
func (v *Validator) Validate(actual schemas.StyleMap, expected *schemas.ExpectedProfile) schemas.ValidationResult {
	return validate(v.schema, v.normalizer, actual, expected)
}

// ValidateAll validates every snapshot against the same profile, preserving input order.
func (v *Validator) ValidateAll(snapshots []schemas.ElementSnapshot, expected *schemas.ExpectedProfile) []schemas.ElementValidation {
	out := make([]schemas.ElementValidation, 0, len(snapshots))
	for i, snap := range snapshots {
		res := v.Validate(snap.Styles, expected)
		summary := res.Summarize()
		if summary.Mismatched > 0 {
			v.logger.Debug("Element does not match profile.",
				zap.Int("position", i),
				zap.String("element", snap.Label()),
				zap.Int("mismatched", summary.Mismatched))
		}
		out = append(out, schemas.ElementValidation{
			Element:  snap.Identity,
			Position: i,
			Results:  res,
			Summary:  summary,
		})
	}
	return out
}
