// pkg/cleaner/row.go
package cleaner

import (
	"errors"

	"github.com/northstar-data/retail-ingress/pkg/model"
	"github.com/northstar-data/retail-ingress/pkg/schema"
)

// RowValidator applies one record schema to single rows. Stateless and safe
// for concurrent use.
type RowValidator struct {
	schema *schema.Schema
}

// NewRowValidator creates a validator for the given schema.
func NewRowValidator(s *schema.Schema) (*RowValidator, error) {
	if s == nil {
		return nil, errors.New("schema cannot be nil")
	}
	return &RowValidator{schema: s}, nil
}

// ValidateRow evaluates every declared field in schema order and then the
// cross-field rules whose dependencies all normalized successfully. All
// failures for the row are captured in one pass, so a ValidationFailure
// lists every offending field, not just the first. Exactly one of the two
// return values is non-nil.
func (v *RowValidator) ValidateRow(rowID int, raw model.Record) (model.NormalizedRecord, *model.ValidationFailure) {
	normalized := make(model.NormalizedRecord, len(raw))
	var fieldErrs []model.FieldError
	failed := make(map[string]bool)

	for _, f := range v.schema.Fields() {
		value, present := raw[f.Name]

		if !present || value == nil {
			if f.Required {
				fieldErrs = append(fieldErrs, model.FieldError{
					Field:  f.Name,
					Raw:    value,
					Reason: "missing value",
				})
				failed[f.Name] = true
			}
			continue
		}

		out, err := f.Normalize(value)
		if err != nil {
			fieldErrs = append(fieldErrs, model.FieldError{
				Field:  f.Name,
				Raw:    value,
				Reason: err.Error(),
			})
			failed[f.Name] = true
			continue
		}
		normalized[f.Name] = out
	}

	for _, rule := range v.schema.Rules() {
		if !v.dependenciesSatisfied(rule, failed, normalized) {
			continue
		}
		if err := rule.Check(normalized, raw); err != nil {
			fieldErrs = append(fieldErrs, model.FieldError{
				Field:  rule.Field,
				Raw:    raw[rule.Field],
				Reason: err.Error(),
			})
		}
	}

	if len(fieldErrs) > 0 {
		return nil, &model.ValidationFailure{
			RowID:  rowID,
			Errors: fieldErrs,
			Raw:    raw,
		}
	}
	return normalized, nil
}

// dependenciesSatisfied reports whether every dependency of a cross-field
// rule normalized successfully. Rules never run on top of failed or absent
// dependency values.
func (v *RowValidator) dependenciesSatisfied(rule schema.CrossRule, failed map[string]bool, normalized model.NormalizedRecord) bool {
	for _, dep := range rule.DependsOn {
		if failed[dep] {
			return false
		}
		if _, ok := normalized[dep]; !ok {
			return false
		}
	}
	return true
}
