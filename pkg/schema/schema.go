// pkg/schema/schema.go
package schema

import (
	"github.com/northstar-data/retail-ingress/pkg/model"
	"github.com/northstar-data/retail-ingress/pkg/normalize"
)

// Kind identifies one of the business record kinds handled by the pipeline.
type Kind string

const (
	KindUser          Kind = "user"
	KindPayment       Kind = "payment"
	KindStore         Kind = "store"
	KindProduct       Kind = "product"
	KindOrder         Kind = "order"
	KindDateDimension Kind = "date_dimension"
)

// Field declares one column of a record kind: its normalizer and whether
// the column must be present in every input batch.
type Field struct {
	Name      string
	Normalize normalize.Func
	Required  bool
}

// CrossRule is a validation that depends on more than one field of the same
// row. It runs only after every field in DependsOn normalized successfully,
// and a failure is recorded against Field.
type CrossRule struct {
	Name      string
	Field     string
	DependsOn []string
	// Check receives the normalized values for DependsOn fields and the
	// original raw record. A non-nil error marks the row invalid.
	Check func(normalized map[string]interface{}, raw model.Record) error
}

// Schema is the immutable per-kind declaration of fields and cross-field
// rules. Safe to share across concurrent row evaluations.
type Schema struct {
	kind   Kind
	fields []Field
	rules  []CrossRule
	byName map[string]int
}

// New constructs a schema and verifies that every field referenced by a
// cross-field rule is declared. A dangling reference is a configuration
// error, never a per-row outcome.
func New(kind Kind, fields []Field, rules ...CrossRule) (*Schema, error) {
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		byName[f.Name] = i
	}

	for _, r := range rules {
		if _, ok := byName[r.Field]; !ok {
			return nil, model.NewSchemaConfigurationError(string(kind),
				"cross-field rule %q targets undeclared field %q", r.Name, r.Field)
		}
		for _, dep := range r.DependsOn {
			if _, ok := byName[dep]; !ok {
				return nil, model.NewSchemaConfigurationError(string(kind),
					"cross-field rule %q depends on undeclared field %q", r.Name, dep)
			}
		}
	}

	return &Schema{
		kind:   kind,
		fields: fields,
		rules:  rules,
		byName: byName,
	}, nil
}

// MustNew is New for the built-in schemas, which are known valid.
func MustNew(kind Kind, fields []Field, rules ...CrossRule) *Schema {
	s, err := New(kind, fields, rules...)
	if err != nil {
		panic(err)
	}
	return s
}

// Kind returns the record kind this schema describes.
func (s *Schema) Kind() Kind {
	return s.kind
}

// Fields returns the declared fields in evaluation order.
func (s *Schema) Fields() []Field {
	return s.fields
}

// Rules returns the declared cross-field rules.
func (s *Schema) Rules() []CrossRule {
	return s.rules
}

// Field looks up a declared field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// RequiredColumns returns the names of every required field.
func (s *Schema) RequiredColumns() []string {
	var cols []string
	for _, f := range s.fields {
		if f.Required {
			cols = append(cols, f.Name)
		}
	}
	return cols
}
