/*
forms.go - Explicit input validation with field-level errors

PURPOSE:
  Every write coming from the API is checked before it reaches a store.
  Failures are reported per field so a client can show them next to the
  offending input, instead of a single opaque message.

HOW IT WORKS:
  Request and domain structs carry `validate:"..."` tags. Validate() runs
  go-playground/validator over them and turns each failed tag into a
  readable message keyed by the field's json name. Rules that need more
  than one field (end >= start, "employee required unless all") are added
  by the caller with FieldErrors.Add.

  Date and decimal fields are presented to the validator as plain values
  (string and float64) so that `required`, `gte` and `lte` apply to them.

EXAMPLE:
  fe := forms.Validate(req)
  if req.End.Before(req.Start) {
      fe.Add("end_date", "must not be before start_date")
  }
  if err := fe.Err(); err != nil {
      return err // *FieldErrors, mapped to 422 by the API
  }

SEE ALSO:
  - payroll/validation.go: calculation and archival triggers
  - hr/validation.go: HR entity rules
*/
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Mohamedkandolo/Projet-RH/calendar"
)

// FieldErrors maps a json field name to a human message.
type FieldErrors map[string]string

// Add records msg for field, keeping the first message when called twice.
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

// Merge copies other into fe, optionally prefixing field names ("agent.name").
func (fe FieldErrors) Merge(prefix string, other FieldErrors) {
	for k, v := range other {
		if prefix != "" {
			k = prefix + "." + k
		}
		fe.Add(k, v)
	}
}

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns fe as an error, or nil when there is nothing to report.
func (fe FieldErrors) Err() error {
	if fe.Empty() {
		return nil
	}
	return fe
}

// AsFieldErrors extracts FieldErrors from an error chain.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// =============================================================================
// VALIDATOR
// =============================================================================

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report json names ("period_id") rather than Go names ("PeriodID").
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(calendar.Date); ok {
				return d.String()
			}
			return nil
		}, calendar.Date{})

		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})

		validate = v
	})
	return validate
}

// Validate checks v's struct tags and returns the failures, or an empty map.
func Validate(v any) FieldErrors {
	fe := FieldErrors{}
	err := instance().Struct(v)
	if err == nil {
		return fe
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.Add("_", err.Error())
		return fe
	}
	for _, e := range verrs {
		fe.Add(fieldPath(e), message(e))
	}
	return fe
}

// fieldPath drops the top-level struct name from the namespace
// ("CalculationRequest.period_id" -> "period_id").
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if", "required_unless", "required_without":
		return "this field is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "len":
		return "must be exactly " + e.Param() + " characters"
	case "uuid", "uuid4":
		return "must be a valid identifier"
	case "datetime":
		return "must be a date in format " + e.Param()
	case "eq":
		return "must be " + e.Param()
	case "nefield":
		return "must differ from " + e.Param()
	default:
		return "is invalid (" + e.Tag() + ")"
	}
}
