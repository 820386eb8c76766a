package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indica que un producto, o su historial de ventas, no existe.
// Es un resultado normal, no un fallo: los callers lo convierten en "not found".
var ErrNotFound = errors.New("not found")

// ErrValidation matchea con todo *ValidationError vía errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reporta input que nunca puede producir un resultado, p.ej. una
// fecha mal formada o un rango invertido. No tiene sentido reintentarlo.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is hace que errors.Is(err, ErrValidation) sea true para cualquier ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError construye un ValidationError.
func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ComputationError envuelve un fallo interno inesperado de un analizador,
// p.ej. una métrica que acabó en NaN por input numérico corrupto.
type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: computation failed: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
