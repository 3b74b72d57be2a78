package services

import "fmt"

// ValidationError bündelt fachliche Validierungsfehler als Map Feld -> Meldung.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d invalid field(s)", len(e.Fields))
}

// NewValidationError erstellt einen ValidationError für ein einzelnes Feld.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NotFoundError signalisiert, dass die referenzierte Entität nicht existiert.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Ref)
}

// ConflictError signalisiert eine beim Insert verbliebene Slug-Kollision
// (Race zwischen Existenz-Check und Insert). Der Aufruf kann wiederholt werden.
type ConflictError struct {
	Entity string
	Slug   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s slug conflict: %s", e.Entity, e.Slug)
}

// ForbiddenError signalisiert einen Zugriff auf ein privates Profil durch
// einen fremden User.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}
