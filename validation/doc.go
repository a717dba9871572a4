// Package validation provides struct-tag and builder-style validation on top
// of go-playground/validator. Failures surface as *errors.AppError with
// per-field details, so configuration and request validation report the same
// shape everywhere.
package validation
