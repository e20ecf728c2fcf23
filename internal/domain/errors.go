package domain

import "errors"

// Sentinel errors shared by every layer. Services wrap these with %w and
// detail; the HTTP adapter maps them to status codes.
var (
	// ErrNotFound indicates a template, supplier or contract id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a missing or malformed input field.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedDocumentFormat indicates an uploaded template could not be
	// read as text.
	ErrUnsupportedDocumentFormat = errors.New("unsupported document format")

	// ErrAlreadySigned indicates the party has already recorded its signature.
	ErrAlreadySigned = errors.New("already signed by this party")

	// ErrContractAlreadyFinal indicates the contract reached a state that
	// accepts no further signature writes.
	ErrContractAlreadyFinal = errors.New("contract is final")

	// ErrInvalidStateForDeletion indicates deletion was attempted on a
	// contract that left draft; those are kept for the audit trail.
	ErrInvalidStateForDeletion = errors.New("only draft contracts can be deleted")
)
