package story

import "errors"

// Sentinel errors for story loading and validation.
var (
	// ErrNoManifest indicates no story.toml was found in the story directory.
	ErrNoManifest = errors.New("story.toml not found in story directory")
	// ErrDuplicateID indicates two or more nodes share the same ID.
	ErrDuplicateID = errors.New("duplicate node ID")
	// ErrUnknownNode indicates a reference to a node ID that does not exist.
	ErrUnknownNode = errors.New("unknown node ID")
	// ErrMissingField indicates a required field (e.g. id, character) is empty.
	ErrMissingField = errors.New("required field missing")
	// ErrInvalidCharacter indicates an unrecognized character value.
	ErrInvalidCharacter = errors.New("invalid character")
	// ErrInvalidCondition indicates a rule condition with zero or several predicates set.
	ErrInvalidCondition = errors.New("invalid condition")
	// ErrInvalidTransformation indicates a transformation with a bad type, priority, or selector.
	ErrInvalidTransformation = errors.New("invalid transformation")
	// ErrEmptySource indicates a node whose body is empty.
	ErrEmptySource = errors.New("node has no content")
)

// ValidationCategory classifies a validation error for programmatic handling.
type ValidationCategory string

const (
	// ValCatMissingField indicates a required field is empty.
	ValCatMissingField ValidationCategory = "missing_field"
	// ValCatDuplicateID indicates two or more nodes share the same ID.
	ValCatDuplicateID ValidationCategory = "duplicate_id"
	// ValCatUnknownNode indicates a link, variant path, or start references a missing node.
	ValCatUnknownNode ValidationCategory = "unknown_node"
	// ValCatInvalidCharacter indicates an unrecognized character.
	ValCatInvalidCharacter ValidationCategory = "invalid_character"
	// ValCatInvalidRule indicates a malformed condition or transformation.
	ValCatInvalidRule ValidationCategory = "invalid_rule"
	// ValCatEmptySource indicates a node with no body text.
	ValCatEmptySource ValidationCategory = "empty_source"
)

// ValidationError records a validation problem with source context.
type ValidationError struct {
	Category   ValidationCategory
	NodeID     string
	SourceFile string
	Field      string
	Err        error
}

// Error returns a human-readable string including source file and node context.
func (e *ValidationError) Error() string {
	if e.NodeID != "" {
		return e.SourceFile + ": node " + e.NodeID + ": " + e.Err.Error()
	}
	return e.SourceFile + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
