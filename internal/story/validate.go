package story

import (
	"fmt"

	"github.com/papapumpkin/palimpsest/internal/match"
)

// Validate checks a story for structural correctness: required fields,
// unique IDs, known references, well-formed rules and compilable selectors.
// It never stops at the first problem.
func Validate(s *Story) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]string) // id → source file
	for _, n := range s.Nodes {
		if n.ID == "" {
			errs = append(errs, ValidationError{
				Category:   ValCatMissingField,
				SourceFile: n.SourceFile,
				Field:      "id",
				Err:        fmt.Errorf("%w: id", ErrMissingField),
			})
			continue
		}
		if prev, ok := seen[n.ID]; ok {
			errs = append(errs, ValidationError{
				Category:   ValCatDuplicateID,
				NodeID:     n.ID,
				SourceFile: n.SourceFile,
				Err:        fmt.Errorf("%w: %q already defined in %s", ErrDuplicateID, n.ID, prev),
			})
		}
		seen[n.ID] = n.SourceFile

		if !ValidCharacters[n.Character] {
			errs = append(errs, ValidationError{
				Category:   ValCatInvalidCharacter,
				NodeID:     n.ID,
				SourceFile: n.SourceFile,
				Field:      "character",
				Err:        fmt.Errorf("%w: %q", ErrInvalidCharacter, n.Character),
			})
		}
		if n.Source == "" {
			errs = append(errs, ValidationError{
				Category:   ValCatEmptySource,
				NodeID:     n.ID,
				SourceFile: n.SourceFile,
				Err:        ErrEmptySource,
			})
		}
	}

	if start := s.Manifest.Story.Start; start != "" {
		if _, ok := seen[start]; !ok {
			errs = append(errs, ValidationError{
				Category:   ValCatUnknownNode,
				SourceFile: ManifestFile,
				Field:      "story.start",
				Err:        fmt.Errorf("%w: start node %q", ErrUnknownNode, start),
			})
		}
	}

	for _, n := range s.Nodes {
		if n.ID == "" {
			continue
		}
		errs = append(errs, validateReferences(n, seen)...)
		errs = append(errs, validateRules(n)...)
	}

	return errs
}

// validateReferences checks that links and journey variant paths name known nodes.
func validateReferences(n *Node, known map[string]string) []ValidationError {
	var errs []ValidationError
	for _, link := range n.Links {
		if _, ok := known[link]; !ok {
			errs = append(errs, ValidationError{
				Category:   ValCatUnknownNode,
				NodeID:     n.ID,
				SourceFile: n.SourceFile,
				Field:      "links",
				Err:        fmt.Errorf("%w: link to %q", ErrUnknownNode, link),
			})
		}
	}
	for i, jv := range n.JourneyVariants {
		field := fmt.Sprintf("journey_variants[%d]", i)
		if jv.Section == "" || len(jv.Path) == 0 {
			errs = append(errs, ValidationError{
				Category:   ValCatMissingField,
				NodeID:     n.ID,
				SourceFile: n.SourceFile,
				Field:      field,
				Err:        fmt.Errorf("%w: section and path", ErrMissingField),
			})
			continue
		}
		for _, id := range jv.Path {
			if _, ok := known[id]; !ok {
				errs = append(errs, ValidationError{
					Category:   ValCatUnknownNode,
					NodeID:     n.ID,
					SourceFile: n.SourceFile,
					Field:      field,
					Err:        fmt.Errorf("%w: path references %q", ErrUnknownNode, id),
				})
			}
		}
	}
	return errs
}

// validateRules checks every rule's condition tree and transformations.
func validateRules(n *Node) []ValidationError {
	var errs []ValidationError
	for _, r := range n.Rules {
		field := "rules." + r.ID
		if err := validateCondition(r.Condition); err != nil {
			errs = append(errs, ValidationError{
				Category:   ValCatInvalidRule,
				NodeID:     n.ID,
				SourceFile: n.SourceFile,
				Field:      field + ".condition",
				Err:        err,
			})
		}
		for i, t := range r.Transformations {
			if err := ValidateTransformation(t); err != nil {
				errs = append(errs, ValidationError{
					Category:   ValCatInvalidRule,
					NodeID:     n.ID,
					SourceFile: n.SourceFile,
					Field:      fmt.Sprintf("%s.transformations[%d]", field, i),
					Err:        err,
				})
			}
		}
	}
	return errs
}

// validateCondition walks a condition tree and reports the first malformed node.
func validateCondition(c Condition) error {
	switch c.Kind() {
	case KindEmpty:
		return fmt.Errorf("%w: no predicate set", ErrInvalidCondition)
	case KindMalformed:
		return fmt.Errorf("%w: more than one predicate set", ErrInvalidCondition)
	case KindAllOf:
		for _, sub := range c.AllOf {
			if err := validateCondition(sub); err != nil {
				return err
			}
		}
	case KindAnyOf:
		for _, sub := range c.AnyOf {
			if err := validateCondition(sub); err != nil {
				return err
			}
		}
	case KindNot:
		return validateCondition(*c.Not)
	case KindJourneyFingerprint:
		if c.JourneyFingerprint.IsZero() {
			return fmt.Errorf("%w: journey_fingerprint needs at least one field", ErrInvalidCondition)
		}
	case KindVisitCount:
		return validateOp("visit_count", c.VisitCount.Op)
	case KindTemporalPosition:
		return validateOp("temporal_position", c.TemporalPosition.Op)
	case KindEndpointProgress:
		return validateOp("endpoint_progress", c.EndpointProgress.Op)
	case KindCharacterBleed:
		cb := c.CharacterBleed
		if (cb.From != "" && !ValidCharacters[cb.From]) || (cb.To != "" && !ValidCharacters[cb.To]) {
			return fmt.Errorf("%w: character_bleed names unknown character", ErrInvalidCondition)
		}
	}
	return nil
}

func validateOp(predicate string, op Comparison) error {
	if !op.Valid() {
		return fmt.Errorf("%w: %s has unknown op %q", ErrInvalidCondition, predicate, op)
	}
	return nil
}

// ValidateTransformation checks a single transformation's type, priority,
// intensity and selector.
func ValidateTransformation(t TextTransformation) error {
	if !ValidTransformationTypes[t.Type] {
		return fmt.Errorf("%w: type %q", ErrInvalidTransformation, t.Type)
	}
	switch t.Priority {
	case "", PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return fmt.Errorf("%w: priority %q", ErrInvalidTransformation, t.Priority)
	}
	if t.Intensity < 0 || t.Intensity > 5 {
		return fmt.Errorf("%w: intensity %d outside 1..5", ErrInvalidTransformation, t.Intensity)
	}
	if _, err := match.Compile(t.Selector); err != nil {
		return fmt.Errorf("%w: selector %q: %v", ErrInvalidTransformation, t.Selector, err)
	}
	return nil
}
