package config

import (
	"fmt"

	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
)

// ValidateProfileStructure performs logical validation on a parsed profile,
// beyond what the JSON schema can express. It returns every problem found so
// the user can fix them in one pass.
func ValidateProfileStructure(p *Profile) []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, objerrors.NewValidationError("profile is missing required 'name' field", nil))
	}

	po := p.Options
	if po.MaxDepth < 0 {
		errs = append(errs, objerrors.NewValidationError("options.max_depth cannot be negative", nil))
	}
	if po.MaxObjectCount < 0 {
		errs = append(errs, objerrors.NewValidationError("options.max_object_count cannot be negative", nil))
	}
	if po.FloatTolerance != nil && *po.FloatTolerance < 0 {
		errs = append(errs, objerrors.NewValidationError("options.float_tolerance cannot be negative", nil))
	}
	if po.DecimalPrecision != nil && *po.DecimalPrecision < -1 {
		errs = append(errs, objerrors.NewValidationError("options.decimal_precision must be -1 (disabled) or non-negative", nil))
	}
	switch po.NullHandling {
	case "", "strict", "loose":
	default:
		errs = append(errs, objerrors.NewValidationError(
			fmt.Sprintf("options.null_handling must be 'strict' or 'loose', got '%s'", po.NullHandling), nil))
	}
	for i, m := range po.ExcludedMembers {
		if m == "" {
			errs = append(errs, objerrors.NewValidationError(
				fmt.Sprintf("options.excluded_members[%d] is empty", i), nil))
		}
	}

	seen := make(map[string]struct{}, len(p.Comparers))
	for i, b := range p.Comparers {
		if b.Type == "" {
			errs = append(errs, objerrors.NewValidationError(
				fmt.Sprintf("comparers[%d] is missing required 'type' field", i), nil))
		}
		if b.Comparer == "" {
			errs = append(errs, objerrors.NewValidationError(
				fmt.Sprintf("comparers[%d] is missing required 'comparer' field", i), nil))
		}
		if b.Type != "" {
			if _, dup := seen[b.Type]; dup {
				errs = append(errs, objerrors.NewValidationError(
					fmt.Sprintf("comparers[%d] binds type '%s' more than once", i, b.Type), nil))
			}
			seen[b.Type] = struct{}{}
		}
	}

	return errs
}
