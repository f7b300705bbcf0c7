// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"github.com/go-playground/validator/v10"
)

// validate is shared by every request type
var validate = validator.New(validator.WithRequiredStructEnabled())

func (r CreateResearchRequest) Validate() error {
	return validate.Struct(r)
}

func (p ResearchPatch) Validate() error {
	return validate.Struct(p)
}

func (r CreateExperimentRequest) Validate() error {
	return validate.Struct(r)
}

func (p ExperimentPatch) Validate() error {
	return validate.Struct(p)
}

func (r CreateComparisonRequest) Validate() error {
	return validate.Struct(r)
}

func (p Progress) Validate() error {
	return validate.Struct(p)
}

func (f Finalization) Validate() error {
	return validate.Struct(f)
}
