// Package knowledge loads the reference tables (majors, courses and general
// questions) and answers lookups over them with ready-to-send Spanish text.
package knowledge

import (
	"github.com/go-playground/validator/v10"
)

// Course is one row of materias.csv.
type Course struct {
	Major        string `validate:"required"`
	Code         string
	Name         string `validate:"required"`
	Semester     string
	Hours        string
	Prerequisite string
}

// Major is one row of carreras.csv.
type Major struct {
	Name             string `validate:"required"`
	Code             string
	Description      string
	Duration         string
	AdmissionProfile string
	GraduateProfile  string
	Specialty        string
	DivisionHead     string
}

// GeneralQA is one row of general.csv.
type GeneralQA struct {
	Keyword  string `validate:"required"`
	Category string
	Answer   string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())
