package forms

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"student-form-backend/internal/apperrors"
	"student-form-backend/internal/parse"
	"student-form-backend/internal/store"
)

// MotivationMinLength is the minimum motivation length in characters.
const MotivationMinLength = 100

// Input is the editable part of a form as submitted by a client.
type Input struct {
	FirstName  string `json:"nume" validate:"required"`
	LastName   string `json:"prenume" validate:"required"`
	Faculty    string `json:"facultate" validate:"required"`
	Motivation string `json:"motivatie" validate:"required,min=100"`
}

// Normalize trims every field. Names and faculty also collapse inner
// whitespace runs; the motivation keeps its line breaks.
func (in Input) Normalize() Input {
	return Input{
		FirstName:  parse.Name(in.FirstName),
		LastName:   parse.Name(in.LastName),
		Faculty:    parse.Name(in.Faculty),
		Motivation: parse.Paragraphs(in.Motivation),
	}
}

// Fields converts the input to the columns written by an update.
func (in Input) Fields() store.FormFields {
	return store.FormFields{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Faculty:    in.Faculty,
		Motivation: in.Motivation,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var messages = map[string]map[string]string{
	"nume":      {"required": "Numele este obligatoriu"},
	"prenume":   {"required": "Prenumele este obligatoriu"},
	"facultate": {"required": "Facultatea este obligatorie"},
	"motivatie": {
		"required": "Motivația este obligatorie",
		"min":      "Motivația trebuie să conțină minim 100 caractere",
	},
}

// Validate checks an already normalised input. It returns a
// *apperrors.ValidationError keyed by JSON field name, or nil.
func Validate(in Input) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = message(fe)
	}
	return apperrors.NewValidationError(fields)
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()][fe.Tag()]; ok {
		return msg
	}
	return fe.Field() + " is invalid"
}
