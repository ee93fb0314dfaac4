package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/edupath/learning-service/internal/models"
)

// registerBusinessRules registers custom business rule validators
func (v *Validator) registerBusinessRules() {
	// Question options: 2-10 entries, each non-blank, pairwise unique
	v.validate.RegisterValidation("question_options", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Slice {
			return false
		}

		options := make([]string, 0, field.Len())
		for i := 0; i < field.Len(); i++ {
			options = append(options, field.Index(i).String())
		}
		return validateOptionSet(options) == nil
	})
}

func validateOptionSet(options []string) error {
	if len(options) < models.MinQuestionOptions || len(options) > models.MaxQuestionOptions {
		return fmt.Errorf("question must have between %d and %d options, got %d",
			models.MinQuestionOptions, models.MaxQuestionOptions, len(options))
	}

	seen := make(map[string]bool, len(options))
	for i, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("option %d is blank", i)
		}
		if seen[opt] {
			return fmt.Errorf("option %q is duplicated", opt)
		}
		seen[opt] = true
	}
	return nil
}

// ValidateQuestionCreate validates question creation business rules,
// including that the correct option index points into the option list.
func (v *Validator) ValidateQuestionCreate(req *models.QuestionCreateRequest) ValidationErrors {
	errors := v.Validate(req)

	if err := validateOptionSet(req.Options); err != nil {
		errors = append(errors, ValidationError{
			Field:   "options",
			Message: err.Error(),
			Value:   len(req.Options),
			Rule:    "question_options",
		})
	} else if req.CorrectOption < 0 || req.CorrectOption >= len(req.Options) {
		errors = append(errors, ValidationError{
			Field:   "correct_option",
			Message: fmt.Sprintf("must be between 0 and %d", len(req.Options)-1),
			Value:   req.CorrectOption,
			Rule:    "correct_option_range",
		})
	}

	return errors
}

// ValidateQuestionUpdate validates a partial question update against the
// stored question. Options and correct option are checked against the values
// that would result from applying the update.
func (v *Validator) ValidateQuestionUpdate(req *models.QuestionUpdateRequest, existing *models.Question) ValidationErrors {
	errors := v.Validate(req)

	options := []string(existing.Options)
	if req.Options != nil {
		options = req.Options
	}
	correct := existing.CorrectOption
	if req.CorrectOption != nil {
		correct = *req.CorrectOption
	}

	if err := validateOptionSet(options); err != nil {
		errors = append(errors, ValidationError{
			Field:   "options",
			Message: err.Error(),
			Value:   len(options),
			Rule:    "question_options",
		})
	} else if correct < 0 || correct >= len(options) {
		errors = append(errors, ValidationError{
			Field:   "correct_option",
			Message: fmt.Sprintf("must be between 0 and %d", len(options)-1),
			Value:   correct,
			Rule:    "correct_option_range",
		})
	}

	return errors
}
