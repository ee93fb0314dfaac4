package validator

import (
	"testing"

	"github.com/edupath/learning-service/internal/models"
)

func TestValidateOptionSet(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		wantErr bool
	}{
		{"two options ok", []string{"a", "b"}, false},
		{"ten options ok", []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, false},
		{"one option", []string{"a"}, true},
		{"eleven options", []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}, true},
		{"blank option", []string{"a", "   "}, true},
		{"duplicate option", []string{"a", "a"}, true},
		{"empty set", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOptionSet(tt.options)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateOptionSet(%v) error = %v, wantErr %t", tt.options, err, tt.wantErr)
			}
		})
	}
}

func TestValidateQuestionCreate(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     *models.QuestionCreateRequest
		wantErr bool
	}{
		{
			name: "valid",
			req: &models.QuestionCreateRequest{
				Text: "2 + 2 = ?", Options: []string{"3", "4"}, CorrectOption: 1,
			},
		},
		{
			name: "missing text",
			req: &models.QuestionCreateRequest{
				Options: []string{"a", "b"}, CorrectOption: 0,
			},
			wantErr: true,
		},
		{
			name: "correct option out of range",
			req: &models.QuestionCreateRequest{
				Text: "q", Options: []string{"a", "b"}, CorrectOption: 2,
			},
			wantErr: true,
		},
		{
			name: "too few options",
			req: &models.QuestionCreateRequest{
				Text: "q", Options: []string{"a"}, CorrectOption: 0,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateQuestionCreate(tt.req)
			if errs.HasErrors() != tt.wantErr {
				t.Errorf("got errors %v, wantErr %t", errs, tt.wantErr)
			}
		})
	}
}

func TestValidateQuestionUpdate(t *testing.T) {
	v := New()
	existing := &models.Question{
		Text:          "2 + 2 = ?",
		Options:       []string{"3", "4"},
		CorrectOption: 1,
	}

	t.Run("update keeping stored options", func(t *testing.T) {
		text := "What is 2 + 2?"
		errs := v.ValidateQuestionUpdate(&models.QuestionUpdateRequest{Text: &text}, existing)
		if errs.HasErrors() {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("correct option checked against new options", func(t *testing.T) {
		correct := 2
		errs := v.ValidateQuestionUpdate(&models.QuestionUpdateRequest{
			Options:       []string{"a", "b", "c"},
			CorrectOption: &correct,
		}, existing)
		if errs.HasErrors() {
			t.Errorf("unexpected errors: %v", errs)
		}
	})

	t.Run("correct option checked against stored options", func(t *testing.T) {
		correct := 2
		errs := v.ValidateQuestionUpdate(&models.QuestionUpdateRequest{CorrectOption: &correct}, existing)
		if !errs.HasErrors() {
			t.Error("expected an error for an index beyond the stored options")
		}
	})

	t.Run("shrinking options below the minimum", func(t *testing.T) {
		errs := v.ValidateQuestionUpdate(&models.QuestionUpdateRequest{
			Options: []string{"only"},
		}, existing)
		if !errs.HasErrors() {
			t.Error("expected an error for a single option")
		}
	})
}
