package models

import "time"

// ===== BOT API REQUESTS =====

type RegisterUserRequest struct {
	TelegramID  int64  `json:"telegram_id" validate:"required"`
	FullName    string `json:"full_name" validate:"required,min=1,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
}

type UserUpdateRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
}

type TestAnswerRequest struct {
	QuestionID     string `json:"question_id" validate:"required"`
	SelectedOption int    `json:"selected_option" validate:"min=0"`
}

type TestSubmissionRequest struct {
	Answers []TestAnswerRequest `json:"answers" validate:"required,dive"`
}

// ===== ADMIN REQUESTS =====

type LessonCreateRequest struct {
	Title           string  `json:"title" validate:"required,min=1,max=200"`
	Description     string  `json:"description" validate:"max=2000"`
	VideoURL        *string `json:"video_url" validate:"omitempty,url,max=500"`
	PDFURL          *string `json:"pdf_url" validate:"omitempty,url,max=500"`
	PresentationURL *string `json:"presentation_url" validate:"omitempty,url,max=500"`
	Price           int64   `json:"price" validate:"min=0"`
	IsPublished     bool    `json:"is_published"`
}

type LessonUpdateRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	VideoURL        *string `json:"video_url" validate:"omitempty,url,max=500"`
	PDFURL          *string `json:"pdf_url" validate:"omitempty,url,max=500"`
	PresentationURL *string `json:"presentation_url" validate:"omitempty,url,max=500"`
	Price           *int64  `json:"price" validate:"omitempty,min=0"`
	IsPublished     *bool   `json:"is_published"`
}

type QuestionCreateRequest struct {
	Text          string   `json:"question_text" validate:"required,min=1"`
	Options       []string `json:"options" validate:"required,question_options"`
	CorrectOption int      `json:"correct_option" validate:"min=0"`
}

type QuestionUpdateRequest struct {
	Text          *string  `json:"question_text" validate:"omitempty,min=1"`
	Options       []string `json:"options" validate:"omitempty,question_options"`
	CorrectOption *int     `json:"correct_option" validate:"omitempty,min=0"`
}

type GrantAccessRequest struct {
	UserID   string `json:"user_id" validate:"required,uuid4"`
	LessonID string `json:"lesson_id" validate:"required,uuid4"`
	Amount   int64  `json:"amount" validate:"min=0"`
	Notes    string `json:"notes" validate:"max=500"`
}

// ===== BOT API RESPONSES =====

type RegisterUserResponse struct {
	UserID            string `json:"user_id"`
	TelegramID        int64  `json:"telegram_id"`
	AlreadyRegistered bool   `json:"already_registered"`
}

// LessonSummary is a lesson as seen by one user: access and test status are
// computed per caller.
type LessonSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Price         int64  `json:"price"`
	HasAccess     bool   `json:"has_access"`
	TestCompleted bool   `json:"test_completed"`
	Score         *int   `json:"score"`
}

// LessonDetail carries content URLs only when the caller holds a grant.
type LessonDetail struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	VideoURL        *string `json:"video_url"`
	PDFURL          *string `json:"pdf_url"`
	PresentationURL *string `json:"presentation_url"`
	Price           int64   `json:"price"`
	HasAccess       bool    `json:"has_access"`
	TestCompleted   bool    `json:"test_completed"`
	Score           *int    `json:"score"`
}

// QuestionView is a question stripped of the correct answer, safe to hand to
// a test taker.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"question_text"`
	Options []string `json:"options"`
}

type TestSubmissionResponse struct {
	ResultID       string `json:"result_id"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correct_answers"`
	TotalQuestions int    `json:"total_questions"`
	Passed         bool   `json:"passed"`
}

type ResultListItem struct {
	ID             string    `json:"id"`
	LessonID       string    `json:"lesson_id"`
	LessonTitle    string    `json:"lesson_title"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	Passed         bool      `json:"passed"`
	CompletedAt    time.Time `json:"completed_at"`
}

type ResultDetail struct {
	ID             string         `json:"id"`
	LessonID       string         `json:"lesson_id"`
	LessonTitle    string         `json:"lesson_title"`
	Score          int            `json:"score"`
	CorrectAnswers int            `json:"correct_answers"`
	TotalQuestions int            `json:"total_questions"`
	Passed         bool           `json:"passed"`
	CompletedAt    time.Time      `json:"completed_at"`
	Answers        []AnswerRecord `json:"answers"`
}

type UserStats struct {
	PhoneNumber  string    `json:"phone_number"`
	TotalTests   int       `json:"total_tests"`
	PassedTests  int       `json:"passed_tests"`
	AverageScore float64   `json:"average_score"`
	RegisteredAt time.Time `json:"registered_at"`
}

type UserProgress struct {
	TotalLessons      int        `json:"total_lessons"`
	AccessibleLessons int        `json:"accessible_lessons"`
	CompletedLessons  int        `json:"completed_lessons"`
	TotalTests        int        `json:"total_tests"`
	PassedTests       int        `json:"passed_tests"`
	AverageScore      float64    `json:"average_score"`
	LastTestAt        *time.Time `json:"last_test_at"`
}

// ===== ADMIN RESPONSES =====

// LessonStats aggregates test outcomes for one lesson. PassRate and
// CompletionRate are percentages in [0, 100]; CompletionRate is distinct
// takers over grant holders.
type LessonStats struct {
	LessonID       string  `json:"lesson_id"`
	AttemptCount   int     `json:"attempt_count"`
	GrantedUsers   int     `json:"granted_users"`
	AverageScore   float64 `json:"average_score"`
	PassRate       float64 `json:"pass_rate"`
	CompletionRate float64 `json:"completion_rate"`
}

// ===== VALIDATION RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

// ===== ERROR RESPONSES =====

type ErrorResponse struct {
	Error            string                    `json:"error"`
	Message          string                    `json:"message"`
	Code             string                    `json:"code"`
	Details          interface{}               `json:"details,omitempty"`
	Timestamp        time.Time                 `json:"timestamp"`
	Path             string                    `json:"path"`
	ValidationErrors []ValidationErrorResponse `json:"validation_errors,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
