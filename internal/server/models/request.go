package models

// PhotoPayload is a single photo attached to an intake request. Data carries
// the image bytes as a base64 data URL ("data:image/jpeg;base64,...") or as
// bare base64, matching what the browser sends.
type PhotoPayload struct {
	Type string `json:"type" validate:"required,startswith=image/"`
	Data string `json:"data" validate:"required"`
}

// IntakeRequest is the JSON body of POST /api/submissions.
type IntakeRequest struct {
	Name        string         `json:"name" validate:"required,min=2,max=100"`
	Email       string         `json:"email" validate:"required,email,max=255"`
	Phone       string         `json:"phone" validate:"omitempty,max=30"`
	Address     string         `json:"address" validate:"required,min=5,max=200"`
	City        string         `json:"city" validate:"required,min=2,max=100"`
	Zip         string         `json:"zip" validate:"required,min=3,max=10"`
	Description string         `json:"description" validate:"required,min=10,max=500"`
	Priorities  string         `json:"priorities" validate:"omitempty,max=500"`
	Height      string         `json:"height" validate:"omitempty,numeric"`
	HeightUnit  string         `json:"heightUnit" validate:"omitempty,oneof=cm in"`
	Photos      []PhotoPayload `json:"photos" validate:"required,min=1,max=10,dive"`
}

// PaymentRequest is the JSON body of POST /api/payments.
type PaymentRequest struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	SubmissionID string `json:"submissionId" validate:"required,min=1,max=100"`
}
