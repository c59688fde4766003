package dto

// ContactRequest is a contact form submission.
type ContactRequest struct {
	Name    string  `json:"name" form:"name"`
	Email   string  `json:"email" form:"email"`
	Subject *string `json:"subject" form:"subject"`
	Message string  `json:"message" form:"message"`
}
