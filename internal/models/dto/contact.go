package dto

// ContactRequest is the body of POST and PUT /api/contacts. On PUT, absent
// fields are left unchanged.
type ContactRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Type  *string `json:"type"`
}

type MessageResponse struct {
	Msg string `json:"msg"`
}
