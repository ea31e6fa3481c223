package models

import "time"

// ContactType classifies a contact.
type ContactType string

const (
	Personal     ContactType = "personal"
	Professional ContactType = "professional"
)

// Valid reports whether t is one of the known contact types.
func (t ContactType) Valid() bool {
	return t == Personal || t == Professional
}

// Contact is an address-book entry owned by exactly one user.
type Contact struct {
	ID        string      `json:"_id"`
	UserID    string      `json:"user"`
	Name      string      `json:"name"`
	Email     string      `json:"email,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	Type      ContactType `json:"type"`
	CreatedAt time.Time   `json:"date"`
}

// ContactPatch holds the fields of a partial update. Nil fields are left untouched.
type ContactPatch struct {
	Name  *string
	Email *string
	Phone *string
	Type  *ContactType
}

// Apply merges the supplied fields into c.
func (p ContactPatch) Apply(c Contact) Contact {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	return c
}
