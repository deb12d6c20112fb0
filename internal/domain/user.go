package domain

// UserRecord is the snapshot of a registered user captured when a generation
// request is accepted. Field validation belongs to the user registry.
type UserRecord struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	MiddleName  *string `json:"middle_name,omitempty"`
	IIN         string  `json:"iin"`
	PhoneNumber string  `json:"phone_number"`
}
