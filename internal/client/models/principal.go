package models

// Principal is the signed-in identity. Email is the ownership key.
type Principal struct {
	Email       string
	DisplayName string
	PhotoURL    string
}

// Label is the name shown to other users: the display name when set,
// otherwise the email.
func (p *Principal) Label() string {
	if p == nil {
		return ""
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Email
}
