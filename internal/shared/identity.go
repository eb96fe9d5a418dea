package shared

// Identity is the authenticated principal as seen by every consumer:
// the guard, the onboarding gate, and the feature handlers.
type Identity struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	AvatarKey     string `json:"avatar_key,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// DisplayName joins the name parts, falling back to the email local part
// upstream when both are empty.
func (i *Identity) DisplayName() string {
	switch {
	case i == nil:
		return ""
	case i.FirstName == "":
		return i.LastName
	case i.LastName == "":
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}
