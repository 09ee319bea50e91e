package models

// Credential is the identity-provider data carried by a verified sign-in.
// UID is the provider's own user id and keys the profile document.
type Credential struct {
	UID         string
	ProviderID  string
	DisplayName string
	Email       string
	PhoneNumber string
	PhotoURL    string
}

// AuthState is a single authentication-state event. A nil Credential means signed out.
type AuthState struct {
	Credential *Credential
}

// SignedIn reports whether the state carries a credential.
func (s AuthState) SignedIn() bool {
	return s.Credential != nil && s.Credential.UID != ""
}

// UserProfile is the stored copy of a credential's provider data.
// It is written once, on first sign-in, and never updated afterwards.
type UserProfile struct {
	UID         string `json:"uid" firestore:"uid"`
	ProviderID  string `json:"providerId" firestore:"providerId"`
	DisplayName string `json:"displayName,omitempty" firestore:"displayName"`
	Email       string `json:"email,omitempty" firestore:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty" firestore:"phoneNumber"`
	PhotoURL    string `json:"photoURL,omitempty" firestore:"photoURL"`
}

// NewUserProfile derives the profile record from a credential.
func NewUserProfile(cred *Credential) *UserProfile {
	return &UserProfile{
		UID:         cred.UID,
		ProviderID:  cred.ProviderID,
		DisplayName: cred.DisplayName,
		Email:       cred.Email,
		PhoneNumber: cred.PhoneNumber,
		PhotoURL:    cred.PhotoURL,
	}
}
