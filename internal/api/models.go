package api

import (
	"time"

	"github.com/google/uuid"
)

// UserAuth represents the core account entity.
type UserAuth struct {
	ID        uuid.UUID `json:"id" example:"d290f1ee-6c54-4b01-90e6-d701748f0851"` // Unique identifier (UUID).
	Username  string    `json:"username" example:"johndoe"`                        // Unique username.
	Email     string    `json:"email" example:"john.doe@example.com"`              // Unique email address used for login.
	Name      string    `json:"name" example:"John Doe"`                           // Display name.
	Password  string    `json:"-"`                                                 // Hashed password (never exposed).
	Role      string    `json:"role" example:"user"`                               // User role ('user' or 'admin').
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is a directory entry. Each user has at most one profile with
// IsUserProfile=true (their own); further profiles are entries managed on
// behalf of third parties.
type Profile struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	IsUserProfile bool      `json:"is_user_profile"`
	IsPublic      bool      `json:"is_public"`
	Name          string    `json:"name"`
	Age           string    `json:"age"`
	Gender        string    `json:"gender"`
	MaritalStatus string    `json:"marital_status"`
	Caste         string    `json:"caste"`
	Education     string    `json:"education"`
	Occupation    string    `json:"occupation"`
	Location      string    `json:"location"`
	Contact       string    `json:"contact"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	PhoneNumber   string    `json:"phone_number"`
	Website       string    `json:"website"`
	SocialLinks   string    `json:"social_links"`
	Skills        string    `json:"skills"`
	Bio           *string   `json:"bio,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	Experience    *string   `json:"experience,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Closed value sets for the categorical profile fields, matching the
// database enums. The first entry of each default list is the column default.
const (
	GenderDefault        = "Other"
	MaritalStatusDefault = "Single"
	CasteDefault         = "General"
)

// Message is an immutable note from a user to a profile. Also carries the
// conventional access-request notification for private profiles.
type Message struct {
	ID                 uuid.UUID `json:"id"`
	SenderID           uuid.UUID `json:"sender_id"`
	RecipientProfileID uuid.UUID `json:"recipient_profile_id"`
	Content            string    `json:"content"`
	CreatedAt          time.Time `json:"created_at"`
}

// Bookmark marks a profile saved by a user. The (UserID, ProfileID) pair is
// unique.
type Bookmark struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProfileID uuid.UUID `json:"profile_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProfileParams carries the fields accepted when creating a managed
// (third-party) profile entry.
type CreateProfileParams struct {
	Name          string  `json:"name"`
	Age           string  `json:"age"`
	Gender        string  `json:"gender"`
	MaritalStatus string  `json:"marital_status"`
	Caste         string  `json:"caste"`
	Education     string  `json:"education"`
	Occupation    string  `json:"occupation"`
	Location      string  `json:"location"`
	Contact       string  `json:"contact"`
	Email         string  `json:"email"`
	PhoneNumber   string  `json:"phone_number"`
	Website       string  `json:"website"`
	SocialLinks   string  `json:"social_links"`
	Skills        string  `json:"skills"`
	Bio           *string `json:"bio,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	Experience    *string `json:"experience,omitempty"`
	IsPublic      bool    `json:"is_public"`
}

// UpdateProfileParams is a merge-style partial update; nil fields are left
// untouched.
type UpdateProfileParams struct {
	Name          *string `json:"name,omitempty"`
	Age           *string `json:"age,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	MaritalStatus *string `json:"marital_status,omitempty"`
	Caste         *string `json:"caste,omitempty"`
	Education     *string `json:"education,omitempty"`
	Occupation    *string `json:"occupation,omitempty"`
	Location      *string `json:"location,omitempty"`
	Contact       *string `json:"contact,omitempty"`
	Email         *string `json:"email,omitempty"`
	PhoneNumber   *string `json:"phone_number,omitempty"`
	Website       *string `json:"website,omitempty"`
	SocialLinks   *string `json:"social_links,omitempty"`
	Skills        *string `json:"skills,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	Experience    *string `json:"experience,omitempty"`
	IsPublic      *bool   `json:"is_public,omitempty"`
}

// SearchProfilesFilter narrows the directory search. Zero values mean "any".
type SearchProfilesFilter struct {
	Name          string
	Age           string
	Gender        string
	MaritalStatus string
}

// UpdateSettingsParams covers the mutable account identity fields.
type UpdateSettingsParams struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
}

// Response is the generic success/error envelope.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
