package domain

import (
	"strings"
	"time"
)

const (
	RoleFarmer = "FARMER"
	RoleBuyer  = "BUYER"
	RoleAdmin  = "ADMIN"
)

// VerificationState tracks whether the account owner has proven control of the email address.
type VerificationState string

const (
	Unverified VerificationState = "UNVERIFIED"
	Verified   VerificationState = "VERIFIED"
)

// User is the persisted account record. Email is the partition key of the users table.
// ResetToken and ResetTokenExpiry are set and cleared together.
type User struct {
	UserID            string            `json:"id" dynamodbav:"user_id"`
	Email             string            `json:"email" dynamodbav:"email"`
	PasswordHash      string            `json:"-" dynamodbav:"password_hash"`
	Role              string            `json:"role" dynamodbav:"role"`
	VerificationState VerificationState `json:"verification_state" dynamodbav:"verification_state"`
	FirstName         string            `json:"first_name" dynamodbav:"first_name"`
	LastName          string            `json:"last_name" dynamodbav:"last_name"`
	Phone             *string           `json:"phone" dynamodbav:"phone"`
	Address           *string           `json:"address" dynamodbav:"address"`
	NationalID        *string           `json:"national_id" dynamodbav:"national_id"`
	Bio               *string           `json:"bio" dynamodbav:"bio"`
	ProfileImageURL   *string           `json:"profile_image_url" dynamodbav:"profile_image_url"`
	ResetToken        *string           `json:"-" dynamodbav:"reset_token,omitempty"`
	ResetTokenExpiry  *int64            `json:"-" dynamodbav:"reset_token_expiry,omitempty"` // Unix seconds
	CreatedAt         time.Time         `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time         `json:"updated" dynamodbav:"updated_at"`
}

// FullName joins first and last name for greetings.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsVerified reports whether the registration OTP step has been completed.
func (u *User) IsVerified() bool {
	return u.VerificationState == Verified
}

// UserInfo is the public identity snapshot returned alongside a session.
type UserInfo struct {
	ID              string  `json:"id"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           string  `json:"email"`
	Role            string  `json:"role"`
	Verified        bool    `json:"verified"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
	NationalID      *string `json:"national_id,omitempty"`
	Address         *string `json:"address,omitempty"`
	Phone           *string `json:"phone_number,omitempty"`
	Bio             *string `json:"bio,omitempty"`
}

// Info maps the account record onto its public snapshot.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:              u.UserID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		Role:            u.Role,
		Verified:        u.IsVerified(),
		ProfileImageURL: u.ProfileImageURL,
		NationalID:      u.NationalID,
		Address:         u.Address,
		Phone:           u.Phone,
		Bio:             u.Bio,
	}
}

type RegisterRequest struct {
	FirstName       string  `json:"first_name" validate:"required"`
	LastName        string  `json:"last_name" validate:"required"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string  `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string  `json:"role" validate:"required,oneof=FARMER BUYER"`
	Phone           *string `json:"phone_number"`
}

type UpdateProfileRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	NationalID *string `json:"national_id"`
	Address    *string `json:"address"`
	Phone      *string `json:"phone_number"`
	Bio        *string `json:"bio" validate:"omitempty,max=500"`
}

// NormalizeEmail is applied to every email before it is used as a store key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
