package auth

import (
	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
	"github.com/angelmondragon/pantrypal-backend/internal/users"
)

const bearerTokenType = "Bearer"

// LoginRequest is the email and password pair accepted by login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is a signed-in identity. The access token unlocks the pantry
// named by PantryCollection when the server runs in identity scope mode.
type LoginResponse struct {
	AccessToken      string         `json:"access_token"`
	RefreshToken     string         `json:"refresh_token"`
	TokenType        string         `json:"token_type"`
	ExpiresIn        int64          `json:"expires_in"`
	PantryCollection string         `json:"pantry_collection,omitempty"`
	User             *users.UserDTO `json:"user"`
}

// SignupResponse is returned once by registration. Created distinguishes it
// from a plain login for clients that share one decoder.
type SignupResponse struct {
	*LoginResponse
	Created bool `json:"created"`
}

func newLoginResponse(user *users.UserDTO, access, refresh string, ttlSeconds int64) *LoginResponse {
	resp := &LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    bearerTokenType,
		ExpiresIn:    ttlSeconds,
		User:         user,
	}
	if user != nil {
		resp.PantryCollection = pantry.IdentityScope(user.ID).Collection()
	}
	return resp
}
