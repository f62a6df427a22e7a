package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("Invalid Email")
	ErrIncorrectPassword     = errors.New("Incorrect Password")
	ErrNotAuthenticated      = errors.New("Not authenticated")
	ErrInvalidAddress        = errors.New("Invalid account address")
	ErrWeakPassword          = errors.New("Password must be at least 8 characters with a letter, a digit and a special character")
	ErrAccountExists         = errors.New("An account with this email or address already exists")
	ErrInvalidRole           = errors.New("Invalid role")
)
