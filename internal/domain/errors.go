package domain

import "errors"

// Authorization and account errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Invite lifecycle errors
var (
	ErrInviteNotFound = errors.New("invite not found")
	ErrDuplicateToken = errors.New("invite token already exists")
)

// Property and link errors
var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrLinkNotFound     = errors.New("tenant property link not found")
	ErrDuplicateLink    = errors.New("tenant already has an active link to property")
)

// Validation errors
var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password does not meet requirements")
)
