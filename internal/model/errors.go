package model

import "errors"

// Common errors used across the application
var (
	// Registration errors
	ErrAlreadyRegistered = errors.New("already registered")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)
