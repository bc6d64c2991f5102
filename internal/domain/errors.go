package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is wrapped by StoreError when the backend reports a missing record.
var ErrNotFound = errors.New("record not found")

// ValidationError reports missing or malformed fields, detected before any
// network call is made.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", strings.Join(e.Fields, ", "), e.Reason)
}

// AuthCode is the cause reported for a rejected sign-in or sign-up.
type AuthCode string

const (
	AuthInvalidCredential AuthCode = "invalid-credential"
	AuthEmailInUse        AuthCode = "email-in-use"
	AuthInvalidEmail      AuthCode = "invalid-email"
	AuthWeakPassword      AuthCode = "weak-password"
	AuthOther             AuthCode = "other"
)

// AuthError is a sign-in/sign-up rejection.
type AuthError struct {
	Code AuthCode
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Code, e.Err)
	}
	return "auth " + string(e.Code)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Message is the human readable notification for the code.
func (e *AuthError) Message() string {
	switch e.Code {
	case AuthInvalidCredential:
		return "Email or password is incorrect"
	case AuthEmailInUse:
		return "Email is already in use"
	case AuthInvalidEmail:
		return "Email format is invalid"
	case AuthWeakPassword:
		return "Password must be at least 6 characters"
	default:
		return "Something went wrong, please try again"
	}
}

// StoreError is any failure of a record operation on the backend.
type StoreError struct {
	Op         string // create, update, toggle, delete, subscribe, list
	Collection string
	Status     int // HTTP status when the failure came over the wire, 0 otherwise
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NotFound reports whether the record did not exist or was not owned by the caller.
func (e *StoreError) NotFound() bool {
	return e.Status == http.StatusNotFound || errors.Is(e.Err, ErrNotFound)
}

// ParseID converts a hex identifier into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, &ValidationError{Fields: []string{"id"}, Reason: "is not a valid identifier"}
	}
	return id, nil
}
