package service

import (
	"net/http"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// Business error codes surfaced to API clients.
const (
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodeUserHasRequests    = "USER_HAS_REQUESTS"
	CodeSelfDelete         = "SELF_DELETE"
	CodeLastAdmin          = "LAST_ADMIN"
	CodeSelfRoleChange     = "SELF_ROLE_CHANGE"
	CodeRequestNotFound    = "REQUEST_NOT_FOUND"
	CodeTechnicianNotFound = "TECHNICIAN_NOT_FOUND"
)

func errUserNotFound(status int) error {
	return apperrors.NewDomainError(CodeUserNotFound, "user not found", status, nil)
}

func errInvalidCredentials() error {
	return apperrors.NewDomainError(CodeInvalidCredentials, "invalid credentials", http.StatusUnauthorized, nil)
}

func errUserAlreadyExists(login string) error {
	return apperrors.NewDomainError(CodeUserAlreadyExists, "login already taken", http.StatusConflict, map[string]any{"login": login})
}

func errPasswordRequired() error {
	return apperrors.NewDomainError(CodePasswordRequired, "password is required", http.StatusBadRequest, nil)
}

func errRequestNotFound(id int64) error {
	return apperrors.NewDomainError(CodeRequestNotFound, "request not found", http.StatusNotFound, map[string]any{"id": id})
}

func errTechnicianNotFound(id int64) error {
	return apperrors.NewDomainError(CodeTechnicianNotFound, "technician not found", http.StatusNotFound, map[string]any{"id": id})
}
