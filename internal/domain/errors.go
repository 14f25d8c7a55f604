package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// ErrorKind classifies every failure the core can return. The HTTP boundary
// switches on it; message text is never inspected.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInvalidState
	KindInsufficientFunds
	KindWalletInactive
	KindWalletFrozen
	KindGameFull
	KindCardLimitExceeded
	KindBallsExhausted
	KindAlreadyProcessed
	KindExpired
	KindInvalidCardStructure
	KindValidation
	KindForbidden
	KindUnauthorized
)

var kindNames = map[ErrorKind]string{
	KindInternal:             "INTERNAL",
	KindNotFound:             "NOT_FOUND",
	KindInvalidState:         "INVALID_STATE",
	KindInsufficientFunds:    "INSUFFICIENT_FUNDS",
	KindWalletInactive:       "WALLET_INACTIVE",
	KindWalletFrozen:         "WALLET_FROZEN",
	KindGameFull:             "GAME_FULL",
	KindCardLimitExceeded:    "CARD_LIMIT_EXCEEDED",
	KindBallsExhausted:       "BALLS_EXHAUSTED",
	KindAlreadyProcessed:     "ALREADY_PROCESSED",
	KindExpired:              "EXPIRED",
	KindInvalidCardStructure: "INVALID_CARD_STRUCTURE",
	KindValidation:           "VALIDATION_ERROR",
	KindForbidden:            "FORBIDDEN",
	KindUnauthorized:         "UNAUTHORIZED",
}

// String returns the wire name of the kind
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// MarshalText lets the kind serialize as its name
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name written by MarshalText
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// AppError represents an application error
type AppError struct {
	Kind      ErrorKind `json:"kind"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Path      string    `json:"path,omitempty"`
	Method    string    `json:"method,omitempty"`
	Err       error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by kind and code so errors.Is works against the
// sentinel-style values returned by the constructors below.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
}

// NewAppError creates a new application error
func NewAppError(kind ErrorKind, code, message string, err error) *AppError {
	return &AppError{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Column widths of the free text a caller can supply. Ledger descriptions
// leave room for the prefix the engine adds.
const (
	MaxTitleLength     = 128
	MaxNoteLength      = 200
	MaxReferenceLength = 64
	MaxBankCodeLength  = 16
	MaxAccountLength   = 32
	MaxHolderLength    = 128
	MaxDniLength       = 16
)

// CheckLength rejects text longer than limit characters
func CheckLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return NewValidationError(field, fmt.Sprintf("must be at most %d characters", limit))
	}
	return nil
}

// NewValidationError creates a validation error
func NewValidationError(field, message string) *AppError {
	return NewAppError(
		KindValidation,
		ErrCodeValidation,
		fmt.Sprintf("Validation failed for field '%s': %s", field, message),
		nil,
	)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(
		KindNotFound,
		ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource),
		nil,
	)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Unauthorized access"
	}
	return NewAppError(KindUnauthorized, ErrCodeUnauthorized, message, nil)
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "Access forbidden"
	}
	return NewAppError(KindForbidden, ErrCodeForbidden, message, nil)
}

// NewInternalError creates an internal server error
func NewInternalError(message string, err error) *AppError {
	if message == "" {
		message = "Internal server error"
	}
	return NewAppError(KindInternal, ErrCodeInternal, message, err)
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, err error) *AppError {
	return NewAppError(
		KindInternal,
		ErrCodeDatabase,
		fmt.Sprintf("Database operation failed: %s", operation),
		err,
	)
}

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *AppError) ErrorResponse {
	return ErrorResponse{
		Error:   err,
		Success: false,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind carried by err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// Error codes refine a kind for clients
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeDatabase     = "DATABASE_ERROR"
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	ErrCodeTokenMissing = "TOKEN_MISSING"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeLockTimeout  = "LOCK_TIMEOUT"

	ErrCodeGameNotFound       = "GAME_NOT_FOUND"
	ErrCodeInvalidGameState   = "INVALID_GAME_STATE"
	ErrCodeGameNotJoinable    = "GAME_NOT_JOINABLE"
	ErrCodeGameFull           = "GAME_FULL"
	ErrCodeCardLimitExceeded  = "CARD_LIMIT_EXCEEDED"
	ErrCodeBallsExhausted     = "BALLS_EXHAUSTED"
	ErrCodeInvalidCard        = "INVALID_CARD_STRUCTURE"
	ErrCodeCardNotFound       = "CARD_NOT_FOUND"
	ErrCodeParticipantMissing = "PARTICIPANT_NOT_FOUND"

	ErrCodeWalletNotFound      = "WALLET_NOT_FOUND"
	ErrCodeWalletInactive      = "WALLET_INACTIVE"
	ErrCodeWalletFrozen        = "WALLET_FROZEN"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeLimitExceeded       = "LIMIT_EXCEEDED"

	ErrCodeRequestNotFound   = "REQUEST_NOT_FOUND"
	ErrCodeNotPending        = "NOT_PENDING"
	ErrCodeNotApproved       = "NOT_APPROVED"
	ErrCodeAlreadyProcessed  = "ALREADY_PROCESSED"
	ErrCodeDepositExpired    = "DEPOSIT_EXPIRED"
	ErrCodeInvalidMethod     = "INVALID_PAYMENT_METHOD"
	ErrCodeRequestNotOwned   = "REQUEST_NOT_OWNED"
	ErrCodeInvalidBankDetail = "INVALID_BANK_DETAILS"
)

// Sentinel values for errors.Is comparisons
var (
	ErrGameNotFound        = NewAppError(KindNotFound, ErrCodeGameNotFound, "Game not found", nil)
	ErrInvalidGameState    = NewAppError(KindInvalidState, ErrCodeInvalidGameState, "Game is not in a valid state for this operation", nil)
	ErrGameNotJoinable     = NewAppError(KindInvalidState, ErrCodeGameNotJoinable, "Game is not accepting card purchases", nil)
	ErrGameFull            = NewAppError(KindGameFull, ErrCodeGameFull, "Game has reached its maximum number of players", nil)
	ErrCardLimitExceeded   = NewAppError(KindCardLimitExceeded, ErrCodeCardLimitExceeded, "Card limit per player exceeded", nil)
	ErrBallsExhausted      = NewAppError(KindBallsExhausted, ErrCodeBallsExhausted, "All balls have been drawn", nil)
	ErrInvalidCard         = NewAppError(KindInvalidCardStructure, ErrCodeInvalidCard, "Invalid card structure", nil)
	ErrWalletNotFound      = NewAppError(KindNotFound, ErrCodeWalletNotFound, "Wallet not found", nil)
	ErrWalletInactive      = NewAppError(KindWalletInactive, ErrCodeWalletInactive, "Wallet is inactive", nil)
	ErrWalletFrozen        = NewAppError(KindWalletFrozen, ErrCodeWalletFrozen, "Wallet is frozen", nil)
	ErrInsufficientFunds   = NewAppError(KindInsufficientFunds, ErrCodeInsufficientBalance, "Insufficient balance", nil)
	ErrRequestNotFound     = NewAppError(KindNotFound, ErrCodeRequestNotFound, "Request not found", nil)
	ErrNotPending          = NewAppError(KindInvalidState, ErrCodeNotPending, "Request is not pending", nil)
	ErrAlreadyProcessed    = NewAppError(KindAlreadyProcessed, ErrCodeAlreadyProcessed, "Request was already processed", nil)
	ErrDepositExpired      = NewAppError(KindExpired, ErrCodeDepositExpired, "Deposit request has expired", nil)
	ErrParticipantNotFound = NewAppError(KindNotFound, ErrCodeParticipantMissing, "Participant not found", nil)
	ErrNotApproved         = NewAppError(KindInvalidState, ErrCodeNotApproved, "Request is not approved", nil)
	ErrRequestNotOwned     = NewAppError(KindForbidden, ErrCodeRequestNotOwned, "Request belongs to another user", nil)
	ErrLimitExceeded       = NewAppError(KindValidation, ErrCodeLimitExceeded, "Withdrawal limit exceeded", nil)
	ErrLockTimeout         = NewAppError(KindInvalidState, ErrCodeLockTimeout, "Another operation holds this resource", nil)
)

// Wrap returns a copy of a sentinel carrying extra detail, keeping kind and code.
func Wrap(sentinel *AppError, details string) *AppError {
	return &AppError{
		Kind:      sentinel.Kind,
		Code:      sentinel.Code,
		Message:   sentinel.Message,
		Details:   details,
		Timestamp: time.Now(),
	}
}
