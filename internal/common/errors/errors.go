// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Admission rule errors. These are business outcomes and are never retried.
const (
	ErrCodeInvalidInput                ErrorCode = "INVALID_INPUT"
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeTrainingSessionNotFound     ErrorCode = "TRAINING_SESSION_NOT_FOUND"
	ErrCodeDeliveryModeNotOffered      ErrorCode = "DELIVERY_MODE_NOT_OFFERED"
	ErrCodeCurrencyNotCharged          ErrorCode = "CURRENCY_NOT_CHARGED"
	ErrCodeFeeIncomplete               ErrorCode = "FEE_INCOMPLETE"
	ErrCodeFeeMismatch                 ErrorCode = "FEE_MISMATCH"
	ErrCodeSubmissionBlocked           ErrorCode = "SUBMISSION_BLOCKED"
	ErrCodeApplicationNotFound         ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeApplicationImmutable        ErrorCode = "APPLICATION_IMMUTABLE"
	ErrCodeInvalidStatusTransition     ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeCapacityExceeded            ErrorCode = "CAPACITY_EXCEEDED"
)

// Infrastructure errors.
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeCacheOperationFailed ErrorCode = "CACHE_OPERATION_FAILED"
	ErrCodeSubmissionInProgress ErrorCode = "SUBMISSION_IN_PROGRESS"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeEngineRejected    ErrorCode = "WORKFLOW_ENGINE_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata adds a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError finds a *StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError is returned when job variables cannot be decoded.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

func NewApplicationValidationFailedError(details string) *StandardError {
	return newError(ErrCodeApplicationValidationFailed, "Application data validation failed", details, false)
}

func NewTrainingSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeTrainingSessionNotFound, "Training session not found",
		fmt.Sprintf("trainingSessionId: %s", sessionID), false)
}

func NewDeliveryModeNotOfferedError(details string) *StandardError {
	return newError(ErrCodeDeliveryModeNotOffered, "Delivery mode not offered by the training session", details, false)
}

func NewCurrencyNotChargedError(details string) *StandardError {
	return newError(ErrCodeCurrencyNotCharged, "Currency not charged by the training session", details, false)
}

// NewFeeIncompleteError reports tiers with seats but no rate.
func NewFeeIncompleteError(missing []string) *StandardError {
	return newError(ErrCodeFeeIncomplete, "Application fee cannot be calculated",
		fmt.Sprintf("missing rates for: %s", strings.Join(missing, ", ")), false)
}

func NewFeeMismatchError(submitted, calculated float64) *StandardError {
	e := newError(ErrCodeFeeMismatch, "Submitted fee does not match the calculated fee",
		fmt.Sprintf("submitted: %.2f, calculated: %.2f", submitted, calculated), false)
	return e.WithMetadata("calculatedFee", calculated)
}

func NewSubmissionBlockedError(details string) *StandardError {
	return newError(ErrCodeSubmissionBlocked, "Application has unresolved warnings", details, false)
}

func NewApplicationNotFoundError(applicationID string) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found",
		fmt.Sprintf("applicationId: %s", applicationID), false)
}

func NewApplicationImmutableError(applicationID string) *StandardError {
	return newError(ErrCodeApplicationImmutable, "Completed applications cannot be changed",
		fmt.Sprintf("applicationId: %s", applicationID), false)
}

func NewInvalidStatusTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidStatusTransition, "Status transition not allowed",
		fmt.Sprintf("from: %s, to: %s", from, to), false)
}

func NewCapacityExceededError(mode string, requested, remaining int) *StandardError {
	return newError(ErrCodeCapacityExceeded, "Training session has no capacity left",
		fmt.Sprintf("mode: %s, requested: %d, remaining: %d", mode, requested, remaining), false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewCacheOperationFailedError(op string, err error) *StandardError {
	return newError(ErrCodeCacheOperationFailed, "Cache operation failed",
		fmt.Sprintf("op: %s, error: %s", op, err.Error()), true)
}

// NewSubmissionInProgressError is returned while another attempt holds
// the same request token.
func NewSubmissionInProgressError(token string) *StandardError {
	return newError(ErrCodeSubmissionInProgress, "Submission with this request token is in progress",
		fmt.Sprintf("requestToken: %s", token), true)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true)
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewSearchTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

// NewEngineUnavailableError is a transient Zeebe gateway failure.
func NewEngineUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeEngineUnavailable, "Workflow engine unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

// NewEngineRejectedError is a command the gateway refused.
func NewEngineRejectedError(operation string, err error) *StandardError {
	return newError(ErrCodeEngineRejected, "Workflow engine rejected the command",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the admission process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:                  "INVALID_INPUT",
	ErrCodeApplicationValidationFailed:   "APPLICATION_VALIDATION_FAILED",
	ErrCodeTrainingSessionNotFound:       "TRAINING_SESSION_NOT_FOUND",
	ErrCodeDeliveryModeNotOffered:        "DELIVERY_MODE_NOT_OFFERED",
	ErrCodeCurrencyNotCharged:            "CURRENCY_NOT_CHARGED",
	ErrCodeFeeIncomplete:                 "FEE_INCOMPLETE",
	ErrCodeFeeMismatch:                   "FEE_MISMATCH",
	ErrCodeSubmissionBlocked:             "SUBMISSION_BLOCKED",
	ErrCodeApplicationNotFound:           "APPLICATION_NOT_FOUND",
	ErrCodeApplicationImmutable:          "APPLICATION_IMMUTABLE",
	ErrCodeInvalidStatusTransition:       "INVALID_STATUS_TRANSITION",
	ErrCodeCapacityExceeded:              "CAPACITY_EXCEEDED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeDatabaseInsertFailed:          "DATABASE_INSERT_FAILED",
	ErrCodeCacheOperationFailed:          "CACHE_OPERATION_FAILED",
	ErrCodeSubmissionInProgress:          "SUBMISSION_IN_PROGRESS",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:                 "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:                 "INDEX_NOT_FOUND",
	ErrCodeEngineUnavailable:             "WORKFLOW_ENGINE_UNAVAILABLE",
	ErrCodeEngineRejected:                "WORKFLOW_ENGINE_REJECTED",
	ErrCodeInternal:                      "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeCacheOperationFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeEngineUnavailable:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeSubmissionInProgress:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "IN_PROGRESS"):
		return "CACHE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "ENGINE"):
		return "ENGINE"
	case strings.Contains(codeStr, "FEE") || strings.Contains(codeStr, "CURRENCY") || strings.Contains(codeStr, "CAPACITY"):
		return "FEES"
	case strings.Contains(codeStr, "STATUS") || strings.Contains(codeStr, "IMMUTABLE") || strings.Contains(codeStr, "SUBMISSION"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "NOT_OFFERED"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
