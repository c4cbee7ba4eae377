package helpers

import (
	"astro-insights/src/logger"
	"fmt"
	"strings"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type AstroInsightsError struct {
	Message string
	Cause   error
}

func (e *AstroInsightsError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AstroInsightsError) Unwrap() error {
	return e.Cause
}

// Distinct error types for type assertions where the caller cares
type ConfigurationError struct{ AstroInsightsError }
type NetworkError struct{ AstroInsightsError }
type DataSourceError struct{ AstroInsightsError }
type DatabaseError struct{ AstroInsightsError }

// ValidationError marks an input-contract violation (unknown enum value,
// chart missing a required planet). The engine fails fast with these
// instead of substituting defaults; the scheduler keeps the previous
// dashboard state in place when it sees one.
type ValidationError struct{ AstroInsightsError }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{AstroInsightsError{Message: fmt.Sprintf(format, args...)}}
}

func NewNetworkError(format string, args ...interface{}) *NetworkError {
	return &NetworkError{AstroInsightsError{Message: fmt.Sprintf(format, args...)}}
}

func NewDataSourceError(format string, args ...interface{}) *DataSourceError {
	return &DataSourceError{AstroInsightsError{Message: fmt.Sprintf(format, args...)}}
}

func NewDatabaseError(format string, args ...interface{}) *DatabaseError {
	return &DatabaseError{AstroInsightsError{Message: fmt.Sprintf(format, args...)}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times
// with exponential backoff. Only I/O paths use this; the insight core is
// pure and has nothing to retry.
func RetryWithBackoff(operation string, maxRetries int, baseDelay time.Duration, fn func() (interface{}, error)) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		fmt.Printf("Warning: Attempt %d/%d failed for %s: %v. Retrying in %v\n", attempt+1, maxRetries, operation, err, delay)
		time.Sleep(delay)
	}

	return nil, lastErr
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

type ErrorHandler struct {
	Logger                 *logger.Logger
	ErrorCount             int
	MaxErrorsBeforeRestart int
}

func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		Logger:                 logger.NewLogger(nil, "ErrorHandler"),
		ErrorCount:             0,
		MaxErrorsBeforeRestart: 10,
	}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) ResetErrorCount() {
	e.ErrorCount = 0
}

// -----------------------------------------------------------------------------

// ExecuteWithRetry executes a function, retries on failure and categorizes
// the terminal error by operation name.
func (e *ErrorHandler) ExecuteWithRetry(operation string, fn func() (interface{}, error), maxRetries int) (interface{}, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn()
		if err == nil {
			if e.ErrorCount > 0 {
				e.ErrorCount--
			}
			return res, nil
		}

		if attempt == maxRetries-1 {
			e.ErrorCount++
			e.Logger.Error("%s failed (attempt %d/%d): %v", operation, attempt+1, maxRetries, err)

			lowerOp := strings.ToLower(operation)
			if strings.Contains(lowerOp, "network") || strings.Contains(lowerOp, "fetch") {
				return nil, &NetworkError{AstroInsightsError{Message: fmt.Sprintf("%s failed", operation), Cause: err}}
			} else if strings.Contains(lowerOp, "database") || strings.Contains(lowerOp, "save") {
				return nil, &DatabaseError{AstroInsightsError{Message: fmt.Sprintf("%s failed", operation), Cause: err}}
			}
			return nil, &AstroInsightsError{Message: fmt.Sprintf("%s failed", operation), Cause: err}
		}

		e.Logger.Warning("%s failed (attempt %d/%d): %v", operation, attempt+1, maxRetries, err)
		delay := time.Duration(1<<attempt) * time.Second
		time.Sleep(delay)
	}

	return nil, &AstroInsightsError{Message: fmt.Sprintf("%s failed after %d attempts", operation, maxRetries)}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) Handle(err error, context string) {
	if err != nil {
		e.Logger.Error("Error in %s: %v", context, err)
	}
}
