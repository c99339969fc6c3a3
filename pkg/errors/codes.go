// Package errors provides error codes for publishhub
package errors

// ErrorCode represents a publishhub error code
type ErrorCode string

// Configuration Error Codes
const (
	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig ErrorCode = "INVALID_CONFIG"

	// ErrInvalidPlatformConfig indicates invalid platform configuration
	ErrInvalidPlatformConfig ErrorCode = "INVALID_PLATFORM_CONFIG"

	// ErrMissingCredentials indicates missing authentication credentials
	ErrMissingCredentials ErrorCode = "MISSING_CREDENTIALS"

	// ErrConfigFetchFailed indicates the remote platform config could not be loaded
	ErrConfigFetchFailed ErrorCode = "CONFIG_FETCH_FAILED"
)

// Content Error Codes
const (
	// ErrContentInvalid indicates content failed platform validation rules
	ErrContentInvalid ErrorCode = "CONTENT_INVALID"

	// ErrMissingContent indicates no content was provided
	ErrMissingContent ErrorCode = "MISSING_CONTENT"
)

// Platform Error Codes
const (
	// ErrPlatformNotFound indicates no adapter is registered for a platform
	ErrPlatformNotFound ErrorCode = "PLATFORM_NOT_FOUND"

	// ErrPlatformNotSupported indicates a platform has no adapter implementation
	ErrPlatformNotSupported ErrorCode = "PLATFORM_NOT_SUPPORTED"

	// ErrPlatformUnavailable indicates a platform is unavailable
	ErrPlatformUnavailable ErrorCode = "PLATFORM_UNAVAILABLE"

	// ErrPlatformError indicates a general platform error
	ErrPlatformError ErrorCode = "PLATFORM_ERROR"

	// ErrPlatformRejected indicates the platform rejected the request
	ErrPlatformRejected ErrorCode = "PLATFORM_REJECTED"
)

// Authentication Error Codes
const (
	// ErrAuthFailed indicates platform authentication failed
	ErrAuthFailed ErrorCode = "AUTH_FAILED"

	// ErrTokenExpired indicates the access token has expired
	ErrTokenExpired ErrorCode = "TOKEN_EXPIRED"

	// ErrNotSupported indicates an operation is permanently unsupported by a platform
	ErrNotSupported ErrorCode = "NOT_SUPPORTED"
)

// Network Error Codes
const (
	// ErrNetworkTimeout indicates a network timeout
	ErrNetworkTimeout ErrorCode = "NETWORK_TIMEOUT"

	// ErrConnectionFailed indicates connection failure
	ErrConnectionFailed ErrorCode = "CONNECTION_FAILED"
)

// Rate Limiting Error Codes
const (
	// ErrRateLimitExceeded indicates rate limit was exceeded
	ErrRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// ErrQuotaExceeded indicates the daily publish quota was exceeded
	ErrQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"
)

// Task Error Codes
const (
	// ErrTaskNotFound indicates a publish task was not found
	ErrTaskNotFound ErrorCode = "TASK_NOT_FOUND"

	// ErrInvalidStateTransition indicates an illegal task state transition
	ErrInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"

	// ErrRetryExhausted indicates the task retry budget is spent
	ErrRetryExhausted ErrorCode = "RETRY_EXHAUSTED"
)

// System Error Codes
const (
	// ErrInternal indicates an internal system error
	ErrInternal ErrorCode = "INTERNAL_ERROR"

	// ErrNotInitialized indicates the manager was used before initialization
	ErrNotInitialized ErrorCode = "NOT_INITIALIZED"

	// ErrStoreClosed indicates the task store was already closed
	ErrStoreClosed ErrorCode = "STORE_CLOSED"
)

// Priority levels for error codes
const (
	PriorityLow      = 1
	PriorityNormal   = 2
	PriorityHigh     = 3
	PriorityCritical = 4
)

// ErrorCodeInfo provides information about an error code
type ErrorCodeInfo struct {
	Code        ErrorCode `json:"code"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Priority    int       `json:"priority"`
	Retryable   bool      `json:"retryable"`
	UserFacing  bool      `json:"user_facing"`
}

// GetErrorCodeInfo returns information about an error code
func GetErrorCodeInfo(code ErrorCode) ErrorCodeInfo {
	info, exists := errorCodeInfoMap[code]
	if !exists {
		return ErrorCodeInfo{
			Code:        code,
			Category:    "unknown",
			Description: "Unknown error code",
			Priority:    PriorityNormal,
			Retryable:   false,
			UserFacing:  false,
		}
	}
	return info
}

// IsRetryable checks if an error code is retryable
func IsRetryable(code ErrorCode) bool {
	info := GetErrorCodeInfo(code)
	return info.Retryable
}

// GetCategory returns the category of an error code
func GetCategory(code ErrorCode) string {
	info := GetErrorCodeInfo(code)
	return info.Category
}

// GetPriority returns the priority of an error code
func GetPriority(code ErrorCode) int {
	info := GetErrorCodeInfo(code)
	return info.Priority
}

// Error code information mapping
var errorCodeInfoMap = map[ErrorCode]ErrorCodeInfo{
	// Configuration errors
	ErrInvalidConfig: {
		Code: ErrInvalidConfig, Category: "configuration", Description: "Invalid configuration provided",
		Priority: PriorityHigh, Retryable: false, UserFacing: true,
	},
	ErrInvalidPlatformConfig: {
		Code: ErrInvalidPlatformConfig, Category: "configuration", Description: "Invalid platform configuration",
		Priority: PriorityHigh, Retryable: false, UserFacing: true,
	},
	ErrMissingCredentials: {
		Code: ErrMissingCredentials, Category: "configuration", Description: "Platform credentials are missing",
		Priority: PriorityHigh, Retryable: false, UserFacing: true,
	},
	ErrConfigFetchFailed: {
		Code: ErrConfigFetchFailed, Category: "configuration", Description: "Remote platform configuration could not be loaded",
		Priority: PriorityCritical, Retryable: true, UserFacing: true,
	},

	// Content errors
	ErrContentInvalid: {
		Code: ErrContentInvalid, Category: "content", Description: "Content failed platform validation rules",
		Priority: PriorityNormal, Retryable: false, UserFacing: true,
	},
	ErrMissingContent: {
		Code: ErrMissingContent, Category: "content", Description: "No content was provided",
		Priority: PriorityNormal, Retryable: false, UserFacing: true,
	},

	// Platform errors
	ErrPlatformNotFound: {
		Code: ErrPlatformNotFound, Category: "platform", Description: "No adapter registered for platform",
		Priority: PriorityNormal, Retryable: false, UserFacing: true,
	},
	ErrPlatformNotSupported: {
		Code: ErrPlatformNotSupported, Category: "platform", Description: "Platform has no adapter implementation",
		Priority: PriorityNormal, Retryable: false, UserFacing: true,
	},
	ErrPlatformUnavailable: {
		Code: ErrPlatformUnavailable, Category: "platform", Description: "Platform is temporarily unavailable",
		Priority: PriorityHigh, Retryable: true, UserFacing: true,
	},
	ErrPlatformError: {
		Code: ErrPlatformError, Category: "platform", Description: "Platform returned an error",
		Priority: PriorityNormal, Retryable: true, UserFacing: true,
	},
	ErrPlatformRejected: {
		Code: ErrPlatformRejected, Category: "platform", Description: "Platform rejected the request",
		Priority: PriorityNormal, Retryable: false, UserFacing: true,
	},

	// Authentication errors
	ErrAuthFailed: {
		Code: ErrAuthFailed, Category: "auth", Description: "Platform authentication failed",
		Priority: PriorityHigh, Retryable: false, UserFacing: true,
	},
	ErrTokenExpired: {
		Code: ErrTokenExpired, Category: "auth", Description: "Access token has expired",
		Priority: PriorityHigh, Retryable: false, UserFacing: true,
	},
	ErrNotSupported: {
		Code: ErrNotSupported, Category: "auth", Description: "Operation is permanently unsupported by the platform",
		Priority: PriorityNormal, Retryable: false, UserFacing: true,
	},

	// Network errors
	ErrNetworkTimeout: {
		Code: ErrNetworkTimeout, Category: "network", Description: "Network operation timed out",
		Priority: PriorityNormal, Retryable: true, UserFacing: false,
	},
	ErrConnectionFailed: {
		Code: ErrConnectionFailed, Category: "network", Description: "Failed to establish connection",
		Priority: PriorityNormal, Retryable: true, UserFacing: false,
	},

	// Rate limiting errors
	ErrRateLimitExceeded: {
		Code: ErrRateLimitExceeded, Category: "rate_limit", Description: "Rate limit exceeded",
		Priority: PriorityNormal, Retryable: true, UserFacing: true,
	},
	ErrQuotaExceeded: {
		Code: ErrQuotaExceeded, Category: "rate_limit", Description: "Daily publish quota exhausted",
		Priority: PriorityNormal, Retryable: false, UserFacing: true,
	},

	// Task errors
	ErrTaskNotFound: {
		Code: ErrTaskNotFound, Category: "task", Description: "Publish task was not found",
		Priority: PriorityNormal, Retryable: false, UserFacing: true,
	},
	ErrInvalidStateTransition: {
		Code: ErrInvalidStateTransition, Category: "task", Description: "Illegal publish task state transition",
		Priority: PriorityNormal, Retryable: false, UserFacing: false,
	},
	ErrRetryExhausted: {
		Code: ErrRetryExhausted, Category: "task", Description: "Task retry budget is spent",
		Priority: PriorityNormal, Retryable: false, UserFacing: true,
	},

	// System errors
	ErrInternal: {
		Code: ErrInternal, Category: "system", Description: "Internal system error",
		Priority: PriorityCritical, Retryable: true, UserFacing: false,
	},
	ErrNotInitialized: {
		Code: ErrNotInitialized, Category: "system", Description: "Manager used before initialization",
		Priority: PriorityHigh, Retryable: false, UserFacing: false,
	},
	ErrStoreClosed: {
		Code: ErrStoreClosed, Category: "system", Description: "Task store was already closed",
		Priority: PriorityNormal, Retryable: false, UserFacing: false,
	},
}

// GetAllErrorCodes returns all defined error codes
func GetAllErrorCodes() []ErrorCode {
	codes := make([]ErrorCode, 0, len(errorCodeInfoMap))
	for code := range errorCodeInfoMap {
		codes = append(codes, code)
	}
	return codes
}

// GetErrorCodesByCategory returns error codes for a specific category
func GetErrorCodesByCategory(category string) []ErrorCode {
	var codes []ErrorCode
	for code, info := range errorCodeInfoMap {
		if info.Category == category {
			codes = append(codes, code)
		}
	}
	return codes
}
