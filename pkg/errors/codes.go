package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeUnknown            ErrorCode = "COMMON_000"
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeInvalidConfig      ErrorCode = "COMMON_017"
)

// Compound loading error codes
const (
	ErrCodeCompoundNotFound      ErrorCode = "CMP_001"
	ErrCodePropertiesUnavailable ErrorCode = "CMP_002"
	ErrCodeNoStructure           ErrorCode = "CMP_003"
	ErrCodeNetwork               ErrorCode = "CMP_005"
	ErrCodeRender                ErrorCode = "CMP_006"
	ErrCodeSearchInProgress      ErrorCode = "CMP_007"
	ErrCodeNothingLoaded         ErrorCode = "CMP_008"
	ErrCodeStorage               ErrorCode = "CMP_009"
)

// Kind names of the loading taxonomy.
const (
	KindNotFound              = "NotFound"
	KindPropertiesUnavailable = "PropertiesUnavailable"
	KindNoStructure           = "NoStructure"
	KindTimeout               = "Timeout"
	KindNetworkError          = "NetworkError"
	KindRenderError           = "RenderError"
)

var codeKind = map[ErrorCode]string{
	ErrCodeCompoundNotFound:      KindNotFound,
	ErrCodeNotFound:              KindNotFound,
	ErrCodePropertiesUnavailable: KindPropertiesUnavailable,
	ErrCodeNoStructure:           KindNoStructure,
	ErrCodeTimeout:               KindTimeout,
	ErrCodeNetwork:               KindNetworkError,
	ErrCodeRender:                KindRenderError,
	ErrCodeSearchInProgress:      "SearchInProgress",
	ErrCodeNothingLoaded:         "NothingLoaded",
	ErrCodeBadRequest:            "InvalidParam",
	ErrCodeInvalidConfig:         "InvalidConfig",
	ErrCodeStorage:               "StorageError",
	ErrCodeCacheError:            "CacheError",
	ErrCodeServiceUnavailable:    "Unavailable",
}

// ErrorCodeHTTPStatus maps each code to the status the HTTP surface answers with.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeUnknown:               http.StatusInternalServerError,
	ErrCodeInternal:              http.StatusInternalServerError,
	ErrCodeBadRequest:            http.StatusBadRequest,
	ErrCodeNotFound:              http.StatusNotFound,
	ErrCodeConflict:              http.StatusConflict,
	ErrCodeTooManyRequests:       http.StatusTooManyRequests,
	ErrCodeServiceUnavailable:    http.StatusServiceUnavailable,
	ErrCodeTimeout:               http.StatusGatewayTimeout,
	ErrCodeSerialization:         http.StatusInternalServerError,
	ErrCodeCacheError:            http.StatusInternalServerError,
	ErrCodeInvalidConfig:         http.StatusInternalServerError,
	ErrCodeCompoundNotFound:      http.StatusNotFound,
	ErrCodePropertiesUnavailable: http.StatusBadGateway,
	ErrCodeNoStructure:           http.StatusBadGateway,
	ErrCodeNetwork:               http.StatusBadGateway,
	ErrCodeRender:                http.StatusUnprocessableEntity,
	ErrCodeSearchInProgress:      http.StatusConflict,
	ErrCodeNothingLoaded:         http.StatusConflict,
	ErrCodeStorage:               http.StatusInternalServerError,
}

// ErrorCodeMessage holds the default user-facing message per code.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeUnknown:               "Unknown error",
	ErrCodeInternal:              "Internal error",
	ErrCodeBadRequest:            "Invalid parameter",
	ErrCodeNotFound:              "Resource not found",
	ErrCodeConflict:              "Conflict",
	ErrCodeTooManyRequests:       "Too many requests",
	ErrCodeServiceUnavailable:    "Service unavailable",
	ErrCodeTimeout:               "Request timed out",
	ErrCodeSerialization:         "Serialization failed",
	ErrCodeCacheError:            "Cache operation failed",
	ErrCodeInvalidConfig:         "Invalid configuration",
	ErrCodeCompoundNotFound:      "Compound not found",
	ErrCodePropertiesUnavailable: "Could not retrieve compound properties",
	ErrCodeNoStructure:           "Could not retrieve structure data",
	ErrCodeNetwork:               "Network error while contacting PubChem",
	ErrCodeRender:                "Failed to render molecular structure",
	ErrCodeSearchInProgress:      "A search is already in progress",
	ErrCodeNothingLoaded:         "No molecule loaded to download",
	ErrCodeStorage:               "Failed to store export",
}

// HTTPStatusForCode returns the HTTP status for code, 500 when unmapped.
func HTTPStatusForCode(code ErrorCode) int {
	if s, ok := ErrorCodeHTTPStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for code.
func DefaultMessageForCode(code ErrorCode) string {
	if m, ok := ErrorCodeMessage[code]; ok {
		return m
	}
	return "Unknown error"
}

// KindForCode returns the taxonomy name of code, "Internal" when unmapped.
func KindForCode(code ErrorCode) string {
	if k, ok := codeKind[code]; ok {
		return k
	}
	return "Internal"
}

// IsClientError reports whether code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	s := HTTPStatusForCode(code)
	return s >= 400 && s < 500
}

// IsServerError reports whether code maps to a 5xx status.
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}

// ModuleForCode returns the module prefix of code, e.g. "CMP".
func ModuleForCode(code ErrorCode) string {
	s := string(code)
	if i := strings.IndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	return ""
}
