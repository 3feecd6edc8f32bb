package plugin

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a host error category
type ErrorCode string

const (
	CodePluginIDRequired   ErrorCode = "PLUGIN_ID_REQUIRED"
	CodePluginNotFound     ErrorCode = "PLUGIN_NOT_FOUND"
	CodeConnectionNotFound ErrorCode = "CONNECTION_NOT_FOUND"
	CodePermissionDenied   ErrorCode = "PERMISSION_DENIED"
)

// Sentinel errors for errors.Is checks. Lookups that reference an
// unknown identity return these rather than throwing; callers must
// branch explicitly.
var (
	ErrPluginIDRequired   = &HostError{Code: CodePluginIDRequired, Message: "plugin ID is required"}
	ErrPluginNotFound     = &HostError{Code: CodePluginNotFound, Message: "plugin not found"}
	ErrConnectionNotFound = &HostError{Code: CodeConnectionNotFound, Message: "connection not found"}
)

// HostError is a typed error carrying a stable code, distinguishable
// from manifest validation failures (which are structured data, never
// errors).
type HostError struct {
	Code    ErrorCode
	Message string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on code so wrapped and detail-carrying instances compare
// equal to the sentinels.
func (e *HostError) Is(target error) bool {
	var other *HostError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// PermissionError reports a capability check failure on a scoped API call
type PermissionError struct {
	PluginID   string
	Permission Permission
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: plugin %q lacks permission %q", CodePermissionDenied, e.PluginID, e.Permission)
}

// NotFoundError reports an unknown plugin identity with context
func NotFoundError(pluginID string) error {
	return &HostError{
		Code:    CodePluginNotFound,
		Message: fmt.Sprintf("plugin %q is not registered", pluginID),
	}
}
