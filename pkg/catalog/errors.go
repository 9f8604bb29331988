package catalog

import (
	"errors"
	"fmt"
)

// ConfigError reports malformed or missing catalog or rule input. It is fatal:
// generation never starts when one is returned.
type ConfigError struct {
	Source string // file path or logical source ("catalog", "rules")
	Msg    string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := e.Msg
	if e.Source != "" {
		msg = fmt.Sprintf("%s: %s", e.Source, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func configErrorf(source, format string, args ...any) *ConfigError {
	return &ConfigError{Source: source, Msg: fmt.Sprintf(format, args...)}
}
