package config

import (
	"errors"
	"fmt"
)

// ErrConfigType is matched by every *ConfigTypeError.
var ErrConfigType = errors.New("configuration type error")

// ConfigTypeError reports an option value that cannot be coerced to the
// option's declared kind. It is fatal at startup.
type ConfigTypeError struct {
	Rule   string
	Option string
	Value  any
	Want   Kind
	Err    error
}

func (e *ConfigTypeError) Error() string {
	msg := fmt.Sprintf("rule %s: option %q: value %#v cannot be used as %s", e.Rule, e.Option, e.Value, e.Want)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigTypeError) Is(target error) bool { return target == ErrConfigType }

func (e *ConfigTypeError) Unwrap() error { return e.Err }
