package cosmos

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPath      = errors.New("cosmos: invalid derivation path")
	ErrInvalidHRP       = errors.New("cosmos: invalid human readable part")
	ErrInvalidVersion   = errors.New("cosmos: invalid version reply")
	ErrInvalidPublicKey = errors.New("cosmos: invalid public key")
	ErrInvalidAddress   = errors.New("cosmos: invalid address")
	ErrSignatureParse   = errors.New("cosmos: cannot parse signature")
	ErrVersionRequired  = errors.New("cosmos: app version too old")
)

// DecodeError reports a reply whose data could not be turned into a result.
// The device accepted the command, so retrying will not help.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErrorf(sentinel error, format string, args ...any) error {
	return &DecodeError{Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}

// VersionRequiredError is returned when the app on the device is older than
// the version a feature needs.
type VersionRequiredError struct {
	Found    AppVersion
	Required AppVersion
}

func (e *VersionRequiredError) Error() string {
	return fmt.Sprintf("app version %s found, %s or newer required", e.Found, e.Required)
}

func (e *VersionRequiredError) Unwrap() error {
	return ErrVersionRequired
}
