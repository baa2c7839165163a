package config

import (
	"errors"
	"fmt"
	"time"
)

// Duration is a time.Duration read from text, as YAML and ESTIMATOR_* env
// values are.
type Duration time.Duration

// UnmarshalText parses Go duration notation. Negative values are rejected.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Duration) String() string { return time.Duration(d).String() }

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

const redacted = "[REDACTED]"

// ErrRedactedSecret is returned when a config value is the redaction
// placeholder, as happens when a dumped config is loaded back.
var ErrRedactedSecret = errors.New("secret value is a redacted placeholder")

// Secret holds an API key. It prints and marshals as a placeholder; Value
// returns the key.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// GoString keeps the key out of %#v.
func (s Secret) GoString() string { return "Secret(" + redacted + ")" }

// Value returns the key.
func (s Secret) Value() string { return string(s) }

// IsSet reports whether a key is configured.
func (s Secret) IsSet() bool { return s != "" }

// MarshalText renders the placeholder, which also covers JSON.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts a raw key and rejects the placeholder.
func (s *Secret) UnmarshalText(text []byte) error {
	if string(text) == redacted {
		return ErrRedactedSecret
	}
	*s = Secret(text)
	return nil
}
