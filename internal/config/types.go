package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that decodes from "30s" style strings or a
// bare number of seconds, so env vars like SERVER_SHUTDOWN_TIMEOUT=30 work.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	parsed, err := time.ParseDuration(s)
	if err != nil {
		secs, nerr := strconv.ParseUint(s, 10, 32)
		if nerr != nil {
			return fmt.Errorf("invalid duration %q", s)
		}
		parsed = time.Duration(secs) * time.Second
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", s)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// Duration returns the value as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// redacted replaces every non-empty secret in any printed or serialized form.
const redacted = "[REDACTED]"

var errPlaceholder = errors.New("secret value is a redaction placeholder")

// Secret holds a credential such as the TEI API key. Every formatting verb
// and encoder sees [REDACTED]; only Value and Bearer expose it.
type Secret string

func (s Secret) masked() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) String() string { return s.masked() }

// Format covers %v, %+v, %#v, %q, %x and friends.
func (s Secret) Format(f fmt.State, verb rune) {
	if verb == 'q' {
		fmt.Fprintf(f, "%q", s.masked())
		return
	}
	fmt.Fprint(f, s.masked())
}

// Value returns the raw secret.
func (s Secret) Value() string { return string(s) }

// IsSet reports whether the secret is non-empty.
func (s Secret) IsSet() bool { return s != "" }

// Bearer returns the HTTP/gRPC authorization header value.
func (s Secret) Bearer() string { return "Bearer " + string(s) }

func (s Secret) MarshalText() ([]byte, error) { return []byte(s.masked()), nil }

func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(s.masked()) }

// UnmarshalText takes the raw value; koanf decodes YAML and env through it.
// A redaction placeholder is rejected so a dumped config is never reloaded
// with "[REDACTED]" as the key.
func (s *Secret) UnmarshalText(text []byte) error {
	if string(text) == redacted {
		return errPlaceholder
	}
	*s = Secret(text)
	return nil
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(raw))
}
