package apierror

import "fmt"

// Kind is the category of a classified failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindTimeout
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindServer
)

var kindNames = [...]string{
	KindUnknown:        "UNKNOWN",
	KindNetwork:        "NETWORK",
	KindTimeout:        "TIMEOUT",
	KindValidation:     "VALIDATION",
	KindAuthentication: "AUTHENTICATION",
	KindAuthorization:  "AUTHORIZATION",
	KindNotFound:       "NOT_FOUND",
	KindServer:         "SERVER",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindUnknown, KindNetwork, KindTimeout, KindValidation,
		KindAuthentication, KindAuthorization, KindNotFound, KindServer,
	}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses the String form of a kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return KindUnknown, fmt.Errorf("apierror: unknown kind %q", s)
}

// Retryable reports whether failures of this kind are worth another attempt.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindServer:
		return true
	default:
		return false
	}
}

// Severity returns the fixed severity for the kind.
func (k Kind) Severity() Severity {
	switch k {
	case KindTimeout, KindValidation, KindNotFound:
		return SeverityLow
	case KindServer:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// MessageKey is the catalog key of the kind's default message.
func (k Kind) MessageKey() string {
	switch k {
	case KindNetwork:
		return "error.network"
	case KindTimeout:
		return "error.timeout"
	case KindValidation:
		return "error.validation"
	case KindAuthentication:
		return "error.authentication"
	case KindAuthorization:
		return "error.authorization"
	case KindNotFound:
		return "error.not_found"
	case KindServer:
		return "error.server"
	default:
		return "error.unknown"
	}
}

// Severity grades how disruptive a failure is to the user.
//
// SeverityCritical is never produced by the classifier; it is available to
// callers that want to escalate.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{
	SeverityLow:      "LOW",
	SeverityMedium:   "MEDIUM",
	SeverityHigh:     "HIGH",
	SeverityCritical: "CRITICAL",
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	for i, name := range severityNames {
		if name == string(text) {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("apierror: unknown severity %q", text)
}
