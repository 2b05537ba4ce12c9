package domain

import "fmt"

// ErrorPolicy controls how tool-invocation and document errors affect a run.
type ErrorPolicy string

// Available error policies.
const (
	// PolicyContinue logs isolated failures and keeps going. This is the default.
	PolicyContinue ErrorPolicy = "continue"

	// PolicyFailFast aborts the current document and the run on the first
	// tool-invocation or document error.
	PolicyFailFast ErrorPolicy = "fail-fast"
)

// IsValid returns true if the policy is recognised.
func (p ErrorPolicy) IsValid() bool {
	return p == PolicyContinue || p == PolicyFailFast
}

// String returns the string representation.
func (p ErrorPolicy) String() string {
	return string(p)
}

// Transport selects how the tree text reaches the external tool.
type Transport string

// Available transports.
const (
	// TransportStdin streams the tree to the tool's standard input.
	TransportStdin Transport = "stdin"

	// TransportFile writes the tree to a unique temporary file and passes its
	// path as the last argument.
	TransportFile Transport = "file"
)

// ParseTransport validates a transport name. Empty selects TransportStdin.
func ParseTransport(s string) (Transport, error) {
	switch Transport(s) {
	case "", TransportStdin:
		return TransportStdin, nil
	case TransportFile:
		return TransportFile, nil
	default:
		return "", fmt.Errorf("%w: unknown transport %q (want stdin or file)", ErrInvalidInput, s)
	}
}

// DocumentFormat names a document serialization.
type DocumentFormat string

// Supported document formats.
const (
	FormatJSON    DocumentFormat = "json"
	FormatYAML    DocumentFormat = "yaml"
	FormatMsgpack DocumentFormat = "msgpack"
)

// ParseDocumentFormat validates a format name. Empty selects FormatJSON.
func ParseDocumentFormat(s string) (DocumentFormat, error) {
	switch DocumentFormat(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatMsgpack, "mp":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}
