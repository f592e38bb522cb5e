package rooms

import "unicode/utf8"

// Validation limits.
const (
	MaxNameLength    = 64
	MaxMessageLength = 4096
)

// ValidateName validates a user display name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return Errf(KindInvalidInput, "name is required")
	case len(name) > MaxNameLength:
		return Errf(KindInvalidInput, "name exceeds %d bytes", MaxNameLength)
	case !utf8.ValidString(name):
		return Errf(KindInvalidInput, "name is not valid UTF-8")
	}
	return nil
}

// ValidateChat validates a chat message body.
func ValidateChat(message string) error {
	switch {
	case message == "":
		return Errf(KindInvalidInput, "message is required")
	case len(message) > MaxMessageLength:
		return Errf(KindInvalidInput, "message exceeds %d bytes", MaxMessageLength)
	case !utf8.ValidString(message):
		return Errf(KindInvalidInput, "message is not valid UTF-8")
	}
	return nil
}
