package service

import (
	"errors"
)

// Kind classifies a service failure so the transport can pick a status code
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnavailable
	KindConflict
	KindInvalid
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Error is a domain failure safe to show to the caller
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is lets errors.Is match any error of the same kind against a kind-only sentinel
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" {
		return false
	}
	return e.Kind == t.Kind
}

// Kind-only sentinels for errors.Is
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrUnavailable     = &Error{Kind: KindUnavailable}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrInvalid         = &Error{Kind: KindInvalid}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
)

var (
	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Message: "invalid email or password"}
	ErrEmailTaken         = &Error{Kind: KindConflict, Message: "email is already registered"}

	ErrPresetNotFound    = &Error{Kind: KindNotFound, Message: "preset not found"}
	ErrPresetUnavailable = &Error{Kind: KindUnavailable, Message: "preset is not available for purchase"}
	ErrAlreadyPurchased  = &Error{Kind: KindConflict, Message: "preset already purchased"}
	ErrPresetInUse       = &Error{Kind: KindConflict, Message: "preset has purchases"}

	ErrCategoryNotFound = &Error{Kind: KindNotFound, Message: "category not found"}
	ErrCategoryExists   = &Error{Kind: KindConflict, Message: "category with this name already exists"}

	ErrProductNotFound = &Error{Kind: KindNotFound, Message: "product not found"}
)

// KindOf reports the kind of err; anything that is not an *Error is internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func invalidf(message string) error {
	return &Error{Kind: KindInvalid, Message: message}
}
