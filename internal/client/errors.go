package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed remote fetch.
type Kind string

const (
	// KindNotFound means the remote service has no entity with that id.
	KindNotFound Kind = "not_found"
	// KindInvalidID means the remote service rejected the id itself.
	KindInvalidID Kind = "invalid_id"
	// KindUnexpected covers every other failure, transport errors included.
	KindUnexpected Kind = "unexpected"
)

// Sentinels matched by RemoteError.Is.
var (
	ErrNotFound   = errors.New("remote entity not found")
	ErrInvalidID  = errors.New("remote entity id invalid")
	ErrUnexpected = errors.New("remote fetch failed")
)

// RemoteError is the typed result of a failed fetch.
type RemoteError struct {
	Kind    Kind
	Entity  string
	ID      string
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
	case KindInvalidID:
		return fmt.Sprintf("%s id invalid: %s", e.Entity, e.ID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s fetch %s failed (status %d): %s: %v", e.Entity, e.ID, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%s fetch %s failed (status %d): %s", e.Entity, e.ID, e.Status, e.Message)
}

// Unwrap exposes the transport error, if any.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by kind.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalidID:
		return e.Kind == KindInvalidID
	case ErrUnexpected:
		return e.Kind == KindUnexpected
	}
	return false
}

// statusKinds is the single status table shared by every remote client.
var statusKinds = map[int]Kind{
	http.StatusNotFound:            KindNotFound,
	http.StatusUnprocessableEntity: KindInvalidID,
}

// MapStatus translates an HTTP status from entity's service into a
// RemoteError. Statuses below 400 map to nil.
func MapStatus(entity, id string, status int, body []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}
	kind, ok := statusKinds[status]
	if !ok {
		kind = KindUnexpected
	}
	return &RemoteError{
		Kind:    kind,
		Entity:  entity,
		ID:      id,
		Status:  status,
		Message: errorMessage(body),
	}
}

func transportError(entity, id string, err error) error {
	return &RemoteError{Kind: KindUnexpected, Entity: entity, ID: id, Message: "transport failure", Err: err}
}

// errorMessage prefers the message field of a JSON error body.
func errorMessage(body []byte) string {
	var info struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &info); err == nil && info.Message != "" {
		return info.Message
	}
	return strings.TrimSpace(string(body))
}

// AsRemoteError extracts a RemoteError from err.
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
