package wizard

import (
	"context"
	"errors"
)

var ErrDraftNotFound = errors.New("draft not found")

// DraftKey scopes a draft to one user registering for one event.
type DraftKey struct {
	UserID  string
	EventID string
}

func (k DraftKey) String() string {
	return k.UserID + ":" + k.EventID
}

type DraftStore interface {
	Get(ctx context.Context, key DraftKey) (Draft, error)
	Put(ctx context.Context, key DraftKey, d Draft) error
	Delete(ctx context.Context, key DraftKey) error
}
