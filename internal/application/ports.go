package application

import (
	"context"
	"strconv"
	"time"
)

// CacheKeyPrefix namespaces every directory listing key. Invalidating this
// prefix clears all cached listings regardless of which caller produced them.
const CacheKeyPrefix = "users:"

func listCacheKey(callerID int64) string {
	return CacheKeyPrefix + "list:" + strconv.FormatInt(callerID, 10)
}

// DirectoryCache is an optional best-effort accelerator for listings. Values are
// stored as structured JSON; implementations must never evaluate payloads.
type DirectoryCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// InvalidatePrefix removes every key that starts with prefix.
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// DirectoryIndex is an optional full-text index over user views.
type DirectoryIndex interface {
	Index(ctx context.Context, u UserView) error
	Remove(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, size int) ([]UserView, error)
}

// Account notification kinds.
const (
	EventAccountRegistered = "account_registered"
	EventAccountApproved   = "account_approved"
	EventAccountCreated    = "account_created"
)

// AccountEvent describes a lifecycle change worth telling the account owner about.
// It never carries credentials.
type AccountEvent struct {
	Kind string    `json:"kind"`
	User UserView  `json:"user"`
	At   time.Time `json:"at"`
}

// Notifier delivers account events. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, ev AccountEvent) error
}
