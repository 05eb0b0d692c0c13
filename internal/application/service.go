package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/staff-auth/internal/domain/entity"
	repo "github.com/oksasatya/staff-auth/internal/domain/repository"
	"github.com/oksasatya/staff-auth/pkg/helpers"
)

// Deps wires the collaborators shared by the auth and user services.
// Cache, Index and Notifier are optional; leave them nil to disable.
type Deps struct {
	Repo     repo.UserRepository
	JWT      *helpers.JWTManager
	Cache    DirectoryCache
	CacheTTL time.Duration
	Index    DirectoryIndex
	Notifier Notifier
	Logger   *logrus.Logger
	Now      func() time.Time
}

// directory holds the best-effort side effects that follow a user mutation.
// None of them can fail the operation that triggered them.
type directory struct {
	cache    DirectoryCache
	cacheTTL time.Duration
	index    DirectoryIndex
	notifier Notifier
	logger   *logrus.Logger
	now      func() time.Time
}

func newDirectory(d Deps) directory {
	dir := directory{
		cache:    d.Cache,
		cacheTTL: d.CacheTTL,
		index:    d.Index,
		notifier: d.Notifier,
		logger:   d.Logger,
		now:      d.Now,
	}
	if dir.logger == nil {
		dir.logger = logrus.StandardLogger()
	}
	if dir.now == nil {
		dir.now = time.Now
	}
	if dir.cacheTTL <= 0 {
		dir.cacheTTL = 30 * time.Second
	}
	return dir
}

func (d directory) invalidate(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.InvalidatePrefix(ctx, CacheKeyPrefix); err != nil {
		d.logger.WithError(err).Warn("directory cache invalidation failed")
	}
}

func (d directory) reindex(ctx context.Context, u *entity.User) {
	if d.index == nil {
		return
	}
	if err := d.index.Index(ctx, ToView(u)); err != nil {
		d.logger.WithError(err).WithField("user_id", u.ID).Warn("index user failed")
	}
}

func (d directory) unindex(ctx context.Context, id int64) {
	if d.index == nil {
		return
	}
	if err := d.index.Remove(ctx, id); err != nil {
		d.logger.WithError(err).WithField("user_id", id).Warn("remove user from index failed")
	}
}

func (d directory) notify(ctx context.Context, kind string, u *entity.User) {
	if d.notifier == nil {
		return
	}
	ev := AccountEvent{Kind: kind, User: ToView(u), At: d.now().UTC()}
	if err := d.notifier.Notify(ctx, ev); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{"user_id": u.ID, "kind": kind}).Warn("account notification failed")
	}
}

// changed runs every side effect for a created or updated user.
func (d directory) changed(ctx context.Context, u *entity.User) {
	d.invalidate(ctx)
	d.reindex(ctx, u)
}
