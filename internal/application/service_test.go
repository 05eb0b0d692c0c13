package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/staff-auth/internal/application"
	"github.com/oksasatya/staff-auth/internal/domain/entity"
	"github.com/oksasatya/staff-auth/internal/domain/repository"
	"github.com/oksasatya/staff-auth/internal/infrastructure/cache"
	"github.com/oksasatya/staff-auth/internal/infrastructure/memory"
	"github.com/oksasatya/staff-auth/pkg/helpers"
)

const testSecret = "test-secret"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []application.AccountEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev application.AccountEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	repo   *memory.UserRepository
	auth   *application.AuthService
	users  *application.UserService
	jwt    *helpers.JWTManager
	clock  *clock
	mr     *miniredis.Miniredis
	notify *recordingNotifier
}

// racingRepo runs a queued action right after the next single-row read
// returns, simulating a request that commits between read and write.
type racingRepo struct {
	repository.UserRepository
	mu   sync.Mutex
	next func()
}

func (r *racingRepo) afterNextRead(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = fn
}

func (r *racingRepo) fire() {
	r.mu.Lock()
	fn := r.next
	r.next = nil
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (r *racingRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	u, err := r.UserRepository.GetByID(ctx, id)
	r.fire()
	return u, err
}

func (r *racingRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := r.UserRepository.GetByEmail(ctx, email)
	r.fire()
	return u, err
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, memory.NewUserRepository(), nil)
}

func newRacingFixture(t *testing.T) (*fixture, *racingRepo) {
	t.Helper()
	mem := memory.NewUserRepository()
	rr := &racingRepo{UserRepository: mem}
	return newFixtureWithRepo(t, mem, rr), rr
}

// newFixtureWithRepo builds services over svcRepo, or over mem when svcRepo is nil.
func newFixtureWithRepo(t *testing.T, mem *memory.UserRepository, svcRepo repository.UserRepository) *fixture {
	t.Helper()
	if svcRepo == nil {
		svcRepo = mem
	}
	mr := miniredis.RunT(t)
	rdb := helpers.NewRedisClient(mr.Addr(), "", 0, time.Second)
	t.Cleanup(func() { _ = rdb.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	clk := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	jwt := helpers.NewJWTManager(testSecret, 24*time.Hour).WithClock(clk.Now)
	n := &recordingNotifier{}

	deps := application.Deps{
		Repo:     svcRepo,
		JWT:      jwt,
		Cache:    cache.NewDirectoryCache(rdb, logger),
		CacheTTL: 30 * time.Second,
		Notifier: n,
		Logger:   logger,
		Now:      clk.Now,
	}
	return &fixture{
		repo:   mem,
		auth:   application.NewAuthService(deps),
		users:  application.NewUserService(deps),
		jwt:    jwt,
		clock:  clk,
		mr:     mr,
		notify: n,
	}
}

func registerInput(name, email, emp string) application.RegisterInput {
	return application.RegisterInput{
		Name:            name,
		Email:           email,
		Password:        "password1",
		ConfirmPassword: "password1",
		Department:      "eng",
		EmployeeID:      emp,
	}
}

func (f *fixture) register(t *testing.T, name, email, emp string) *entity.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), registerInput(name, email, emp))
	require.NoError(t, err)
	return u
}

// seed registers the bootstrap admin and returns it.
func (f *fixture) seedAdmin(t *testing.T) *entity.User {
	t.Helper()
	u := f.register(t, "Root", "root@x.io", "E0")
	require.Equal(t, entity.RoleAdmin, u.Role)
	return u
}

// seedActive creates an active account with the given role through the admin.
func (f *fixture) seedActive(t *testing.T, admin *entity.User, name, email string, role entity.Role) *entity.User {
	t.Helper()
	res, err := f.users.CreateUser(context.Background(), admin, application.CreateUserInput{
		Name:            name,
		Email:           email,
		Role:            string(role),
		Password:        "password1",
		ConfirmPassword: "password1",
	})
	require.NoError(t, err)
	return res.User
}

func strPtr(s string) *string { return &s }
