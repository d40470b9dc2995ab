package kernel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~aondrejcak/wellness-api/catalog"
	"git.sr.ht/~aondrejcak/wellness-api/models"
	"git.sr.ht/~aondrejcak/wellness-api/store"
)

func newTestRuntime(t *testing.T, st store.Store, env map[string]string) *AppRuntime {
	t.Helper()
	vars := map[string]string{"MONGODB_URI": "mongodb://test", "JWT_SECRET": "test"}
	for k, v := range env {
		vars[k] = v
	}
	c, err := ConfigFromEnv(vars)
	require.NoError(t, err)
	art := NewAppRuntime(c, st, catalog.Default())
	art.Passwords = fastHasher()
	return art
}

// countingStore counts every store call and can fail selected ones.
type countingStore struct {
	*store.MemoryStore

	mu                sync.Mutex
	calls             int
	findAdminErr      error
	createPermErrs    map[string]error
	attemptedPermKeys []string
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: store.NewMemoryStore(), createPermErrs: map[string]error{}}
}

func (s *countingStore) touch() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	s.touch()
	if s.findAdminErr != nil {
		return nil, s.findAdminErr
	}
	return s.MemoryStore.FindAdminByEmail(ctx, email)
}

func (s *countingStore) CreateAdmin(ctx context.Context, a *models.Admin) error {
	s.touch()
	return s.MemoryStore.CreateAdmin(ctx, a)
}

func (s *countingStore) FindPermissionByKey(ctx context.Context, key string) (*models.Permission, error) {
	s.touch()
	return s.MemoryStore.FindPermissionByKey(ctx, key)
}

func (s *countingStore) CreatePermission(ctx context.Context, p *models.Permission) error {
	s.touch()
	s.mu.Lock()
	s.attemptedPermKeys = append(s.attemptedPermKeys, p.Key)
	err := s.createPermErrs[p.Key]
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.CreatePermission(ctx, p)
}

func TestSeedInitialAdmin_CreatesPrimarySuperadmin(t *testing.T) {
	st := store.NewMemoryStore()
	art := newTestRuntime(t, st, map[string]string{
		"NODE_ENV":            EnvProduction,
		"INIT_ADMIN_EMAIL":    "a@b.com",
		"INIT_ADMIN_PASSWORD": "pw",
	})

	outcome := art.SeedInitialAdmin(context.Background())
	require.Equal(t, SeedCreated, outcome)

	admins := st.Admins()
	require.Len(t, admins, 1)
	assert.Equal(t, "a@b.com", admins[0].Email)
	assert.Equal(t, "Super Admin", admins[0].Name)
	assert.Equal(t, models.RoleSuperadmin, admins[0].Role)
	assert.True(t, admins[0].IsPrimary)
	assert.True(t, admins[0].IsActive)
	assert.NotEqual(t, "pw", admins[0].PasswordHash)
	assert.True(t, art.Passwords.Verify("pw", admins[0].PasswordHash))
}

func TestSeedInitialAdmin_SkipsWithoutCredentials(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"no email":    {"INIT_ADMIN_PASSWORD": "pw"},
		"no password": {"INIT_ADMIN_EMAIL": "a@b.com"},
	} {
		t.Run(name, func(t *testing.T) {
			st := newCountingStore()
			art := newTestRuntime(t, st, env)

			assert.Equal(t, SeedSkipped, art.SeedInitialAdmin(context.Background()))
			assert.Zero(t, st.calls)
		})
	}
}

func TestSeedInitialAdmin_ExistingIsLeftAlone(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.CreateAdmin(context.Background(), &models.Admin{
		Email: "a@b.com",
		Name:  "Original",
		Role:  models.RoleAdmin,
	}))
	art := newTestRuntime(t, st, map[string]string{
		"INIT_ADMIN_EMAIL":    "a@b.com",
		"INIT_ADMIN_PASSWORD": "pw",
	})

	assert.Equal(t, SeedExists, art.SeedInitialAdmin(context.Background()))

	admin, err := st.FindAdminByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "Original", admin.Name)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.False(t, admin.IsPrimary)
}

func TestSeedInitialAdmin_StoreFailureIsSwallowed(t *testing.T) {
	st := newCountingStore()
	st.findAdminErr = errors.New("connection refused")
	art := newTestRuntime(t, st, map[string]string{
		"INIT_ADMIN_EMAIL":    "a@b.com",
		"INIT_ADMIN_PASSWORD": "pw",
	})

	assert.Equal(t, SeedFailed, art.SeedInitialAdmin(context.Background()))
	assert.Empty(t, st.Admins())
}

func TestSeedDevDemoAdmin(t *testing.T) {
	st := store.NewMemoryStore()
	art := newTestRuntime(t, st, map[string]string{"NODE_ENV": EnvDevelopment})

	require.Equal(t, SeedCreated, art.SeedDevDemoAdmin(context.Background()))
	assert.Equal(t, SeedExists, art.SeedDevDemoAdmin(context.Background()))

	admin, err := st.FindAdminByEmail(context.Background(), DemoAdminEmail)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperadmin, admin.Role)
	assert.False(t, admin.IsPrimary)
	assert.True(t, art.Passwords.Verify(DemoAdminPassword, admin.PasswordHash))
}

func TestSeedDevDemoAdmin_NoStoreAccessOutsideDevelopment(t *testing.T) {
	for _, env := range []string{EnvProduction, "staging", "test"} {
		t.Run(env, func(t *testing.T) {
			st := newCountingStore()
			vars := map[string]string{"NODE_ENV": env}
			if env == EnvProduction {
				vars["JWT_SECRET"] = "secret"
			}
			art := newTestRuntime(t, st, vars)

			assert.Equal(t, SeedSkipped, art.SeedDevDemoAdmin(context.Background()))
			assert.Zero(t, st.calls)
			assert.Zero(t, st.Writes())
		})
	}
}

func TestSeedDevDemoAdmin_SkippedWhenEnvironmentUnset(t *testing.T) {
	st := newCountingStore()
	art := newTestRuntime(t, st, nil)

	assert.Equal(t, SeedSkipped, art.SeedDevDemoAdmin(context.Background()))
	assert.Zero(t, st.calls)
	assert.Zero(t, st.Writes())

	report := art.Seed(context.Background())
	assert.Equal(t, SeedSkipped, report.DemoAdmin)
	_, err := st.FindAdminByEmail(context.Background(), DemoAdminEmail)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// panickingStore blows up on permission lookups only.
type panickingStore struct {
	*store.MemoryStore
}

func (panickingStore) FindPermissionByKey(context.Context, string) (*models.Permission, error) {
	panic("driver bug")
}

func TestSeed_TaskPanicIsReportedAsFailure(t *testing.T) {
	st := panickingStore{MemoryStore: store.NewMemoryStore()}
	art := newTestRuntime(t, st, map[string]string{
		"INIT_ADMIN_EMAIL":    "a@b.com",
		"INIT_ADMIN_PASSWORD": "pw",
	})

	var report SeedReport
	require.NotPanics(t, func() { report = art.Seed(context.Background()) })

	assert.Equal(t, SeedFailed, report.Permissions)
	assert.Equal(t, SeedCreated, report.InitialAdmin)
	assert.Equal(t, SeedSkipped, report.DemoAdmin)
	assert.Len(t, st.Admins(), 1)
}

func TestSeedDefaultPermissions_AbortsOnFirstError(t *testing.T) {
	st := newCountingStore()
	st.createPermErrs["manage_admins"] = errors.New("write concern timeout")
	art := newTestRuntime(t, st, nil)

	created, outcome := art.SeedDefaultPermissions(context.Background())

	assert.Equal(t, SeedFailed, outcome)
	assert.Equal(t, 2, created)
	assert.Equal(t, []string{"manage_users", "manage_experts", "manage_admins"}, st.attemptedPermKeys)

	list, err := st.ListPermissions(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSeedDefaultPermissions_DuplicateCountsAsExisting(t *testing.T) {
	st := newCountingStore()
	st.createPermErrs["manage_users"] = store.ErrDuplicate
	art := newTestRuntime(t, st, nil)

	created, outcome := art.SeedDefaultPermissions(context.Background())

	assert.Equal(t, SeedCreated, outcome)
	assert.Equal(t, len(art.Catalog.Permissions)-1, created)
}

func TestSeed_Idempotent(t *testing.T) {
	st := store.NewMemoryStore()
	art := newTestRuntime(t, st, map[string]string{
		"NODE_ENV":            EnvDevelopment,
		"INIT_ADMIN_EMAIL":    "a@b.com",
		"INIT_ADMIN_PASSWORD": "pw",
	})

	first := art.Seed(context.Background())
	assert.Equal(t, SeedReport{
		InitialAdmin:       SeedCreated,
		DemoAdmin:          SeedCreated,
		Permissions:        SeedCreated,
		PermissionsCreated: 9,
	}, first)
	writes := st.Writes()

	second := art.Seed(context.Background())
	assert.Equal(t, SeedReport{
		InitialAdmin: SeedExists,
		DemoAdmin:    SeedExists,
		Permissions:  SeedExists,
	}, second)
	assert.Equal(t, writes, st.Writes())

	admins := st.Admins()
	require.Len(t, admins, 2)
	assert.Equal(t, "a@b.com", admins[0].Email)
	assert.Equal(t, DemoAdminEmail, admins[1].Email)

	list, err := st.ListPermissions(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 9)
}

func TestSeed_ConcurrentRunsProduceSingleRecords(t *testing.T) {
	st := store.NewMemoryStore()
	art := newTestRuntime(t, st, map[string]string{
		"NODE_ENV":            EnvDevelopment,
		"INIT_ADMIN_EMAIL":    "a@b.com",
		"INIT_ADMIN_PASSWORD": "pw",
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			art.Seed(context.Background())
		}()
	}
	wg.Wait()

	assert.Len(t, st.Admins(), 2)
	list, err := st.ListPermissions(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 9)
}
