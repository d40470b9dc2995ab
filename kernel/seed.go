package kernel

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"git.sr.ht/~aondrejcak/wellness-api/models"
	"git.sr.ht/~aondrejcak/wellness-api/store"
)

const (
	DemoAdminEmail    = "admin@zenovia.com"
	DemoAdminPassword = "admin123"
	DemoAdminName     = "Demo Admin"
)

type SeedOutcome string

const (
	SeedCreated SeedOutcome = "created"
	SeedExists  SeedOutcome = "exists"
	SeedSkipped SeedOutcome = "skipped"
	SeedFailed  SeedOutcome = "failed"
)

type SeedReport struct {
	InitialAdmin SeedOutcome
	DemoAdmin    SeedOutcome

	Permissions        SeedOutcome
	PermissionsCreated int
}

// Seed runs every seed task concurrently and waits for all of them. Seeding
// failures, panics included, are logged and reported as SeedFailed, never
// returned: a half-seeded store must not keep the server from starting.
func (art *AppRuntime) Seed(ctx context.Context) SeedReport {
	span, ctx := art.Diagnostic.BeginTracing(ctx, "seed")
	defer span.End()

	var (
		report SeedReport
		wg     sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		defer recoverSeed("initial_admin", &report.InitialAdmin)
		report.InitialAdmin = art.SeedInitialAdmin(ctx)
	}()
	go func() {
		defer wg.Done()
		defer recoverSeed("demo_admin", &report.DemoAdmin)
		report.DemoAdmin = art.SeedDevDemoAdmin(ctx)
	}()
	go func() {
		defer wg.Done()
		defer recoverSeed("permissions", &report.Permissions)
		report.PermissionsCreated, report.Permissions = art.SeedDefaultPermissions(ctx)
	}()
	wg.Wait()

	span.SetAttributes(
		attribute.String("seed.initial_admin", string(report.InitialAdmin)),
		attribute.String("seed.demo_admin", string(report.DemoAdmin)),
		attribute.String("seed.permissions", string(report.Permissions)),
		attribute.Int("seed.permissions_created", report.PermissionsCreated),
	)
	return report
}

// SeedInitialAdmin creates the primary superadmin from the INIT_ADMIN_* (or
// ADMIN_*) variables when no admin with that email exists.
func (art *AppRuntime) SeedInitialAdmin(ctx context.Context) SeedOutcome {
	c := art.Config
	if c.InitAdminEmail == "" || c.InitAdminPassword == "" {
		return SeedSkipped
	}

	outcome, err := art.ensureAdmin(ctx, &models.Admin{
		Name:      c.InitAdminName,
		Email:     c.InitAdminEmail,
		Role:      models.RoleSuperadmin,
		IsPrimary: true,
		IsActive:  true,
	}, c.InitAdminPassword)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("failed to seed initial admin")
	case outcome == SeedExists:
		log.Info().Str("email", c.InitAdminEmail).Msg("initial admin already exists")
	default:
		log.Info().Str("email", c.InitAdminEmail).Msg("seeded initial superadmin")
	}
	return outcome
}

// SeedDevDemoAdmin creates a non-primary demo superadmin, in development only.
func (art *AppRuntime) SeedDevDemoAdmin(ctx context.Context) SeedOutcome {
	if !art.Config.IsDevelopment() {
		return SeedSkipped
	}

	outcome, err := art.ensureAdmin(ctx, &models.Admin{
		Name:      DemoAdminName,
		Email:     DemoAdminEmail,
		Role:      models.RoleSuperadmin,
		IsPrimary: false,
		IsActive:  true,
	}, DemoAdminPassword)
	if err != nil {
		log.Error().Err(err).Msg("failed to seed dev demo admin")
	} else if outcome == SeedCreated {
		log.Info().Str("email", DemoAdminEmail).Msg("seeded development demo admin")
	}
	return outcome
}

// SeedDefaultPermissions walks the catalog in order and inserts missing keys.
// The first store error stops the walk; keys after it are left for the next
// start.
func (art *AppRuntime) SeedDefaultPermissions(ctx context.Context) (int, SeedOutcome) {
	created := 0
	for _, entry := range art.Catalog.Permissions {
		_, err := art.Store.FindPermissionByKey(ctx, entry.Key)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Int("created", created).Msg("failed to seed default permissions")
			return created, SeedFailed
		}

		err = art.Store.CreatePermission(ctx, &models.Permission{Key: entry.Key, Label: entry.Label})
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			log.Error().Err(err).Int("created", created).Msg("failed to seed default permissions")
			return created, SeedFailed
		}

		created++
		art.Diagnostic.SeedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "permission")))
		log.Info().Str("key", entry.Key).Msg("seeded permission")
	}

	if created == 0 {
		return 0, SeedExists
	}
	return created, SeedCreated
}

func (art *AppRuntime) ensureAdmin(ctx context.Context, admin *models.Admin, password string) (SeedOutcome, error) {
	span, ctx := art.Diagnostic.BeginTracing(ctx, "seed.admin")
	defer span.End()
	span.SetAttributes(attribute.String("admin.email", admin.Email))

	_, err := art.Store.FindAdminByEmail(ctx, admin.Email)
	if err == nil {
		return SeedExists, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return failSpan(span, err)
	}

	admin.PasswordHash, err = art.Passwords.Hash(password)
	if err != nil {
		return failSpan(span, err)
	}

	err = art.Store.CreateAdmin(ctx, admin)
	if errors.Is(err, store.ErrDuplicate) {
		return SeedExists, nil
	}
	if err != nil {
		return failSpan(span, err)
	}

	art.Diagnostic.SeedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "admin")))
	return SeedCreated, nil
}

// recoverSeed must be deferred directly by the task goroutine.
func recoverSeed(task string, outcome *SeedOutcome) {
	if r := recover(); r != nil {
		log.Error().Interface("panic", r).Str("task", task).Msg("seed task panicked")
		*outcome = SeedFailed
	}
}

func failSpan(span trace.Span, err error) (SeedOutcome, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return SeedFailed, err
}
