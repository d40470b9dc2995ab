package store

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"git.sr.ht/~aondrejcak/wellness-api/models"
)

type SQLStore struct {
	db *gorm.DB
}

// OpenSQL opens a MySQL database through gorm with tracing enabled.
func OpenSQL(dsn string) (*SQLStore, error) {
	dbLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: dbLogger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("opening mysql: %w", err)
	}

	if err = db.Use(otelgorm.NewPlugin(
		otelgorm.WithAttributes(),
		otelgorm.WithTracerProvider(otel.GetTracerProvider()),
	)); err != nil {
		return nil, fmt.Errorf("installing gorm tracing: %w", err)
	}

	return NewSQLStore(db), nil
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	admin := &models.Admin{}
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding admin %s: %w", email, err)
	}
	return admin, nil
}

func (s *SQLStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	stampAdmin(admin)
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting admin %s: %w", admin.Email, err)
	}
	return nil
}

func (s *SQLStore) FindPermissionByKey(ctx context.Context, key string) (*models.Permission, error) {
	permission := &models.Permission{}
	if err := s.db.WithContext(ctx).Where("`key` = ?", key).First(permission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding permission %s: %w", key, err)
	}
	return permission, nil
}

func (s *SQLStore) CreatePermission(ctx context.Context, permission *models.Permission) error {
	stampPermission(permission)
	if err := s.db.WithContext(ctx).Create(permission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting permission %s: %w", permission.Key, err)
	}
	return nil
}

func (s *SQLStore) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	permissions := make([]models.Permission, 0)
	if err := s.db.WithContext(ctx).Order("created_at, `key`").Find(&permissions).Error; err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	return permissions, nil
}

// EnsureIndexes migrates both tables; the unique indexes come from the
// model tags.
func (s *SQLStore) EnsureIndexes(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.Admin{}, &models.Permission{}); err != nil {
		return fmt.Errorf("migrating tables: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
