// Package store persists administrators and permissions.
//
// Two backends implement Store: MongoStore, the primary document store, and
// SQLStore, a gorm backed MySQL store. Both enforce uniqueness of admin
// emails and permission keys with unique indexes created by EnsureIndexes,
// so concurrent find-or-create callers observe ErrDuplicate instead of
// writing a second record.
package store

import (
	"context"
	"errors"

	"git.sr.ht/~aondrejcak/wellness-api/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Store interface {
	FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	CreateAdmin(ctx context.Context, admin *models.Admin) error

	FindPermissionByKey(ctx context.Context, key string) (*models.Permission, error)
	CreatePermission(ctx context.Context, permission *models.Permission) error
	ListPermissions(ctx context.Context) ([]models.Permission, error)

	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
