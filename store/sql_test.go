package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"git.sr.ht/~aondrejcak/wellness-api/models"
)

func newMockSQLStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	return NewSQLStore(db), mock
}

func TestSQLStore_FindAdminByEmail(t *testing.T) {
	s, mock := newMockSQLStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "role", "is_primary", "is_active", "permissions", "created_at"}).
		AddRow("1", "Super Admin", "a@b.com", "superadmin", true, true, `["manage_users"]`, time.Now())
	mock.ExpectQuery("SELECT \\* FROM `admins` WHERE email = \\?").
		WillReturnRows(rows)

	admin, err := s.FindAdminByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", admin.Email)
	assert.Equal(t, models.RoleSuperadmin, admin.Role)
	assert.True(t, admin.IsPrimary)
	assert.Equal(t, []string{"manage_users"}, admin.Permissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_FindAdminByEmail_NotFound(t *testing.T) {
	s, mock := newMockSQLStore(t)

	mock.ExpectQuery("SELECT \\* FROM `admins`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	_, err := s.FindAdminByEmail(context.Background(), "nobody@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CreatePermission(t *testing.T) {
	s, mock := newMockSQLStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `permissions`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := &models.Permission{Key: "manage_users", Label: "Manage Users"}
	require.NoError(t, s.CreatePermission(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CreateAdmin_Duplicate(t *testing.T) {
	s, mock := newMockSQLStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `admins`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.com' for key 'idx_admins_email'"})
	mock.ExpectRollback()

	err := s.CreateAdmin(context.Background(), &models.Admin{Email: "a@b.com", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
