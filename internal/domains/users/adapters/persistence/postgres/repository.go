package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	usertypes "github.com/Apurer/auto-loan-origination/internal/domains/users/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists users in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type userRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	Email        string    `gorm:"column:email;size:254;uniqueIndex:idx_users_email;not null"`
	PhoneNumber  string    `gorm:"column:phone_number;size:16;uniqueIndex:idx_users_phone_number;not null"`
	FirstName    string    `gorm:"column:first_name;size:100"`
	LastName     string    `gorm:"column:last_name;size:100"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"column:role;size:20;not null;default:customer"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

// Models lists the GORM models owned by the users bounded context.
func Models() []any {
	return []any{&userRecord{}, &sessionRecord{}}
}

// Insert stores a new user.
func (r *Repository) Insert(ctx context.Context, user *domain.User) (*usertypes.UserProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user is nil")
	}
	record := toRecord(user)
	record.ID = 0
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, translateUnique(err)
	}
	return record.toProjection(), nil
}

// GetByID fetches a user by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*usertypes.UserProjection, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail fetches a user by normalized email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*usertypes.UserProjection, error) {
	return r.first(ctx, "email = ?", strings.TrimSpace(email))
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*usertypes.UserProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record userRecord
	if err := r.db.WithContext(ctx).First(&record, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

// List returns all users ordered by id.
func (r *Repository) List(ctx context.Context) ([]*usertypes.UserProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []userRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	users := make([]*usertypes.UserProjection, 0, len(records))
	for i := range records {
		users = append(users, records[i].toProjection())
	}
	return users, nil
}

// UpdateRole changes a user's role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role authz.Role) (*usertypes.UserProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	result := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).
		Updates(map[string]any{"role": string(role), "updated_at": gorm.Expr("NOW()")})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a user by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&userRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres user repository not configured")
	}
	return nil
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	if strings.Contains(pgErr.ConstraintName, "phone") {
		return ports.ErrDuplicatePhone
	}
	return ports.ErrDuplicateEmail
}

func toRecord(user *domain.User) userRecord {
	return userRecord{
		ID:           user.ID,
		Email:        user.Email,
		PhoneNumber:  user.PhoneNumber,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
	}
}

func (r userRecord) toProjection() *usertypes.UserProjection {
	user := &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PhoneNumber:  r.PhoneNumber,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: r.PasswordHash,
		Role:         authz.Role(r.Role),
	}
	return usertypes.NewUserProjection(user, r.CreatedAt, r.UpdatedAt)
}
