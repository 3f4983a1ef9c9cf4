package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
)

var _ ports.Repository = (*Repository)(nil)

const uniqueViolation = "23505"

var sortColumns = map[apptypes.SortField]string{
	apptypes.SortCreatedAt:     "created_at",
	apptypes.SortUpdatedAt:     "updated_at",
	apptypes.SortSubmittedDate: "submitted_date",
	apptypes.SortLoanAmount:    "loan_amount",
	apptypes.SortNumber:        "application_number",
}

// Repository persists applications, their child records and reviews in PostgreSQL.
type Repository struct {
	db   *gorm.DB
	inTx bool
}

// NewRepository wires a PostgreSQL-backed repository. The caller owns the DB lifecycle
// and runs migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn inside a database transaction. Nested calls join the outer one.
func (r *Repository) Transaction(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if r.inTx {
		return fn(ctx, r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Repository{db: tx, inTx: true})
	})
}

// LockNumberPrefix takes a transaction-scoped advisory lock on prefix.
func (r *Repository) LockNumberPrefix(ctx context.Context, prefix string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error
}

// LatestNumber returns the highest application number with prefix, or "".
func (r *Repository) LatestNumber(ctx context.Context, prefix string) (domain.ApplicationNumber, error) {
	if err := r.ensureDB(); err != nil {
		return "", err
	}
	var numbers []string
	if err := r.db.WithContext(ctx).
		Model(&applicationRecord{}).
		Where("application_number LIKE ?", prefix+"%").
		Order("application_number DESC").
		Limit(1).
		Pluck("application_number", &numbers).Error; err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return domain.ApplicationNumber(numbers[0]), nil
}

// Insert stores a new application with its children.
func (r *Repository) Insert(ctx context.Context, app *domain.Application) (*apptypes.ApplicationProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if app == nil {
		return nil, errors.New("cannot insert nil application")
	}
	var out *apptypes.ApplicationProjection
	err := r.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		tx := repo.(*Repository).db.WithContext(ctx)
		record := newApplicationRecord(app)
		record.ID = 0
		if err := tx.Omit(clause.Associations).Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return ports.ErrDuplicateNumber
			}
			return err
		}
		app.ID = record.ID
		if err := writeChildren(tx, app); err != nil {
			return err
		}
		var err error
		out, err = repo.GetByID(ctx, app.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the application row and replaces its children.
func (r *Repository) Update(ctx context.Context, app *domain.Application) (*apptypes.ApplicationProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if app == nil {
		return nil, errors.New("cannot update nil application")
	}
	var out *apptypes.ApplicationProjection
	err := r.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		tx := repo.(*Repository).db.WithContext(ctx)
		record := newApplicationRecord(app)
		result := tx.Model(&applicationRecord{}).
			Where("id = ?", app.ID).
			Updates(map[string]any{
				"application_number":   record.Number,
				"status":               record.Status,
				"application_progress": record.Progress,
				"purchase_price":       record.PurchasePrice,
				"down_payment":         record.DownPayment,
				"loan_amount":          record.LoanAmount,
				"term_months":          record.TermMonths,
				"apr":                  record.APR,
				"monthly_payment":      record.MonthlyPayment,
				"submitted_date":       record.SubmittedDate,
				"decided_by":           record.DecidedBy,
				"decided_at":           record.DecidedAt,
				"updated_at":           gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			if isUniqueViolation(result.Error) {
				return ports.ErrDuplicateNumber
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrNotFound
		}
		if err := deleteChildren(tx, []int64{app.ID}); err != nil {
			return err
		}
		if err := writeChildren(tx, app); err != nil {
			return err
		}
		var err error
		out, err = repo.GetByID(ctx, app.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func writeChildren(tx *gorm.DB, app *domain.Application) error {
	personal, vehicle, financial, addresses, documents := childRecords(app)
	if personal != nil {
		if err := tx.Create(personal).Error; err != nil {
			return err
		}
	}
	if vehicle != nil {
		if err := tx.Create(vehicle).Error; err != nil {
			if isUniqueViolation(err) {
				return ports.ErrDuplicateVIN
			}
			return err
		}
	}
	if financial != nil {
		if err := tx.Create(financial).Error; err != nil {
			return err
		}
	}
	for i := range addresses {
		if err := tx.Create(&addresses[i]).Error; err != nil {
			return err
		}
	}
	for i := range documents {
		if err := tx.Create(&documents[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func deleteChildren(tx *gorm.DB, ids []int64) error {
	for _, model := range []any{&personalInfoRecord{}, &vehicleRecord{}, &financialInfoRecord{}, &addressRecord{}, &documentRecord{}} {
		if err := tx.Where("application_id IN ?", ids).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Personal").
		Preload("Vehicle").
		Preload("Financial").
		Preload("Addresses", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

// GetByID fetches an application with every child record.
func (r *Repository) GetByID(ctx context.Context, id int64) (*apptypes.ApplicationProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record applicationRecord
	if err := r.withChildren(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

// List returns one filtered, ordered page of applications.
func (r *Repository) List(ctx context.Context, filter apptypes.ApplicationFilter) (*apptypes.ApplicationPage, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	scope := func(db *gorm.DB) *gorm.DB {
		if len(filter.Statuses) > 0 {
			statuses := make([]string, 0, len(filter.Statuses))
			for _, s := range filter.Statuses {
				statuses = append(statuses, string(s))
			}
			db = db.Where("status = ANY(?)", pq.Array(statuses))
		}
		if filter.OwnerID != nil {
			db = db.Where("owner_id = ?", *filter.OwnerID)
		}
		if filter.Progress != "" {
			db = db.Where("application_progress = ?", string(filter.Progress))
		}
		if filter.NumberPrefix != "" {
			db = db.Where("application_number LIKE ?", filter.NumberPrefix+"%")
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&applicationRecord{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = sortColumns[apptypes.SortCreatedAt]
	}
	query := r.withChildren(ctx).Scopes(scope).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: filter.Descending}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: filter.Descending})
	if filter.PerPage > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PerPage)
	}
	var records []applicationRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	page := &apptypes.ApplicationPage{
		Items:   make([]*apptypes.ApplicationProjection, 0, len(records)),
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Total:   total,
	}
	for i := range records {
		page.Items = append(page.Items, records[i].toProjection())
	}
	return page, nil
}

// Delete removes the application, its children and its review.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		tx := repo.(*Repository).db.WithContext(ctx)
		removed, err := deleteApplications(tx, []int64{id})
		if err != nil {
			return err
		}
		if removed == 0 {
			return ports.ErrNotFound
		}
		return nil
	})
}

// DeleteByOwner removes every application of ownerID and returns what was removed.
func (r *Repository) DeleteByOwner(ctx context.Context, ownerID int64) ([]*domain.Application, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var removed []*domain.Application
	err := r.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		scoped := repo.(*Repository)
		var records []applicationRecord
		if err := scoped.withChildren(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&records).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		ids := make([]int64, 0, len(records))
		for i := range records {
			ids = append(ids, records[i].ID)
			removed = append(removed, records[i].toDomain())
		}
		_, err := deleteApplications(scoped.db.WithContext(ctx), ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func deleteApplications(tx *gorm.DB, ids []int64) (int64, error) {
	if err := deleteChildren(tx, ids); err != nil {
		return 0, err
	}
	if err := tx.Where("application_id IN ?", ids).Delete(&reviewRecord{}).Error; err != nil {
		return 0, err
	}
	result := tx.Where("id IN ?", ids).Delete(&applicationRecord{})
	return result.RowsAffected, result.Error
}

// GetOrCreateReview returns the review of applicationID, inserting the default one when missing.
func (r *Repository) GetOrCreateReview(ctx context.Context, applicationID int64) (*apptypes.ReviewProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if err := r.ensureApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	fresh := newReviewRecord(domain.NewReview(applicationID))
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "application_id"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, err
	}
	var record reviewRecord
	if err := db.First(&record, "application_id = ?", applicationID).Error; err != nil {
		return nil, err
	}
	return record.toProjection(), nil
}

// SaveReview upserts the review of an existing application.
func (r *Repository) SaveReview(ctx context.Context, review *domain.Review) (*apptypes.ReviewProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if review == nil {
		return nil, errors.New("cannot save nil review")
	}
	if err := r.ensureApplication(ctx, review.ApplicationID); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	record := newReviewRecord(review)
	record.ID = 0
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "application_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"personal_info_complete":  record.PersonalInfoComplete,
			"vehicle_info_complete":   record.VehicleInfoComplete,
			"financial_info_complete": record.FinancialInfoComplete,
			"documents_complete":      record.DocumentsComplete,
			"credit_check_authorized": record.CreditCheckAuthorized,
			"reviewed_by":             record.ReviewedBy,
			"review_completed_at":     record.ReviewCompletedAt,
			"notes":                   record.Notes,
			"updated_at":              gorm.Expr("NOW()"),
		}),
	}).Create(&record).Error; err != nil {
		return nil, err
	}
	var saved reviewRecord
	if err := db.First(&saved, "application_id = ?", review.ApplicationID).Error; err != nil {
		return nil, err
	}
	review.ID = saved.ID
	return saved.toProjection(), nil
}

func (r *Repository) ensureApplication(ctx context.Context, id int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&applicationRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres application repository not configured")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
