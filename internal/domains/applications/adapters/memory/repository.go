package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
)

var _ ports.Repository = (*Repository)(nil)

type applicationRecord struct {
	app       *domain.Application
	createdAt time.Time
	updatedAt time.Time
}

type reviewRecord struct {
	review    *domain.Review
	createdAt time.Time
	updatedAt time.Time
}

type state struct {
	applications map[int64]applicationRecord
	reviews      map[int64]reviewRecord
	nextID       int64
	nextReviewID int64
	nextChildID  int64
}

func (s *state) clone() *state {
	c := &state{
		applications: make(map[int64]applicationRecord, len(s.applications)),
		reviews:      make(map[int64]reviewRecord, len(s.reviews)),
		nextID:       s.nextID,
		nextReviewID: s.nextReviewID,
		nextChildID:  s.nextChildID,
	}
	for id, rec := range s.applications {
		rec.app = rec.app.Clone()
		c.applications[id] = rec
	}
	for id, rec := range s.reviews {
		rec.review = rec.review.Clone()
		c.reviews[id] = rec
	}
	return c
}

// Repository is an in-memory application store for development and tests.
// Transactions are serialized, which also serializes number allocation.
type Repository struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
	now  func() time.Time

	// tx is set on the transaction-scoped copy handed to Transaction callbacks.
	tx *state
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		data: &state{
			applications: map[int64]applicationRecord{},
			reviews:      map[int64]reviewRecord{},
		},
		now: time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Transaction runs fn against a private copy that replaces the store only when fn succeeds.
func (r *Repository) Transaction(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.RLock()
	working := r.data.clone()
	r.mu.RUnlock()

	scoped := &Repository{data: working, tx: working, now: r.now}
	if err := fn(ctx, scoped); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.data = working
	r.mu.Unlock()
	return nil
}

// read runs fn with the visible state under a read lock when outside a transaction.
func (r *Repository) read(fn func(*state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(r.data)
}

// write runs fn atomically; outside a transaction it behaves like a single-statement commit.
func (r *Repository) write(fn func(*state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	working := r.data.clone()
	if err := fn(working); err != nil {
		return err
	}
	r.data = working
	return nil
}

// LockNumberPrefix is a no-op: transactions are already serialized.
func (r *Repository) LockNumberPrefix(context.Context, string) error {
	return nil
}

// LatestNumber returns the lexically highest number with prefix.
func (r *Repository) LatestNumber(_ context.Context, prefix string) (domain.ApplicationNumber, error) {
	var latest domain.ApplicationNumber
	err := r.read(func(s *state) error {
		for _, rec := range s.applications {
			n := rec.app.Number
			if strings.HasPrefix(string(n), prefix) && n > latest {
				latest = n
			}
		}
		return nil
	})
	return latest, err
}

// Insert stores a new application and assigns identifiers.
func (r *Repository) Insert(_ context.Context, app *domain.Application) (*apptypes.ApplicationProjection, error) {
	var out *apptypes.ApplicationProjection
	err := r.write(func(s *state) error {
		if err := checkUnique(s, app, 0); err != nil {
			return err
		}
		s.nextID++
		app.ID = s.nextID
		assignChildIDs(s, app)
		now := r.now().UTC()
		rec := applicationRecord{app: app.Clone(), createdAt: now, updatedAt: now}
		s.applications[app.ID] = rec
		out = project(rec)
		return nil
	})
	return out, err
}

// Update replaces a stored application.
func (r *Repository) Update(_ context.Context, app *domain.Application) (*apptypes.ApplicationProjection, error) {
	var out *apptypes.ApplicationProjection
	err := r.write(func(s *state) error {
		existing, ok := s.applications[app.ID]
		if !ok {
			return ports.ErrNotFound
		}
		if err := checkUnique(s, app, app.ID); err != nil {
			return err
		}
		assignChildIDs(s, app)
		rec := applicationRecord{app: app.Clone(), createdAt: existing.createdAt, updatedAt: r.now().UTC()}
		s.applications[app.ID] = rec
		out = project(rec)
		return nil
	})
	return out, err
}

// GetByID returns the application with id.
func (r *Repository) GetByID(_ context.Context, id int64) (*apptypes.ApplicationProjection, error) {
	var out *apptypes.ApplicationProjection
	err := r.read(func(s *state) error {
		rec, ok := s.applications[id]
		if !ok {
			return ports.ErrNotFound
		}
		out = project(rec)
		return nil
	})
	return out, err
}

// List filters, sorts and pages applications.
func (r *Repository) List(_ context.Context, filter apptypes.ApplicationFilter) (*apptypes.ApplicationPage, error) {
	var matched []applicationRecord
	_ = r.read(func(s *state) error {
		for _, rec := range s.applications {
			if matches(rec.app, filter) {
				matched = append(matched, rec)
			}
		}
		return nil
	})
	sort.SliceStable(matched, func(i, j int) bool {
		less, equal := compare(matched[i], matched[j], filter.SortBy)
		if equal {
			less = matched[i].app.ID < matched[j].app.ID
		}
		if filter.Descending {
			return !less
		}
		return less
	})

	page := &apptypes.ApplicationPage{
		Items:   []*apptypes.ApplicationProjection{},
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Total:   int64(len(matched)),
	}
	start := filter.Offset()
	if start < 0 {
		start = 0
	}
	if start >= len(matched) {
		return page, nil
	}
	end := start + filter.PerPage
	if filter.PerPage <= 0 || end > len(matched) {
		end = len(matched)
	}
	for _, rec := range matched[start:end] {
		page.Items = append(page.Items, project(rec))
	}
	return page, nil
}

// Delete removes the application together with its review.
func (r *Repository) Delete(_ context.Context, id int64) error {
	return r.write(func(s *state) error {
		if _, ok := s.applications[id]; !ok {
			return ports.ErrNotFound
		}
		delete(s.applications, id)
		delete(s.reviews, id)
		return nil
	})
}

// DeleteByOwner removes every application of ownerID.
func (r *Repository) DeleteByOwner(_ context.Context, ownerID int64) ([]*domain.Application, error) {
	var removed []*domain.Application
	err := r.write(func(s *state) error {
		for id, rec := range s.applications {
			if rec.app.OwnerID != ownerID {
				continue
			}
			removed = append(removed, rec.app.Clone())
			delete(s.applications, id)
			delete(s.reviews, id)
		}
		return nil
	})
	sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
	return removed, err
}

// GetOrCreateReview returns the review of applicationID, creating the default one when missing.
func (r *Repository) GetOrCreateReview(_ context.Context, applicationID int64) (*apptypes.ReviewProjection, error) {
	var out *apptypes.ReviewProjection
	err := r.write(func(s *state) error {
		if _, ok := s.applications[applicationID]; !ok {
			return ports.ErrNotFound
		}
		rec, ok := s.reviews[applicationID]
		if !ok {
			s.nextReviewID++
			now := r.now().UTC()
			review := domain.NewReview(applicationID)
			review.ID = s.nextReviewID
			rec = reviewRecord{review: review, createdAt: now, updatedAt: now}
			s.reviews[applicationID] = rec
		}
		out = apptypes.NewReviewProjection(rec.review.Clone(), rec.createdAt, rec.updatedAt)
		return nil
	})
	return out, err
}

// SaveReview stores the review of an existing application.
func (r *Repository) SaveReview(_ context.Context, review *domain.Review) (*apptypes.ReviewProjection, error) {
	var out *apptypes.ReviewProjection
	err := r.write(func(s *state) error {
		if _, ok := s.applications[review.ApplicationID]; !ok {
			return ports.ErrNotFound
		}
		now := r.now().UTC()
		rec, ok := s.reviews[review.ApplicationID]
		if !ok {
			s.nextReviewID++
			review.ID = s.nextReviewID
			rec.createdAt = now
		}
		rec.review = review.Clone()
		rec.updatedAt = now
		s.reviews[review.ApplicationID] = rec
		out = apptypes.NewReviewProjection(rec.review.Clone(), rec.createdAt, rec.updatedAt)
		return nil
	})
	return out, err
}

func checkUnique(s *state, app *domain.Application, selfID int64) error {
	for id, rec := range s.applications {
		if id == selfID {
			continue
		}
		if app.Number != "" && rec.app.Number == app.Number {
			return ports.ErrDuplicateNumber
		}
		if app.Vehicle != nil && rec.app.Vehicle != nil && rec.app.Vehicle.VIN == app.Vehicle.VIN {
			return ports.ErrDuplicateVIN
		}
	}
	return nil
}

func assignChildIDs(s *state, app *domain.Application) {
	for i := range app.Addresses {
		if app.Addresses[i].ID == 0 {
			s.nextChildID++
			app.Addresses[i].ID = s.nextChildID
		}
	}
	for i := range app.Documents {
		if app.Documents[i].ID == 0 {
			s.nextChildID++
			app.Documents[i].ID = s.nextChildID
		}
	}
}

func matches(app *domain.Application, filter apptypes.ApplicationFilter) bool {
	if filter.OwnerID != nil && app.OwnerID != *filter.OwnerID {
		return false
	}
	if filter.Progress != "" && app.Progress != filter.Progress {
		return false
	}
	if filter.NumberPrefix != "" && !strings.HasPrefix(string(app.Number), filter.NumberPrefix) {
		return false
	}
	if len(filter.Statuses) == 0 {
		return true
	}
	for _, status := range filter.Statuses {
		if app.Status == status {
			return true
		}
	}
	return false
}

func compare(a, b applicationRecord, field apptypes.SortField) (less, equal bool) {
	switch field {
	case apptypes.SortUpdatedAt:
		return a.updatedAt.Before(b.updatedAt), a.updatedAt.Equal(b.updatedAt)
	case apptypes.SortSubmittedDate:
		at, bt := a.app.SubmittedDate, b.app.SubmittedDate
		switch {
		case at == nil && bt == nil:
			return false, true
		case at == nil:
			return false, false
		case bt == nil:
			return true, false
		}
		return at.Before(*bt), at.Equal(*bt)
	case apptypes.SortLoanAmount:
		cmp := a.app.Terms.LoanAmount.Cmp(b.app.Terms.LoanAmount)
		return cmp < 0, cmp == 0
	case apptypes.SortNumber:
		return a.app.Number < b.app.Number, a.app.Number == b.app.Number
	default:
		return a.createdAt.Before(b.createdAt), a.createdAt.Equal(b.createdAt)
	}
}

func project(rec applicationRecord) *apptypes.ApplicationProjection {
	return apptypes.NewApplicationProjection(rec.app.Clone(), rec.createdAt, rec.updatedAt)
}
