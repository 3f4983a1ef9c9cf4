package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

const (
	// DefaultNumberAttempts bounds retries after an application number clash.
	DefaultNumberAttempts = 5
	// MaxDocumentBytes caps a single uploaded document.
	MaxDocumentBytes = 10 << 20
)

// Service orchestrates the applications bounded context use cases.
type Service struct {
	repo           ports.Repository
	blobs          ports.BlobStore
	events         ports.EventPublisher
	numbers        *NumberGenerator
	numberAttempts int
	now            func() time.Time
	logger         *slog.Logger
}

// Option customizes the service.
type Option func(*Service)

// WithBlobStore wires document storage.
func WithBlobStore(store ports.BlobStore) Option {
	return func(s *Service) { s.blobs = store }
}

// WithEventPublisher wires the post-commit event sink.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) { s.events = publisher }
}

// WithNumberGenerator overrides the default jurisdiction handling.
func WithNumberGenerator(generator *NumberGenerator) Option {
	return func(s *Service) { s.numbers = generator }
}

// WithNumberAttempts bounds how often a create is retried after a number clash.
func WithNumberAttempts(attempts int) Option {
	return func(s *Service) { s.numberAttempts = attempts }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for post-commit side effects.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService wires the applications service with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		events:         ports.NoopEventPublisher,
		numberAttempts: DefaultNumberAttempts,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.numbers == nil {
		s.numbers = &NumberGenerator{defaultJurisdiction: DefaultJurisdiction}
	}
	if s.events == nil {
		s.events = ports.NoopEventPublisher
	}
	if s.numberAttempts < 1 {
		s.numberAttempts = 1
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// CreateApplication stores a numbered draft owned by the acting user.
func (s *Service) CreateApplication(ctx context.Context, actor authz.Actor, input apptypes.CreateApplicationInput) (*apptypes.ApplicationProjection, error) {
	if err := domain.Authorize(actor, domain.ActionCreate, nil); err != nil {
		return nil, err
	}
	now := s.now()
	app, err := buildApplication(actor.ID, input, now)
	if err != nil {
		return nil, mapError(err)
	}
	jurisdiction := s.numbers.JurisdictionFor(app)
	year := now.Year()

	var saved *apptypes.ApplicationProjection
	for attempt := 1; ; attempt++ {
		candidate := app.Clone()
		err = s.repo.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
			number, err := s.numbers.Next(ctx, repo, jurisdiction, year)
			if err != nil {
				return err
			}
			if err := candidate.AssignNumber(number); err != nil {
				return err
			}
			saved, err = repo.Insert(ctx, candidate)
			return err
		})
		if err == nil {
			break
		}
		if errors.Is(err, ports.ErrDuplicateNumber) && attempt < s.numberAttempts {
			s.logger.WarnContext(ctx, "application number taken, retrying",
				slog.String("jurisdiction", jurisdiction), slog.Int("attempt", attempt))
			continue
		}
		return nil, mapError(err)
	}
	s.publish(ctx, domain.ApplicationCreated{
		BaseEvent:     domain.BaseEvent{Timestamp: now},
		ApplicationID: saved.Entity.ID,
		Number:        saved.Entity.Number,
		OwnerID:       saved.Entity.OwnerID,
	})
	return saved, nil
}

func buildApplication(ownerID int64, input apptypes.CreateApplicationInput, now time.Time) (*domain.Application, error) {
	app, err := domain.NewApplication(ownerID, input.Terms)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Progress) != "" {
		if err := app.SetProgress(domain.Progress(input.Progress)); err != nil {
			return nil, err
		}
	}
	if input.Personal != nil {
		if err := app.SetPersonalInfo(*input.Personal, now); err != nil {
			return nil, err
		}
	}
	if input.Vehicle != nil {
		if err := app.SetVehicle(*input.Vehicle, now); err != nil {
			return nil, err
		}
	}
	if input.Financial != nil {
		if err := app.SetFinancialInfo(*input.Financial); err != nil {
			return nil, err
		}
	}
	if len(input.Addresses) > 0 {
		if err := app.ReplaceAddresses(input.Addresses); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// UpdateApplication applies a partial update after the ownership and status checks.
func (s *Service) UpdateApplication(ctx context.Context, actor authz.Actor, input apptypes.UpdateApplicationInput) (*apptypes.ApplicationProjection, error) {
	var saved *apptypes.ApplicationProjection
	err := s.repo.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		current, err := repo.GetByID(ctx, input.ID)
		if err != nil {
			return err
		}
		app := current.Entity
		if err := domain.Authorize(actor, domain.ActionUpdate, app); err != nil {
			return err
		}
		if err := applyUpdate(app, input, s.now()); err != nil {
			return err
		}
		saved, err = repo.Update(ctx, app)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func applyUpdate(app *domain.Application, input apptypes.UpdateApplicationInput, now time.Time) error {
	if input.HasTermChanges() {
		terms := app.Terms
		if input.PurchasePrice != nil {
			terms.PurchasePrice = *input.PurchasePrice
		}
		if input.DownPayment != nil {
			terms.DownPayment = *input.DownPayment
		}
		if input.LoanAmount != nil {
			terms.LoanAmount = *input.LoanAmount
		}
		if input.TermMonths != nil {
			terms.TermMonths = *input.TermMonths
		}
		if input.APR != nil {
			terms.APR.Decimal = *input.APR
			terms.APR.Valid = true
		}
		if err := app.ReviseTerms(terms); err != nil {
			return err
		}
	} else if app.Status.IsTerminal() {
		return domain.FieldError{Field: "status", Message: domain.ErrNotEditable.Error(), Err: domain.ErrNotEditable}
	}
	if input.Progress != nil {
		if err := app.SetProgress(domain.Progress(*input.Progress)); err != nil {
			return err
		}
	}
	if input.Personal != nil {
		if err := app.SetPersonalInfo(*input.Personal, now); err != nil {
			return err
		}
	}
	if input.Vehicle != nil {
		if err := app.SetVehicle(*input.Vehicle, now); err != nil {
			return err
		}
	}
	if input.Financial != nil {
		if err := app.SetFinancialInfo(*input.Financial); err != nil {
			return err
		}
	}
	if input.Addresses != nil {
		if err := app.ReplaceAddresses(*input.Addresses); err != nil {
			return err
		}
	}
	return nil
}

// SubmitApplication moves the owner's complete draft to submitted.
func (s *Service) SubmitApplication(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) (*apptypes.ApplicationProjection, error) {
	return s.transition(ctx, id.ID, func(ctx context.Context, repo ports.Repository, app *domain.Application) error {
		if err := domain.Authorize(actor, domain.ActionSubmit, app); err != nil {
			return err
		}
		return app.Submit(actor.ID, s.now())
	})
}

// RequestDocuments parks a reviewable application until documents arrive.
func (s *Service) RequestDocuments(ctx context.Context, actor authz.Actor, input apptypes.RequestDocumentsInput) (*apptypes.ApplicationProjection, error) {
	return s.transition(ctx, input.ApplicationID, func(ctx context.Context, repo ports.Repository, app *domain.Application) error {
		if err := domain.Authorize(actor, domain.ActionRequestDocuments, app); err != nil {
			return err
		}
		if err := app.RequestDocuments(actor.ID, s.now()); err != nil {
			return err
		}
		return appendReviewNote(ctx, repo, app.ID, input.Notes)
	})
}

// DecideApplication applies a reviewer disposition.
func (s *Service) DecideApplication(ctx context.Context, actor authz.Actor, input apptypes.DecideApplicationInput) (*apptypes.ApplicationProjection, error) {
	disposition, err := domain.ParseDisposition(input.Disposition)
	if err != nil {
		return nil, mapError(domain.FieldError{Field: "disposition", Message: err.Error(), Err: err})
	}
	return s.transition(ctx, input.ApplicationID, func(ctx context.Context, repo ports.Repository, app *domain.Application) error {
		if err := domain.Authorize(actor, domain.ActionDecide, app); err != nil {
			return err
		}
		review, err := repo.GetOrCreateReview(ctx, app.ID)
		if err != nil {
			return err
		}
		if err := app.Decide(disposition, review.Entity, actor.ID, s.now()); err != nil {
			return err
		}
		return appendReviewNote(ctx, repo, app.ID, input.Notes)
	})
}

func appendReviewNote(ctx context.Context, repo ports.Repository, applicationID int64, note string) error {
	if strings.TrimSpace(note) == "" {
		return nil
	}
	review, err := repo.GetOrCreateReview(ctx, applicationID)
	if err != nil {
		return err
	}
	review.Entity.AppendNote(note)
	_, err = repo.SaveReview(ctx, review.Entity)
	return err
}

// transition loads an application, runs step and saves it in one unit of work.
func (s *Service) transition(ctx context.Context, id int64, step func(context.Context, ports.Repository, *domain.Application) error) (*apptypes.ApplicationProjection, error) {
	var (
		saved  *apptypes.ApplicationProjection
		events []domain.Event
	)
	err := s.repo.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		app := current.Entity
		if err := step(ctx, repo, app); err != nil {
			return err
		}
		events = app.Events()
		saved, err = repo.Update(ctx, app)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, events...)
	return saved, nil
}

// SetReviewCompleteness sets one checklist flag, stamping the review on completion.
func (s *Service) SetReviewCompleteness(ctx context.Context, actor authz.Actor, input apptypes.SetReviewCompletenessInput) (*apptypes.ReviewProjection, error) {
	if err := authz.RequireReviewer(actor); err != nil {
		return nil, err
	}
	dimension, err := domain.ParseDimension(input.Dimension)
	if err != nil {
		return nil, mapError(domain.FieldError{Field: "dimension", Message: err.Error(), Err: err})
	}
	var (
		saved  *apptypes.ReviewProjection
		events []domain.Event
	)
	err = s.repo.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		current, err := repo.GetByID(ctx, input.ApplicationID)
		if err != nil {
			return err
		}
		app := current.Entity
		if err := domain.Authorize(actor, domain.ActionReview, app); err != nil {
			return err
		}
		review, err := repo.GetOrCreateReview(ctx, app.ID)
		if err != nil {
			return err
		}
		_, statusChanged, err := app.MarkReview(review.Entity, dimension, input.Value, actor.ID, s.now())
		if err != nil {
			return err
		}
		if saved, err = repo.SaveReview(ctx, review.Entity); err != nil {
			return err
		}
		events = app.Events()
		if statusChanged {
			_, err = repo.Update(ctx, app)
		}
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, events...)
	return saved, nil
}

// SetReviewNotes replaces the reviewer notes.
func (s *Service) SetReviewNotes(ctx context.Context, actor authz.Actor, input apptypes.SetReviewNotesInput) (*apptypes.ReviewProjection, error) {
	if err := authz.RequireReviewer(actor); err != nil {
		return nil, err
	}
	var saved *apptypes.ReviewProjection
	err := s.repo.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		if _, err := repo.GetByID(ctx, input.ApplicationID); err != nil {
			return err
		}
		review, err := repo.GetOrCreateReview(ctx, input.ApplicationID)
		if err != nil {
			return err
		}
		review.Entity.SetNotes(input.Notes)
		saved, err = repo.SaveReview(ctx, review.Entity)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// GetReview returns the checklist, creating the default one on first access.
func (s *Service) GetReview(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) (*apptypes.ReviewProjection, error) {
	if err := authz.RequireReviewer(actor); err != nil {
		return nil, err
	}
	var review *apptypes.ReviewProjection
	err := s.repo.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		if _, err := repo.GetByID(ctx, id.ID); err != nil {
			return err
		}
		var err error
		review, err = repo.GetOrCreateReview(ctx, id.ID)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return review, nil
}

// GetApplication returns one application visible to the actor.
func (s *Service) GetApplication(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) (*apptypes.ApplicationProjection, error) {
	if err := authz.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	projection, err := s.repo.GetByID(ctx, id.ID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := domain.Authorize(actor, domain.ActionView, projection.Entity); err != nil {
		return nil, err
	}
	return projection, nil
}

// ListApplications pages through applications; customers only ever see their own.
func (s *Service) ListApplications(ctx context.Context, actor authz.Actor, query apptypes.ListApplicationsQuery) (*apptypes.ApplicationPage, error) {
	if err := authz.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	filter, err := buildFilter(query)
	if err != nil {
		return nil, mapError(err)
	}
	if !actor.IsReviewer() {
		owner := actor.ID
		filter.OwnerID = &owner
	}
	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return page, nil
}

func buildFilter(query apptypes.ListApplicationsQuery) (apptypes.ApplicationFilter, error) {
	var errs domain.ValidationErrors
	filter := apptypes.ApplicationFilter{
		OwnerID:      query.OwnerID,
		NumberPrefix: strings.ToUpper(strings.TrimSpace(query.NumberPrefix)),
		Descending:   query.Descending,
		Page:         query.Page,
		PerPage:      query.PerPage,
	}
	for _, raw := range query.Statuses {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, err := domain.ParseStatus(part)
			if err != nil {
				errs = append(errs, domain.FieldError{Field: "status", Message: err.Error(), Err: err})
				continue
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if strings.TrimSpace(query.Progress) != "" {
		progress, err := domain.ParseProgress(query.Progress)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "progress", Message: err.Error(), Err: err})
		}
		filter.Progress = progress
	}
	sortBy, err := apptypes.ParseSortField(query.SortBy)
	if err != nil {
		errs = append(errs, domain.FieldError{Field: "sort", Message: err.Error(), Err: domain.ErrInvalidFormat})
	}
	filter.SortBy = sortBy
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = apptypes.DefaultPerPage
	}
	if filter.PerPage > apptypes.MaxPerPage {
		filter.PerPage = apptypes.MaxPerPage
	}
	if len(errs) > 0 {
		return apptypes.ApplicationFilter{}, errs
	}
	return filter, nil
}

// DeleteApplication removes an application with every owned record and blob.
func (s *Service) DeleteApplication(ctx context.Context, actor authz.Actor, id apptypes.ApplicationIdentifier) error {
	var removed *domain.Application
	err := s.repo.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		current, err := repo.GetByID(ctx, id.ID)
		if err != nil {
			return err
		}
		if err := domain.Authorize(actor, domain.ActionDelete, current.Entity); err != nil {
			return err
		}
		removed = current.Entity
		return repo.Delete(ctx, id.ID)
	})
	if err != nil {
		return mapError(err)
	}
	s.deleteBlobs(ctx, removed.Documents)
	s.publish(ctx, domain.ApplicationDeleted{
		BaseEvent:     domain.BaseEvent{Timestamp: s.now()},
		ApplicationID: removed.ID,
		Number:        removed.Number,
		ActorID:       actor.ID,
	})
	return nil
}

// DeleteApplicationsOwnedBy removes all applications of a user being deleted.
func (s *Service) DeleteApplicationsOwnedBy(ctx context.Context, ownerID int64) error {
	var removed []*domain.Application
	err := s.repo.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		removed, err = repo.DeleteByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		return mapError(err)
	}
	now := s.now()
	events := make([]domain.Event, 0, len(removed))
	for _, app := range removed {
		s.deleteBlobs(ctx, app.Documents)
		events = append(events, domain.ApplicationDeleted{
			BaseEvent:     domain.BaseEvent{Timestamp: now},
			ApplicationID: app.ID,
			Number:        app.Number,
			ActorID:       ownerID,
		})
	}
	s.publish(ctx, events...)
	return nil
}

// AttachDocument stores the bytes and records the document on the application.
func (s *Service) AttachDocument(ctx context.Context, actor authz.Actor, input apptypes.AttachDocumentInput) (*apptypes.ApplicationProjection, error) {
	if s.blobs == nil {
		return nil, errors.New("document storage not configured")
	}
	if err := validateUpload(input); err != nil {
		return nil, mapError(err)
	}
	current, err := s.repo.GetByID(ctx, input.ApplicationID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := domain.Authorize(actor, domain.ActionManageDocuments, current.Entity); err != nil {
		return nil, err
	}
	url, err := s.blobs.Store(ctx, input.Data, ports.BlobMetadata{
		ApplicationID: input.ApplicationID,
		Name:          input.Name,
		ContentType:   input.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	now := s.now()
	saved, err := s.mutate(ctx, input.ApplicationID, func(app *domain.Application) error {
		if err := domain.Authorize(actor, domain.ActionManageDocuments, app); err != nil {
			return err
		}
		return app.AttachDocument(domain.Document{
			Name:        strings.TrimSpace(input.Name),
			Description: strings.TrimSpace(input.Description),
			ContentType: input.ContentType,
			SizeBytes:   int64(len(input.Data)),
			URL:         url,
			UploadedBy:  actor.ID,
			UploadedAt:  now.UTC(),
		})
	})
	if err != nil {
		s.deleteBlobs(ctx, []domain.Document{{URL: url}})
		return nil, err
	}
	return saved, nil
}

func validateUpload(input apptypes.AttachDocumentInput) error {
	var errs domain.ValidationErrors
	if strings.TrimSpace(input.Name) == "" {
		errs = append(errs, domain.FieldError{Field: "document.name", Message: "is required", Err: domain.ErrInvalidDocument})
	}
	if len(input.Data) == 0 {
		errs = append(errs, domain.FieldError{Field: "document.file", Message: "is empty", Err: domain.ErrInvalidDocument})
	}
	if len(input.Data) > MaxDocumentBytes {
		errs = append(errs, domain.FieldError{Field: "document.file", Message: "exceeds 10 MiB", Err: domain.ErrInvalidDocument})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RemoveDocument detaches a document and deletes its blob after commit.
func (s *Service) RemoveDocument(ctx context.Context, actor authz.Actor, input apptypes.RemoveDocumentInput) (*apptypes.ApplicationProjection, error) {
	var removed domain.Document
	saved, err := s.mutate(ctx, input.ApplicationID, func(app *domain.Application) error {
		if err := domain.Authorize(actor, domain.ActionManageDocuments, app); err != nil {
			return err
		}
		var err error
		removed, err = app.RemoveDocument(input.DocumentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.deleteBlobs(ctx, []domain.Document{removed})
	return saved, nil
}

func (s *Service) mutate(ctx context.Context, id int64, fn func(*domain.Application) error) (*apptypes.ApplicationProjection, error) {
	var saved *apptypes.ApplicationProjection
	err := s.repo.Transaction(ctx, func(ctx context.Context, repo ports.Repository) error {
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(current.Entity); err != nil {
			return err
		}
		saved, err = repo.Update(ctx, current.Entity)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func (s *Service) deleteBlobs(ctx context.Context, docs []domain.Document) {
	if s.blobs == nil {
		return
	}
	for _, doc := range docs {
		if doc.URL == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, doc.URL); err != nil && !errors.Is(err, ports.ErrBlobNotFound) {
			s.logger.WarnContext(ctx, "failed to delete document blob", slog.String("url", doc.URL), slog.String("error", err.Error()))
		}
	}
}

func (s *Service) publish(ctx context.Context, events ...domain.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.WarnContext(ctx, "failed to publish application events", slog.Int("count", len(events)), slog.String("error", err.Error()))
	}
}

var _ ports.Service = (*Service)(nil)
