package business

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
)

// Store is the persistence surface the service needs. *Repository implements it.
type Store interface {
	List(ctx context.Context) ([]*Business, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Business, error)
	Insert(ctx context.Context, listing *Business) error
	Update(ctx context.Context, listing *Business) error
	Stats(ctx context.Context) (*Stats, error)
}

// Publisher receives change events for the live feed.
type Publisher interface {
	Publish(event Event)
}

// Service implements the listing operations. Reads are public; every write
// re-derives the caller's admin status before touching the store.
type Service struct {
	store             Store
	authorizer        *authz.Authorizer
	feed              Publisher
	allowedImageHosts []string
	now               func() time.Time
}

func NewService(store Store, authorizer *authz.Authorizer, feed Publisher, allowedImageHosts []string) *Service {
	return &Service{
		store:             store,
		authorizer:        authorizer,
		feed:              feed,
		allowedImageHosts: allowedImageHosts,
		now:               time.Now,
	}
}

// List returns the full collection
func (s *Service) List(ctx context.Context) ([]*Business, error) {
	return s.store.List(ctx)
}

// GetByID returns one listing or ErrNotFound
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Business, error) {
	return s.store.GetByID(ctx, id)
}

// Create inserts a new listing. Admin only. DateAdded and LastUpdated are
// stamped to the same instant at insert.
func (s *Service) Create(ctx context.Context, ident authz.Identity, input *Input) (*Business, error) {
	if _, err := s.authorizer.RequireAdmin(ctx, ident); err != nil {
		return nil, err
	}

	if err := Validate(input, s.allowedImageHosts); err != nil {
		return nil, err
	}

	now := s.now()
	listing := &Business{
		BusinessID:     input.BusinessID,
		Name:           input.Name,
		Category:       input.Category,
		Contact:        input.Contact,
		Address:        input.Address,
		Description:    input.Description,
		OperatingHours: input.OperatingHours,
		Photos:         input.Photos,
		Metadata: Metadata{
			DateAdded:   now,
			LastUpdated: now,
			IsVerified:  input.Metadata.IsVerified,
			Status:      input.Metadata.Status,
			Target:      input.Metadata.Target,
			Limit:       input.Metadata.Limit,
			Reviewer:    input.Metadata.Reviewer,
		},
	}

	if err := s.store.Insert(ctx, listing); err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventCreated, Business: listing})
	return listing, nil
}

// Update replaces the listing wholesale. Admin only. Every provided nested
// object overwrites the stored one; LastUpdated always advances; DateAdded is
// carried over from the stored record and never changes.
func (s *Service) Update(ctx context.Context, ident authz.Identity, id uuid.UUID, input *Input) (*Business, error) {
	if _, err := s.authorizer.RequireAdmin(ctx, ident); err != nil {
		return nil, err
	}

	if err := Validate(input, s.allowedImageHosts); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	listing := &Business{
		ID:             id,
		BusinessID:     input.BusinessID,
		Name:           input.Name,
		Category:       input.Category,
		Contact:        input.Contact,
		Address:        input.Address,
		Description:    input.Description,
		OperatingHours: input.OperatingHours,
		Photos:         input.Photos,
		Metadata: Metadata{
			DateAdded:   existing.Metadata.DateAdded,
			LastUpdated: s.now(),
			IsVerified:  input.Metadata.IsVerified,
			Status:      input.Metadata.Status,
			Target:      input.Metadata.Target,
			Limit:       input.Metadata.Limit,
			Reviewer:    input.Metadata.Reviewer,
		},
	}

	if err := s.store.Update(ctx, listing); err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventUpdated, Business: listing})
	return listing, nil
}

// Delete soft-deletes a listing by parking it at StatusInactive. Admin only.
// The row is retained so the record can be reactivated from the dashboard.
func (s *Service) Delete(ctx context.Context, ident authz.Identity, id uuid.UUID) error {
	if _, err := s.authorizer.RequireAdmin(ctx, ident); err != nil {
		return err
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	existing.Metadata.Status = StatusInactive
	existing.Metadata.LastUpdated = s.now()

	if err := s.store.Update(ctx, existing); err != nil {
		return fmt.Errorf("failed to deactivate business: %w", err)
	}

	s.publish(Event{Type: EventDeleted, Business: existing})
	return nil
}

// Stats returns dashboard counts. Admin only.
func (s *Service) Stats(ctx context.Context, ident authz.Identity) (*Stats, error) {
	if _, err := s.authorizer.RequireAdmin(ctx, ident); err != nil {
		return nil, err
	}
	return s.store.Stats(ctx)
}

func (s *Service) publish(event Event) {
	if s.feed != nil {
		s.feed.Publish(event)
	}
}
