package pantry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/pantrypal-backend/pkg/db"
	"github.com/angelmondragon/pantrypal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
	"github.com/google/uuid"
)

const (
	// DefaultMaxRetries applies when ServiceParams.MaxRetries is not positive.
	DefaultMaxRetries = 5

	expirationLayout = "2006-01-02"
	maxNameLength    = 120
)

// Service reconciles pantry mutations against the store. Every mutating call
// returns the full re-read of the scope.
type Service interface {
	List(ctx context.Context, scope Scope) ([]ItemDTO, error)
	Add(ctx context.Context, scope Scope, input AddInput) ([]ItemDTO, error)
	Remove(ctx context.Context, scope Scope, id uuid.UUID) ([]ItemDTO, error)
	Edit(ctx context.Context, scope Scope, id uuid.UUID, input EditInput) ([]ItemDTO, error)
	Delete(ctx context.Context, scope Scope, id uuid.UUID) ([]ItemDTO, error)
	Names(ctx context.Context, scope Scope) ([]string, error)
}

// Observer records operation outcomes. *metrics.PantryMetrics satisfies it.
type Observer interface {
	Observe(op, outcome string, elapsed time.Duration)
	IncConflict(op string)
}

type ServiceParams struct {
	Store      Store
	MaxRetries int
	Metrics    Observer
}

type service struct {
	store      Store
	maxRetries int
	metrics    Observer
	now        func() time.Time
}

// NewService builds the pantry reconciliation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pantry store is required")
	}
	retries := params.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	observer := params.Metrics
	if observer == nil {
		observer = nopObserver{}
	}
	return &service{
		store:      params.Store,
		maxRetries: retries,
		metrics:    observer,
		now:        time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, scope Scope) (items []ItemDTO, err error) {
	defer s.observe("list", s.now(), &err)
	if err := validateScope(scope); err != nil {
		return nil, err
	}
	return s.list(ctx, scope)
}

func (s *service) Add(ctx context.Context, scope Scope, input AddInput) (items []ItemDTO, err error) {
	defer s.observe("add", s.now(), &err)
	if err := validateScope(scope); err != nil {
		return nil, err
	}
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	expiration, err := normalizeExpiration(input.Expiration)
	if err != nil {
		return nil, err
	}
	delta := ParseQuantity(input.Quantity)
	collection := scope.Collection()

	err = s.retry(ctx, "add", func() (bool, error) {
		existing, err := s.store.FindByName(ctx, collection, name)
		if err != nil && !db.IsNotFound(err) {
			return false, storageError(err, "find pantry item")
		}
		if existing == nil {
			createErr := s.store.Create(ctx, &models.PantryItem{
				Scope:      collection,
				Name:       name,
				Quantity:   delta,
				Expiration: expiration,
			})
			if createErr == nil {
				return true, nil
			}
			if db.IsUniqueViolation(createErr) {
				// lost the create race; merge into the winner on the next pass
				return false, nil
			}
			return false, storageError(createErr, "create pantry item")
		}

		ok, err := s.store.PutIfVersion(ctx, collection, existing.ID, existing.Version, PantryFields{
			Name:       existing.Name,
			Quantity:   addQuantity(existing.Quantity, delta),
			Expiration: expiration,
		})
		if err != nil {
			return false, storageError(err, "merge pantry item")
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return s.list(ctx, scope)
}

func (s *service) Remove(ctx context.Context, scope Scope, id uuid.UUID) (items []ItemDTO, err error) {
	defer s.observe("remove", s.now(), &err)
	if err := validateScope(scope); err != nil {
		return nil, err
	}
	collection := scope.Collection()

	err = s.retry(ctx, "remove", func() (bool, error) {
		existing, err := s.store.GetOne(ctx, collection, id)
		if err != nil {
			if db.IsNotFound(err) {
				return true, nil
			}
			return false, storageError(err, "get pantry item")
		}

		var ok bool
		if existing.Quantity <= 1 {
			ok, err = s.store.DeleteIfVersion(ctx, collection, existing.ID, existing.Version)
		} else {
			ok, err = s.store.PutIfVersion(ctx, collection, existing.ID, existing.Version, PantryFields{
				Name:       existing.Name,
				Quantity:   existing.Quantity - 1,
				Expiration: existing.Expiration,
			})
		}
		if err != nil {
			return false, storageError(err, "decrement pantry item")
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return s.list(ctx, scope)
}

func (s *service) Edit(ctx context.Context, scope Scope, id uuid.UUID, input EditInput) (items []ItemDTO, err error) {
	defer s.observe("edit", s.now(), &err)
	if err := validateScope(scope); err != nil {
		return nil, err
	}
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}
	expiration, err := normalizeExpiration(input.Expiration)
	if err != nil {
		return nil, err
	}
	quantity := ParseQuantity(input.Quantity)
	collection := scope.Collection()

	err = s.retry(ctx, "edit", func() (bool, error) {
		existing, err := s.store.GetOne(ctx, collection, id)
		if err != nil {
			if db.IsNotFound(err) {
				return false, pkgerrors.New(pkgerrors.CodeNotFound, "pantry item not found")
			}
			return false, storageError(err, "get pantry item")
		}

		target := existing.Name
		if name != "" {
			target = name
		}
		ok, err := s.store.PutIfVersion(ctx, collection, existing.ID, existing.Version, PantryFields{
			Name:       target,
			Quantity:   quantity,
			Expiration: expiration,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return false, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("an item named %q already exists", target))
			}
			return false, storageError(err, "update pantry item")
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return s.list(ctx, scope)
}

func (s *service) Delete(ctx context.Context, scope Scope, id uuid.UUID) (items []ItemDTO, err error) {
	defer s.observe("delete", s.now(), &err)
	if err := validateScope(scope); err != nil {
		return nil, err
	}
	if err := s.store.DeleteOne(ctx, scope.Collection(), id); err != nil {
		return nil, storageError(err, "delete pantry item")
	}
	return s.list(ctx, scope)
}

func (s *service) Names(ctx context.Context, scope Scope) ([]string, error) {
	items, err := s.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(items))
	names := make([]string, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.Name]; dup {
			continue
		}
		seen[item.Name] = struct{}{}
		names = append(names, item.Name)
	}
	return names, nil
}

func (s *service) list(ctx context.Context, scope Scope) ([]ItemDTO, error) {
	rows, err := s.store.Enumerate(ctx, scope.Collection())
	if err != nil {
		return nil, storageError(err, "list pantry items")
	}
	items := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItemDTO(row))
	}
	return items, nil
}

// retry runs attempt until it reports success, returns an error, or the
// version check has failed maxRetries+1 times.
func (s *service) retry(ctx context.Context, op string, attempt func() (bool, error)) error {
	for i := 0; i <= s.maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return storageError(err, "pantry operation cancelled")
		}
		done, err := attempt()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		s.metrics.IncConflict(op)
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "pantry item was modified concurrently; retry the request")
}

func (s *service) observe(op string, start time.Time, errp *error) {
	outcome := "ok"
	if *errp != nil {
		outcome = strings.ToLower(string(pkgerrors.CodeOf(*errp)))
	}
	s.metrics.Observe(op, outcome, time.Since(start))
}

func validateScope(scope Scope) error {
	if err := scope.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pantry scope")
	}
	return nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if len([]rune(name)) > maxNameLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	return name, nil
}

func normalizeExpiration(raw string) (*string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	if _, err := time.Parse(expirationLayout, value); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "expiration must be a YYYY-MM-DD date")
	}
	return &value, nil
}

func storageError(err error, message string) error {
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, message)
}

type nopObserver struct{}

func (nopObserver) Observe(string, string, time.Duration) {}
func (nopObserver) IncConflict(string) {}
