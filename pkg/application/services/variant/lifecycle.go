package variant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mbanner77/allocengine/pkg/application/dto"
	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
	"github.com/mbanner77/allocengine/pkg/infrastructure/events"
)

// Service drives the variant lifecycle
// Draft -> Simulated -> Validated -> Released -> Transferred.
// Transitions are one-directional and persisted; Released and Transferred
// variants become append-only audit records.
type Service struct {
	variantRepo repositories.VariantRepository
	journal     events.EventStore
}

// NewService creates a variant lifecycle service. The journal is optional.
func NewService(variantRepo repositories.VariantRepository, journal events.EventStore) *Service {
	return &Service{variantRepo: variantRepo, journal: journal}
}

// Create stores a new Draft variant with the given policy
func (s *Service) Create(ctx context.Context, name string, season entities.Season, policy entities.PolicyParameters, deliveryStart, deliveryEnd time.Time) (*entities.Variant, error) {
	v := &entities.Variant{
		ID:            entities.VariantID(uuid.NewString()),
		Name:          name,
		Season:        season,
		Status:        entities.Draft,
		Policy:        policy,
		DeliveryStart: deliveryStart,
		DeliveryEnd:   deliveryEnd,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := s.variantRepo.SaveVariant(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to save variant: %w", err)
	}
	return v, nil
}

// UpdatePolicy replaces the policy of a still-mutable variant
func (s *Service) UpdatePolicy(ctx context.Context, id entities.VariantID, policy entities.PolicyParameters) (*entities.Variant, error) {
	v, err := s.variantRepo.GetVariant(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.Mutable() {
		return nil, fmt.Errorf("variant %s is %s and immutable", v.ID, v.Status)
	}
	v.Policy = policy
	v.UpdatedAt = time.Now()
	if err := s.variantRepo.SaveVariant(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to save variant: %w", err)
	}
	return v, nil
}

// MarkSimulated records that a simulation run completed for the variant
func (s *Service) MarkSimulated(ctx context.Context, id entities.VariantID, runID entities.RunID) (*entities.Variant, error) {
	return s.transition(ctx, id, entities.Simulated, entities.ValidationChecklist{}, runID)
}

// Validate advances a Simulated variant to Validated when every check of
// the checklist passes; otherwise the variant stays Simulated and the
// ValidationFailure lists what failed.
func (s *Service) Validate(ctx context.Context, id entities.VariantID, checklist entities.ValidationChecklist) (*entities.Variant, error) {
	return s.transition(ctx, id, entities.Validated, checklist, "")
}

// Release advances a Validated variant to Released
func (s *Service) Release(ctx context.Context, id entities.VariantID) (*entities.Variant, error) {
	return s.transition(ctx, id, entities.Released, entities.ValidationChecklist{}, "")
}

// Transfer advances a Released variant to Transferred, binding the run
// whose results were handed over
func (s *Service) Transfer(ctx context.Context, id entities.VariantID, runID entities.RunID) (*entities.Variant, error) {
	return s.transition(ctx, id, entities.Transferred, entities.ValidationChecklist{}, runID)
}

// BuildChecklist derives the five Validated-stage checks from a finished
// simulation run
func BuildChecklist(v *entities.Variant, result *dto.RunResult) entities.ValidationChecklist {
	checklist := entities.ValidationChecklist{
		DeliveryDatesValid: v.DeliveryDatesValid(),
		ParametersComplete: parametersComplete(v.Policy),
	}
	if result != nil && result.Run != nil {
		checklist.RecipientsValid = result.IncludedCount() > 0
		checklist.CapacityPresent = result.Run.Status == entities.RunCompleted
		checklist.NoBlockingExceptions = true
		for _, ex := range result.Run.Exceptions {
			if ex.Kind.Blocking() {
				checklist.NoBlockingExceptions = false
				break
			}
		}
	}
	return checklist
}

func parametersComplete(policy entities.PolicyParameters) bool {
	if policy.ForecastWeight < 0 || policy.ForecastWeight > 1 {
		return false
	}
	if policy.MinFillPct < 0 || policy.MinFillPct > 1 {
		return false
	}
	if policy.RationingCap <= 0 || policy.MinSizesPerStore < 0 {
		return false
	}
	return true
}

func (s *Service) transition(ctx context.Context, id entities.VariantID, target entities.VariantStatus, checklist entities.ValidationChecklist, runID entities.RunID) (*entities.Variant, error) {
	v, err := s.variantRepo.GetVariant(ctx, id)
	if err != nil {
		return nil, err
	}
	from := v.Status
	if err := v.Transition(target, checklist); err != nil {
		return nil, err
	}
	if runID != "" {
		v.RunID = runID
	}
	if err := s.variantRepo.SaveVariant(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to save variant: %w", err)
	}
	if s.journal != nil {
		_ = s.journal.AppendEvent(string(v.ID), events.NewEvent(events.VariantTransitionedEvent, string(v.ID), events.VariantTransitioned{
			VariantID: v.ID,
			From:      from.String(),
			To:        v.Status.String(),
		}))
	}
	return v, nil
}
