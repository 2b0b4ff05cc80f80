package contractors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/parking-rent/internal/domain/billing"
)

var (
	ErrNotFound      = errors.New("contractors: not found")
	ErrSpaceOccupied = errors.New("contractors: parking number already has an active contract")
	// ErrHasPayments — удаление запрещено, пока есть оплаченная история.
	ErrHasPayments = errors.New("contractors: paid history exists, deletion denied")
)

// ValidationError — ошибка валидации конкретного поля, отдаётся вызывающему как есть.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

type store interface {
	Create(ctx context.Context, c *Contractor) (*Contractor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Contractor, error)
	List(ctx context.Context) ([]Contractor, error)
	ListByParkingNumber(ctx context.Context, parkingNumber string) ([]Contractor, error)
	Update(ctx context.Context, c *Contractor) (*Contractor, error)
	Delete(ctx context.Context, id uuid.UUID) error
	HasPaidPayments(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	store  store
	minFee int64
	now    func() time.Time
}

func NewService(st store, minFee int64, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: st, minFee: minFee, now: now}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Contractor, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Contractor, error) {
	return s.store.List(ctx)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Contractor, error) {
	c := &Contractor{
		Name:          in.Name,
		ParkingNumber: in.ParkingNumber,
		ContractStart: in.ContractStart,
		ContractEnd:   in.ContractEnd,
		MonthlyFee:    in.MonthlyFee,
	}
	if err := s.validate(c); err != nil {
		return nil, err
	}
	if err := s.checkSpaceFree(ctx, c.ParkingNumber, uuid.Nil); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, c)
}

// Update применяет частичные изменения поверх текущей записи и валидирует
// результат целиком. Начало договора менять нельзя — в UpdateInput его нет.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Contractor, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.ParkingNumber != nil {
		c.ParkingNumber = *in.ParkingNumber
	}
	if in.ClearContractEnd {
		c.ContractEnd = nil
	} else if in.ContractEnd != nil {
		c.ContractEnd = in.ContractEnd
	}
	if in.MonthlyFee != nil {
		c.MonthlyFee = *in.MonthlyFee
	}

	if err := s.validate(c); err != nil {
		return nil, err
	}
	// Смена места и сдвиг конца договора одинаково могут столкнуть две
	// действующие записи на одном месте, поэтому проверяем в обоих случаях.
	endChanged := in.ClearContractEnd || in.ContractEnd != nil
	if (in.ParkingNumber != nil || endChanged) && c.ActiveAt(billing.FromTime(s.now())) {
		if err := s.checkSpaceFree(ctx, c.ParkingNumber, id); err != nil {
			return nil, err
		}
	}
	return s.store.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}
	hasPaid, err := s.store.HasPaidPayments(ctx, id)
	if err != nil {
		return err
	}
	if hasPaid {
		return ErrHasPayments
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) validate(c *Contractor) error {
	if c.Name == "" {
		return ValidationError{Field: "name", Msg: "required"}
	}
	if c.ParkingNumber == "" {
		return ValidationError{Field: "parking_number", Msg: "required"}
	}
	if !c.ContractStart.Valid() {
		return ValidationError{Field: "contract_start", Msg: "invalid year/month"}
	}
	if c.ContractEnd != nil {
		if !c.ContractEnd.Valid() {
			return ValidationError{Field: "contract_end", Msg: "invalid year/month"}
		}
		if billing.Compare(c.ContractStart, *c.ContractEnd) > 0 {
			return ValidationError{Field: "contract_end", Msg: "must not precede contract start"}
		}
	}
	if c.MonthlyFee < s.minFee {
		return ValidationError{Field: "monthly_fee", Msg: fmt.Sprintf("must be at least %d", s.minFee)}
	}
	return nil
}

// checkSpaceFree: на одном парковочном месте не может быть двух действующих
// договоров. exclude — редактируемая запись, саму себя не считаем.
func (s *Service) checkSpaceFree(ctx context.Context, parkingNumber string, exclude uuid.UUID) error {
	existing, err := s.store.ListByParkingNumber(ctx, parkingNumber)
	if err != nil {
		return err
	}
	now := billing.FromTime(s.now())
	for i := range existing {
		if existing[i].ID == exclude {
			continue
		}
		if existing[i].ActiveAt(now) {
			return ErrSpaceOccupied
		}
	}
	return nil
}
