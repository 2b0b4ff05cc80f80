package contractors

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/parking-rent/internal/domain/billing"
)

type fakeStore struct {
	items map[uuid.UUID]*Contractor
	paid  map[uuid.UUID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[uuid.UUID]*Contractor{}, paid: map[uuid.UUID]bool{}}
}

func (f *fakeStore) Create(_ context.Context, c *Contractor) (*Contractor, error) {
	cp := *c
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.items[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*Contractor, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context) ([]Contractor, error) {
	var out []Contractor
	for _, c := range f.items {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) ListByParkingNumber(_ context.Context, pn string) ([]Contractor, error) {
	var out []Contractor
	for _, c := range f.items {
		if c.ParkingNumber == pn {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, c *Contractor) (*Contractor, error) {
	if _, ok := f.items[c.ID]; !ok {
		return nil, ErrNotFound
	}
	cp := *c
	cp.UpdatedAt = time.Now()
	f.items[c.ID] = &cp
	return &cp, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeStore) HasPaidPayments(_ context.Context, id uuid.UUID) (bool, error) {
	return f.paid[id], nil
}

func fixedNow() time.Time {
	return time.Date(2024, time.April, 15, 12, 0, 0, 0, time.UTC)
}

func newTestService(st *fakeStore) *Service {
	return NewService(st, 50, fixedNow)
}

func validInput() CreateInput {
	return CreateInput{
		Name:          "Иванов",
		ParkingNumber: "7",
		ContractStart: billing.YearMonth{Year: 2024, Month: 1},
		MonthlyFee:    10000,
	}
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		svc := newTestService(newFakeStore())
		c, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.Equal(t, "7", c.ParkingNumber)
	})

	t.Run("missing name", func(t *testing.T) {
		svc := newTestService(newFakeStore())
		in := validInput()
		in.Name = ""
		_, err := svc.Create(ctx, in)
		var ve ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "name", ve.Field)
	})

	t.Run("zero fee rejected", func(t *testing.T) {
		svc := newTestService(newFakeStore())
		in := validInput()
		in.MonthlyFee = 0
		_, err := svc.Create(ctx, in)
		var ve ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "monthly_fee", ve.Field)
	})

	t.Run("negative fee rejected", func(t *testing.T) {
		svc := newTestService(newFakeStore())
		in := validInput()
		in.MonthlyFee = -500
		_, err := svc.Create(ctx, in)
		assert.Error(t, err)
	})

	t.Run("end before start rejected", func(t *testing.T) {
		svc := newTestService(newFakeStore())
		in := validInput()
		in.ContractStart = billing.YearMonth{Year: 2024, Month: 6}
		in.ContractEnd = &billing.YearMonth{Year: 2024, Month: 3}
		_, err := svc.Create(ctx, in)
		var ve ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "contract_end", ve.Field)
	})

	t.Run("invalid month rejected", func(t *testing.T) {
		svc := newTestService(newFakeStore())
		in := validInput()
		in.ContractStart = billing.YearMonth{Year: 2024, Month: 13}
		_, err := svc.Create(ctx, in)
		assert.Error(t, err)
	})

	t.Run("active contract blocks the space", func(t *testing.T) {
		svc := newTestService(newFakeStore())
		_, err := svc.Create(ctx, validInput()) // бессрочный договор на место 7
		require.NoError(t, err)

		in := validInput()
		in.Name = "Петров"
		_, err = svc.Create(ctx, in)
		assert.ErrorIs(t, err, ErrSpaceOccupied)
	})

	t.Run("expired contract frees the space", func(t *testing.T) {
		svc := newTestService(newFakeStore())
		in := validInput()
		in.ContractEnd = &billing.YearMonth{Year: 2024, Month: 2} // now = 2024-04
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)

		in2 := validInput()
		in2.Name = "Петров"
		in2.ContractStart = billing.YearMonth{Year: 2024, Month: 3}
		_, err = svc.Create(ctx, in2)
		assert.NoError(t, err)
	})
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *fakeStore, *Contractor) {
		st := newFakeStore()
		svc := newTestService(st)
		c, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
		return svc, st, c
	}

	t.Run("rename", func(t *testing.T) {
		svc, _, c := setup(t)
		name := "Сидоров"
		updated, err := svc.Update(ctx, c.ID, UpdateInput{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Сидоров", updated.Name)
		assert.Equal(t, c.ContractStart, updated.ContractStart)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _, _ := setup(t)
		name := "x"
		_, err := svc.Update(ctx, uuid.New(), UpdateInput{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("fee below minimum rejected", func(t *testing.T) {
		svc, _, c := setup(t)
		fee := int64(49)
		_, err := svc.Update(ctx, c.ID, UpdateInput{MonthlyFee: &fee})
		var ve ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "monthly_fee", ve.Field)
	})

	t.Run("end before immutable start rejected", func(t *testing.T) {
		svc, _, c := setup(t)
		end := billing.YearMonth{Year: 2023, Month: 12}
		_, err := svc.Update(ctx, c.ID, UpdateInput{ContractEnd: &end})
		assert.Error(t, err)
	})

	t.Run("clear end date", func(t *testing.T) {
		svc, _, c := setup(t)
		end := billing.YearMonth{Year: 2024, Month: 12}
		_, err := svc.Update(ctx, c.ID, UpdateInput{ContractEnd: &end})
		require.NoError(t, err)
		updated, err := svc.Update(ctx, c.ID, UpdateInput{ClearContractEnd: true})
		require.NoError(t, err)
		assert.Nil(t, updated.ContractEnd)
	})

	t.Run("reassignment to occupied space rejected", func(t *testing.T) {
		svc, _, _ := setup(t)
		in := validInput()
		in.Name = "Петров"
		in.ParkingNumber = "8"
		other, err := svc.Create(ctx, in)
		require.NoError(t, err)

		pn := "7"
		_, err = svc.Update(ctx, other.ID, UpdateInput{ParkingNumber: &pn})
		assert.ErrorIs(t, err, ErrSpaceOccupied)
	})

	t.Run("clearing end date on occupied space rejected", func(t *testing.T) {
		svc, _, _ := setup(t)
		in := validInput()
		in.ContractEnd = &billing.YearMonth{Year: 2024, Month: 2} // истёк к now = 2024-04
		in.ParkingNumber = "9"
		expired, err := svc.Create(ctx, in)
		require.NoError(t, err)

		in2 := validInput()
		in2.Name = "Петров"
		in2.ParkingNumber = "9"
		in2.ContractStart = billing.YearMonth{Year: 2024, Month: 3}
		_, err = svc.Create(ctx, in2)
		require.NoError(t, err)

		_, err = svc.Update(ctx, expired.ID, UpdateInput{ClearContractEnd: true})
		assert.ErrorIs(t, err, ErrSpaceOccupied)
	})

	t.Run("extending end date onto occupied space rejected", func(t *testing.T) {
		svc, _, _ := setup(t)
		in := validInput()
		in.ContractEnd = &billing.YearMonth{Year: 2024, Month: 2}
		in.ParkingNumber = "9"
		expired, err := svc.Create(ctx, in)
		require.NoError(t, err)

		in2 := validInput()
		in2.Name = "Петров"
		in2.ParkingNumber = "9"
		in2.ContractStart = billing.YearMonth{Year: 2024, Month: 3}
		_, err = svc.Create(ctx, in2)
		require.NoError(t, err)

		end := billing.YearMonth{Year: 2024, Month: 12}
		_, err = svc.Update(ctx, expired.ID, UpdateInput{ContractEnd: &end})
		assert.ErrorIs(t, err, ErrSpaceOccupied)
	})

	t.Run("end date change on still expired contract allowed", func(t *testing.T) {
		svc, _, _ := setup(t)
		in := validInput()
		in.ContractEnd = &billing.YearMonth{Year: 2024, Month: 2}
		in.ParkingNumber = "9"
		expired, err := svc.Create(ctx, in)
		require.NoError(t, err)

		in2 := validInput()
		in2.Name = "Петров"
		in2.ParkingNumber = "9"
		in2.ContractStart = billing.YearMonth{Year: 2024, Month: 3}
		_, err = svc.Create(ctx, in2)
		require.NoError(t, err)

		end := billing.YearMonth{Year: 2024, Month: 3} // всё ещё в прошлом
		_, err = svc.Update(ctx, expired.ID, UpdateInput{ContractEnd: &end})
		assert.NoError(t, err)
	})

	t.Run("keeping own space is not a conflict", func(t *testing.T) {
		svc, _, c := setup(t)
		pn := "7"
		_, err := svc.Update(ctx, c.ID, UpdateInput{ParkingNumber: &pn})
		assert.NoError(t, err)
	})
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("ok without paid history", func(t *testing.T) {
		st := newFakeStore()
		svc := newTestService(st)
		c, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
		require.NoError(t, svc.Delete(ctx, c.ID))
		_, err = svc.Get(ctx, c.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("denied with paid history", func(t *testing.T) {
		st := newFakeStore()
		svc := newTestService(st)
		c, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
		st.paid[c.ID] = true
		assert.ErrorIs(t, svc.Delete(ctx, c.ID), ErrHasPayments)
	})

	t.Run("not found", func(t *testing.T) {
		svc := newTestService(newFakeStore())
		assert.ErrorIs(t, svc.Delete(ctx, uuid.New()), ErrNotFound)
	})
}
