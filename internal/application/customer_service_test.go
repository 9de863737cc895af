package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/clientsphere/internal/domain"
	"github.com/oksasatya/clientsphere/internal/domain/entity"
	repo "github.com/oksasatya/clientsphere/internal/domain/repository"
	"github.com/oksasatya/clientsphere/internal/infrastructure/memory"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

// Now advances one second per call so consecutive writes get distinct timestamps.
func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newService(t *testing.T) (*CustomerService, *testClock) {
	t.Helper()
	clock := newTestClock()
	store := memory.NewCustomerRepository(memory.WithClock(clock.Now))
	svc := NewCustomerService(store, quietLogger(), time.Second)
	svc.now = clock.Now
	return svc, clock
}

func mustCreate(t *testing.T, svc *CustomerService, name, email string, status entity.CustomerStatus) *entity.Customer {
	t.Helper()
	c, err := svc.Create(context.Background(), CustomerInput{Name: name, Email: email, Status: string(status)})
	require.NoError(t, err)
	return c
}

func TestCustomerService_CreateGetRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CustomerInput{
		Name:    "  Grace Hopper ",
		Email:   " Grace@Navy.MIL ",
		Company: "US Navy",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, entity.StatusLead, created.Status)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", got.Name)
	assert.Equal(t, "grace@navy.mil", got.Email)
	assert.Equal(t, "US Navy", got.Company)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestCustomerService_CreateValidation(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name   string
		in     CustomerInput
		fields []string
	}{
		{"missing name and email", CustomerInput{}, []string{"name", "email"}},
		{"blank name", CustomerInput{Name: "   ", Email: "a@b.co"}, []string{"name"}},
		{"bad email shape", CustomerInput{Name: "A", Email: "a@b"}, []string{"email"}},
		{"unknown status", CustomerInput{Name: "A", Email: "a@b.co", Status: "vip"}, []string{"status"}},
		{"phone too long", CustomerInput{Name: "A", Email: "a@b.co", Phone: "012345678901234567890"}, []string{"phone"}},
		{"malformed utf-8 name", CustomerInput{Name: "Ad\xffa", Email: "a@b.co"}, []string{"name"}},
		{"malformed utf-8 email", CustomerInput{Name: "A", Email: "A\xc3@b.co"}, []string{"email"}},
		{"nul byte in company", CustomerInput{Name: "A", Email: "a@b.co", Company: "Ac\x00me"}, []string{"company"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))

			var got []string
			for _, f := range FieldsOf(err) {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}

	page := svc.List(context.Background(), ListParams{})
	assert.Zero(t, page.TotalCount)
}

func TestCustomerService_DuplicateEmailAnyCase(t *testing.T) {
	svc, _ := newService(t)
	mustCreate(t, svc, "Ada", "ada@example.com", entity.StatusLead)

	for _, email := range []string{"ada@example.com", "ADA@EXAMPLE.COM", " Ada@Example.com "} {
		_, err := svc.Create(context.Background(), CustomerInput{Name: "Other", Email: email})
		assert.Equal(t, KindDuplicateEmail, KindOf(err), email)
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	}
}

func TestCustomerService_ScenarioFilterSearchDuplicate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	a := mustCreate(t, svc, "Alice", "a@x.com", entity.StatusLead)
	mustCreate(t, svc, "Bob", "b@x.com", entity.StatusCustomer)

	byStatus := svc.List(ctx, ListParams{Status: "lead"})
	require.Len(t, byStatus.Records, 1)
	assert.Equal(t, a.ID, byStatus.Records[0].ID)
	assert.Equal(t, "lead", byStatus.AppliedStatus)

	bySearch := svc.List(ctx, ListParams{Search: "A"})
	require.Len(t, bySearch.Records, 1)
	assert.Equal(t, a.ID, bySearch.Records[0].ID)
	assert.Equal(t, "A", bySearch.AppliedSearch)

	_, err := svc.Create(ctx, CustomerInput{Email: "A@X.com", Name: "dup"})
	assert.Equal(t, KindDuplicateEmail, KindOf(err))
}

func TestCustomerService_ScenarioSecondPage(t *testing.T) {
	svc, _ := newService(t)
	mustCreate(t, svc, "Oldest", "o@x.com", entity.StatusLead)
	middle := mustCreate(t, svc, "Middle", "m@x.com", entity.StatusLead)
	mustCreate(t, svc, "Newest", "n@x.com", entity.StatusLead)

	page := svc.List(context.Background(), ListParams{Page: "2", PageSize: "1"})

	require.Len(t, page.Records, 1)
	assert.Equal(t, middle.ID, page.Records[0].ID)
	assert.Equal(t, 3, page.TotalPages)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.Equal(t, repo.SortByCreatedAt, page.AppliedSortField)
	assert.Equal(t, repo.SortDesc, page.AppliedSortOrder)
}

func TestCustomerService_ListCoversEveryRecordOnce(t *testing.T) {
	svc, _ := newService(t)
	for i := 0; i < 23; i++ {
		mustCreate(t, svc, fmt.Sprintf("Customer %02d", i%5), fmt.Sprintf("c%02d@x.com", i), entity.StatusProspect)
	}

	for _, size := range []int{1, 4, 10, 23, 50} {
		t.Run(fmt.Sprintf("pageSize=%d", size), func(t *testing.T) {
			seen := map[string]bool{}
			first := svc.List(context.Background(), ListParams{PageSize: fmt.Sprint(size), SortField: "name", SortOrder: "asc"})
			for p := 1; p <= first.TotalPages; p++ {
				page := svc.List(context.Background(), ListParams{
					Page: fmt.Sprint(p), PageSize: fmt.Sprint(size), SortField: "name", SortOrder: "asc",
				})
				assert.LessOrEqual(t, len(page.Records), size)
				for _, c := range page.Records {
					assert.False(t, seen[c.ID], "record %s repeated", c.ID)
					seen[c.ID] = true
				}
			}
			assert.Len(t, seen, 23)
			assert.EqualValues(t, 23, first.TotalCount)
		})
	}
}

func TestCustomerService_ListSortIsTotal(t *testing.T) {
	svc, _ := newService(t)
	for i := 0; i < 6; i++ {
		mustCreate(t, svc, []string{"Bea", "Al", "Bea"}[i%3], fmt.Sprintf("s%d@x.com", i), entity.StatusLead)
	}

	page := svc.List(context.Background(), ListParams{SortField: "name", SortOrder: "asc", PageSize: "100"})
	require.Len(t, page.Records, 6)
	for i := 1; i < len(page.Records); i++ {
		prev, cur := page.Records[i-1], page.Records[i]
		require.LessOrEqual(t, prev.Name, cur.Name)
		if prev.Name == cur.Name {
			assert.Less(t, prev.ID, cur.ID)
		}
	}
}

func TestCustomerService_ListNormalizesParams(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name      string
		in        ListParams
		page      int
		pageSize  int
		sortField repo.SortField
		sortOrder repo.SortOrder
	}{
		{"defaults", ListParams{}, 1, 10, repo.SortByCreatedAt, repo.SortDesc},
		{"garbage numbers", ListParams{Page: "abc", PageSize: "-3"}, 1, 10, repo.SortByCreatedAt, repo.SortDesc},
		{"zero page", ListParams{Page: "0", PageSize: "0"}, 1, 10, repo.SortByCreatedAt, repo.SortDesc},
		{"clamped page size", ListParams{Page: "3", PageSize: "5000"}, 3, MaxPageSize, repo.SortByCreatedAt, repo.SortDesc},
		{"unknown sort field", ListParams{SortField: "password", SortOrder: "sideways"}, 1, 10, repo.SortByCreatedAt, repo.SortDesc},
		{"case-insensitive order", ListParams{SortField: "email", SortOrder: "ASC"}, 1, 10, repo.SortByEmail, repo.SortAsc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := svc.List(context.Background(), tt.in)
			assert.Equal(t, tt.page, page.Page)
			assert.Equal(t, tt.pageSize, page.PageSize)
			assert.Equal(t, tt.sortField, page.AppliedSortField)
			assert.Equal(t, tt.sortOrder, page.AppliedSortOrder)
			assert.NotNil(t, page.Records)
			assert.Zero(t, page.TotalPages)
		})
	}
}

func TestCustomerService_ListUnknownStatusMatchesNothing(t *testing.T) {
	svc, _ := newService(t)
	mustCreate(t, svc, "Ada", "ada@x.com", entity.StatusLead)

	page := svc.List(context.Background(), ListParams{Status: "vip"})
	assert.Empty(t, page.Records)
	assert.Zero(t, page.TotalCount)
	assert.Equal(t, "vip", page.AppliedStatus)
}

func TestCustomerService_ListSearchIsLiteral(t *testing.T) {
	svc, _ := newService(t)
	mustCreate(t, svc, "100% Widgets", "w@x.com", entity.StatusLead)
	mustCreate(t, svc, "1000 Widgets", "k@x.com", entity.StatusLead)

	page := svc.List(context.Background(), ListParams{Search: "0%"})
	require.Len(t, page.Records, 1)
	assert.Equal(t, "100% Widgets", page.Records[0].Name)
}

func TestCustomerService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("reflects fields and keeps createdAt", func(t *testing.T) {
		svc, _ := newService(t)
		c := mustCreate(t, svc, "Ada", "ada@x.com", entity.StatusLead)

		updated, err := svc.Update(ctx, c.ID, CustomerInput{
			Name: "Ada King", Email: "ADA@x.com", Phone: "+44 20", Company: "Analytical", Address: "London", Status: "ceo",
		})
		require.NoError(t, err)

		got, err := svc.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada King", got.Name)
		assert.Equal(t, "ada@x.com", got.Email)
		assert.Equal(t, "+44 20", got.Phone)
		assert.Equal(t, "Analytical", got.Company)
		assert.Equal(t, "London", got.Address)
		assert.Equal(t, entity.StatusCEO, got.Status)
		assert.Equal(t, c.CreatedAt, got.CreatedAt)
		assert.True(t, got.UpdatedAt.After(c.UpdatedAt))
		assert.Equal(t, updated.UpdatedAt, got.UpdatedAt)
	})

	t.Run("full replace clears omitted optionals", func(t *testing.T) {
		svc, _ := newService(t)
		c, err := svc.Create(ctx, CustomerInput{Name: "Ada", Email: "ada@x.com", Phone: "123", Status: "customer"})
		require.NoError(t, err)

		got, err := svc.Update(ctx, c.ID, CustomerInput{Name: "Ada", Email: "ada@x.com"})
		require.NoError(t, err)
		assert.Empty(t, got.Phone)
		assert.Equal(t, entity.StatusLead, got.Status)
	})

	t.Run("email taken by another customer", func(t *testing.T) {
		svc, _ := newService(t)
		mustCreate(t, svc, "Ada", "ada@x.com", entity.StatusLead)
		bob := mustCreate(t, svc, "Bob", "bob@x.com", entity.StatusLead)

		_, err := svc.Update(ctx, bob.ID, CustomerInput{Name: "Bob", Email: "Ada@X.com"})
		assert.Equal(t, KindDuplicateEmail, KindOf(err))
	})

	t.Run("absent and malformed ids", func(t *testing.T) {
		svc, _ := newService(t)
		valid := CustomerInput{Name: "Ghost", Email: "ghost@x.com"}

		_, err := svc.Update(ctx, "00000000-0000-4000-8000-000000000000", valid)
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.False(t, errors.Is(err, domain.ErrInvalidCustomerID))

		_, err = svc.Update(ctx, "not-an-id", valid)
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.ErrorIs(t, err, domain.ErrInvalidCustomerID)
	})

	t.Run("validation runs before lookup", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Update(ctx, "not-an-id", CustomerInput{})
		assert.Equal(t, KindValidation, KindOf(err))
	})
}

func TestCustomerService_Delete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	c := mustCreate(t, svc, "Ada", "ada@x.com", entity.StatusLead)

	require.NoError(t, svc.Delete(ctx, c.ID))

	_, err := svc.GetByID(ctx, c.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	err = svc.Delete(ctx, c.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	// the email is free again
	mustCreate(t, svc, "Ada again", "ada@x.com", entity.StatusLead)
}

func TestCustomerService_GetByIDMalformed(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.GetByID(context.Background(), "12345")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.ErrorIs(t, err, domain.ErrInvalidCustomerID)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

// mockRepo lets tests inject store failures.
type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*entity.Customer, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*entity.Customer)
	return c, args.Error(1)
}

func (m *mockRepo) FindOne(ctx context.Context, f repo.CustomerFilter) (*entity.Customer, error) {
	args := m.Called(ctx, f)
	c, _ := args.Get(0).(*entity.Customer)
	return c, args.Error(1)
}

func (m *mockRepo) FindMany(ctx context.Context, f repo.CustomerFilter, s repo.Sort, p repo.Page) ([]entity.Customer, error) {
	args := m.Called(ctx, f, s, p)
	res, _ := args.Get(0).([]entity.Customer)
	return res, args.Error(1)
}

func (m *mockRepo) Count(ctx context.Context, f repo.CustomerFilter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) CountByStatus(ctx context.Context) ([]repo.StatusCount, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]repo.StatusCount)
	return res, args.Error(1)
}

func (m *mockRepo) Insert(ctx context.Context, c *entity.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockRepo) UpdateByID(ctx context.Context, c *entity.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockRepo) DeleteByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestCustomerService_StoreConstraintWinsRace(t *testing.T) {
	store := &mockRepo{}
	store.On("FindOne", mock.Anything, mock.Anything).Return(nil, domain.ErrCustomerNotFound)
	store.On("Insert", mock.Anything, mock.Anything).Return(domain.ErrDuplicateEmail)
	svc := NewCustomerService(store, quietLogger(), time.Second)

	_, err := svc.Create(context.Background(), CustomerInput{Name: "Racer", Email: "race@x.com"})

	assert.Equal(t, KindDuplicateEmail, KindOf(err))
	store.AssertExpectations(t)
}

func TestCustomerService_ConcurrentCreatesKeepEmailUnique(t *testing.T) {
	svc, _ := newService(t)
	const creators = 64

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[Kind]int{}
	)
	start := make(chan struct{})
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := "race@x.com"
			if i%2 == 1 {
				email = "RACE@X.com"
			}
			<-start
			_, err := svc.Create(context.Background(), CustomerInput{Name: fmt.Sprintf("Racer %d", i), Email: email})
			kind := Kind("ok")
			if err != nil {
				kind = KindOf(err)
			}
			mu.Lock()
			results[kind]++
			mu.Unlock()
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, map[Kind]int{"ok": 1, KindDuplicateEmail: creators - 1}, results)
	page := svc.List(context.Background(), ListParams{})
	assert.EqualValues(t, 1, page.TotalCount)
}

func TestCustomerService_ListDegradesOnStoreFailure(t *testing.T) {
	store := &mockRepo{}
	store.On("FindMany", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("select customers: %w", domain.ErrStoreUnavailable))
	store.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil).Maybe()
	svc := NewCustomerService(store, quietLogger(), time.Second)

	page := svc.List(context.Background(), ListParams{Search: " acme ", Status: "lead", Page: "2", SortField: "name", SortOrder: "asc"})

	assert.Empty(t, page.Records)
	assert.NotNil(t, page.Records)
	assert.Zero(t, page.TotalCount)
	assert.Zero(t, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, "acme", page.AppliedSearch)
	assert.Equal(t, "lead", page.AppliedStatus)
	assert.Equal(t, repo.SortByName, page.AppliedSortField)
	assert.Equal(t, repo.SortAsc, page.AppliedSortOrder)
}

func TestCustomerService_ClassifiesStoreFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"unavailable", fmt.Errorf("ping: %w", domain.ErrStoreUnavailable), KindStoreUnavailable},
		{"deadline", context.DeadlineExceeded, KindStoreUnavailable},
		{"unexpected", errors.New("disk on fire"), KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockRepo{}
			store.On("FindByID", mock.Anything, "id").Return(nil, tt.err)
			svc := NewCustomerService(store, quietLogger(), time.Second)

			_, err := svc.GetByID(context.Background(), "id")
			assert.Equal(t, tt.want, KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCustomerService_StoreTimeout(t *testing.T) {
	store := &mockRepo{}
	store.On("FindByID", mock.Anything, "slow").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)
	svc := NewCustomerService(store, quietLogger(), 20*time.Millisecond)

	_, err := svc.GetByID(context.Background(), "slow")
	assert.Equal(t, KindStoreUnavailable, KindOf(err))
}
