package directory

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/staff-directory/internal/backend"
	"github.com/aimd54/staff-directory/internal/config"
	"github.com/aimd54/staff-directory/internal/models"
	"github.com/aimd54/staff-directory/internal/service/availability"
	"github.com/aimd54/staff-directory/pkg/logger"
	"github.com/aimd54/staff-directory/test/mocks"
)

// Wednesday.
var today = models.NewDate(2025, 6, 4)

func newService(t *testing.T, records ...map[string]any) (*Service, *mocks.BackendServer) {
	t.Helper()
	srv := mocks.NewBackendServer()
	t.Cleanup(srv.Close)
	for _, rec := range records {
		srv.PutEmployee(rec)
	}
	client := backend.NewClient(&config.BackendConfig{BaseURL: srv.URL}, logger.Nop())
	svc := NewService(client, func() models.Date { return today }, Config{SyncConcurrency: 2}, logger.Nop())
	return svc, srv
}

func employee(id, name, availability string) map[string]any {
	return map[string]any{
		"empid":        id,
		"name":         name,
		"role":         "Engineer",
		"role_type":    "employee",
		"availability": availability,
	}
}

func partial(id, name, from, to string) map[string]any {
	rec := employee(id, name, "Partially Available")
	rec["hours_available"] = 4
	rec["from_date"] = from
	rec["to_date"] = to
	return rec
}

func ids(list []models.Employee) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.EmpID)
	}
	return out
}

func TestLoad_ExcludesManagers(t *testing.T) {
	boss := employee("1", "Boss", "Occupied")
	boss["role_type"] = "Manager"
	svc, _ := newService(t, boss, employee("2", "Asha", "Available"))

	list, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(list))
}

func TestLoad_DemotesExpiredWindowOnce(t *testing.T) {
	svc, srv := newService(t,
		partial("10", "Expired", "2025-05-26", "2025-06-03"),
		partial("11", "Current", "2025-06-02", "2025-06-04"),
	)

	list, err := svc.Load(context.Background())
	require.NoError(t, err)
	svc.Wait()

	byID := map[string]models.Employee{}
	for _, e := range list {
		byID[e.EmpID] = e
	}
	assert.Equal(t, models.AvailabilityOccupied, byID["10"].Availability)
	assert.Equal(t, models.AvailabilityPartial, byID["11"].Availability, "window ending today is still open")

	patches := srv.CallsMatching(http.MethodPatch, "/api/employees/10")
	require.Len(t, patches, 1)
	assert.Equal(t, "Occupied", patches[0].Body["availability"])
	assert.NotEmpty(t, patches[0].Body["updated_at"])
	assert.Empty(t, srv.CallsMatching(http.MethodPatch, "/api/employees/11"))
	assert.Equal(t, "Occupied", srv.Employee("10")["availability"])
}

func TestLoad_SyncFailureIsSwallowed(t *testing.T) {
	svc, srv := newService(t, partial("10", "Expired", "2025-05-26", "2025-05-30"))
	srv.FailUpdatesOf["10"] = true

	list, err := svc.Load(context.Background())
	require.NoError(t, err)
	svc.Wait()

	require.Len(t, list, 1)
	assert.Equal(t, models.AvailabilityOccupied, list[0].Availability)
	assert.Len(t, srv.CallsMatching(http.MethodPatch, "/api/employees/10"), 1)
	assert.Equal(t, "Partially Available", srv.Employee("10")["availability"])
}

func TestLoad_SyncOutlivesCancelledRequest(t *testing.T) {
	svc, srv := newService(t, partial("10", "Expired", "2025-05-26", "2025-05-30"))

	ctx, cancel := context.WithCancel(context.Background())
	_, err := svc.Load(ctx)
	require.NoError(t, err)
	cancel()
	svc.Wait()

	assert.Equal(t, "Occupied", srv.Employee("10")["availability"])
}

func TestSweep_WaitsForItsOwnBatch(t *testing.T) {
	svc, srv := newService(t, partial("10", "Expired", "2025-05-26", "2025-05-30"), employee("2", "Asha", "Available"))

	n, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Occupied", srv.Employee("10")["availability"])
	assert.Len(t, srv.CallsMatching(http.MethodPatch, "/api/employees/10"), 1)
}

func TestLoad_ConcurrentWithWait(t *testing.T) {
	svc, srv := newService(t, partial("10", "Expired", "2025-05-26", "2025-05-30"))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Load(context.Background())
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			svc.Wait()
		}()
	}
	wg.Wait()
	svc.Wait()

	assert.NotEmpty(t, srv.CallsMatching(http.MethodPatch, "/api/employees/10"))
	assert.Equal(t, "Occupied", srv.Employee("10")["availability"])
}

func TestLoad_BackendError(t *testing.T) {
	svc, srv := newService(t)
	srv.FailReads = true

	_, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, backend.StatusCode(err))
}

func TestFilter(t *testing.T) {
	list := []models.Employee{
		{EmpID: "10", Name: "Ravi", Role: "Tester", Availability: models.AvailabilityAvailable},
		{EmpID: "9", Name: "Anil", Role: "Engineer", Availability: models.AvailabilityOccupied, CurrentSkills: []string{"Rust"}},
		{EmpID: "100", Name: "Priya", Role: "Designer", Availability: models.AvailabilityPartial,
			FromDate: models.NewDate(2025, 6, 9), ToDate: models.NewDate(2025, 6, 13)},
		{EmpID: "abc", Name: "Zoya", Role: "Engineer", Availability: models.AvailabilityAvailable, CurrentSkills: []string{"Go", "Rust"}},
	}

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"no filter sorts numerically", Query{}, []string{"9", "10", "100", "abc"}},
		{"search name prefix", Query{Search: "pr"}, []string{"100"}},
		{"search is a prefix not substring", Query{Search: "riy"}, []string{}},
		{"search skill", Query{Search: "RUST"}, []string{"9", "abc"}},
		{"search role", Query{Search: "eng"}, []string{"9", "abc"}},
		{"availability", Query{Availability: models.AvailabilityAvailable}, []string{"10", "abc"}},
		{"this week excludes next week's window", Query{Range: availability.RangeThisWeek}, []string{"10", "abc"}},
		{"this month includes window", Query{Range: availability.RangeThisMonth}, []string{"10", "100", "abc"}},
		{"range ignored for occupied", Query{Availability: models.AvailabilityOccupied, Range: availability.RangeToday}, []string{"9"}},
		{"today", Query{Range: availability.RangeToday}, []string{"10", "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(list, tt.query, today)
			assert.Equal(t, tt.want, ids(got))
		})
	}
	assert.Equal(t, "10", list[0].EmpID, "input order is untouched")
}

func TestBrowse(t *testing.T) {
	svc, _ := newService(t,
		employee("3", "Kiran", "Available"),
		employee("2", "Kavya", "Occupied"),
		partial("1", "Karthik", "2025-05-26", "2025-06-03"),
	)

	list, err := svc.Browse(context.Background(), Query{Search: "ka", Availability: models.AvailabilityOccupied})
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, []string{"1", "2"}, ids(list))
}

func TestParseAvailabilityFilter(t *testing.T) {
	a, err := ParseAvailabilityFilter("All")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityUnknown, a)

	a, err = ParseAvailabilityFilter("")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityUnknown, a)

	a, err = ParseAvailabilityFilter("Partially Available")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityPartial, a)

	_, err = ParseAvailabilityFilter("Busy")
	assert.Error(t, err)
}

func TestDashboard(t *testing.T) {
	svc, srv := newService(t)
	srv.Dashboard = map[string]any{"totalPartialHours": 12}

	r, err := ParseDashboardRange("weekly")
	require.NoError(t, err)
	doc, err := svc.Dashboard(context.Background(), r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalPartialHours":12,"range":"Weekly"}`, string(doc))

	_, err = ParseDashboardRange("yearly")
	assert.Error(t, err)
}
