package reconcile

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/staff-directory/internal/backend"
	"github.com/aimd54/staff-directory/internal/catalog"
	"github.com/aimd54/staff-directory/internal/config"
	"github.com/aimd54/staff-directory/internal/models"
	"github.com/aimd54/staff-directory/internal/service/availability"
	"github.com/aimd54/staff-directory/internal/session"
	"github.com/aimd54/staff-directory/pkg/logger"
	"github.com/aimd54/staff-directory/test/mocks"
)

// Wednesday.
var fixedNow = time.Date(2025, time.June, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	srv   *mocks.BackendServer
	store *session.RedisStore
	svc   *Service
	sid   string
}

func seedEmployee() map[string]any {
	return map[string]any{
		"empid":           "501",
		"name":            "Meera Iyer",
		"email":           "meera.iyer@tatatechnologies.com",
		"role":            "Tech Lead",
		"cluster":         "MEBM",
		"role_type":       "employee",
		"availability":    "Occupied",
		"current_project": "Apollo",
		"current_skills":  "Go, SQL",
	}
}

func newFixture(t *testing.T, rec map[string]any, verbs ...string) *fixture {
	t.Helper()

	srv := mocks.NewBackendServer()
	t.Cleanup(srv.Close)
	srv.PutEmployee(rec)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := session.NewRedisStore(rdb, time.Hour, "")

	client := backend.NewClient(&config.BackendConfig{BaseURL: srv.URL}, logger.Nop())
	validator := availability.NewValidator(func() time.Time { return fixedNow }, time.UTC)
	svc := NewService(client, store, validator, catalog.Default(), Config{
		Verbs:       verbs,
		EmailDomain: "tatatechnologies.com",
	}, logger.Nop())
	svc.now = func() time.Time { return fixedNow }

	user, err := client.GetEmployee(context.Background(), rec["empid"].(string))
	require.NoError(t, err)
	sess, err := store.Create(context.Background(), *user)
	require.NoError(t, err)

	return &fixture{srv: srv, store: store, svc: svc, sid: sess.ID}
}

func (f *fixture) user(t *testing.T) models.Employee {
	t.Helper()
	sess, err := f.store.Get(context.Background(), f.sid)
	require.NoError(t, err)
	return sess.User
}

func hours(v float64) *float64 { return &v }

func partialInput() DetailsInput {
	return DetailsInput{
		CurrentProject: "Apollo",
		Availability:   "Partially Available",
		HoursAvailable: hours(4),
		FromDate:       "2025-06-09", // next Monday
		ToDate:         "2025-06-12",
		CurrentSkills:  []string{"Go", "SQL"},
		Interests:      []string{"Cloud"},
	}
}

func TestSaveDetails_PartialAvailabilityRoundTrip(t *testing.T) {
	f := newFixture(t, seedEmployee())

	res, err := f.svc.SaveDetails(context.Background(), f.sid, partialInput())
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, res.State)
	assert.Equal(t, http.MethodPut, res.Verb)
	assert.Equal(t, models.AvailabilityPartial, res.Record.Availability)
	require.NotNil(t, res.Record.HoursAvailable)
	assert.Equal(t, 4.0, *res.Record.HoursAvailable)
	assert.Equal(t, "2025-06-09", res.Record.FromDate.String())
	assert.Equal(t, "2025-06-12", res.Record.ToDate.String())
	assert.Empty(t, res.Record.Name, "record only carries detail fields")

	stored := f.srv.Employee("501")
	assert.Equal(t, "2025-06-09", stored["from_date"])
	assert.Equal(t, "2025-06-12", stored["to_date"])
	assert.Equal(t, 4.0, stored["hours_available"])
	assert.Equal(t, "2025-06-04T10:00:00.000Z", stored["updated_at"])

	user := f.user(t)
	assert.Equal(t, models.AvailabilityPartial, user.Availability)
	assert.Equal(t, "2025-06-12", user.ToDate.String())
	assert.Equal(t, "Meera Iyer", user.Name)
	assert.Equal(t, res.User, user)

	// confirmation read
	assert.Len(t, f.srv.CallsMatching(http.MethodGet, "/api/employees/501"), 2)
}

func TestSaveDetails_VerbFallback(t *testing.T) {
	f := newFixture(t, seedEmployee())
	f.srv.RejectVerbs[http.MethodPut] = http.StatusMethodNotAllowed
	f.srv.RejectVerbs[http.MethodPatch] = http.StatusNotFound

	res, err := f.svc.SaveDetails(context.Background(), f.sid, partialInput())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, res.Verb)

	var methods []string
	for _, c := range f.srv.Calls() {
		if c.Method != http.MethodGet {
			methods = append(methods, c.Method+" "+c.Path)
		}
	}
	assert.Equal(t, []string{
		"PUT /api/employees/501",
		"PATCH /api/employees/501",
		"POST /api/employees",
	}, methods)

	post := f.srv.CallsMatching(http.MethodPost, "/api/employees")[0]
	assert.Equal(t, "501", post.Body["empid"])
}

func TestSaveDetails_SingleVerbChain(t *testing.T) {
	f := newFixture(t, seedEmployee(), "PATCH")

	res, err := f.svc.SaveDetails(context.Background(), f.sid, partialInput())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, res.Verb)
	assert.Empty(t, f.srv.CallsMatching(http.MethodPut, "/api/employees/501"))
}

func TestSaveDetails_AllVerbsFail(t *testing.T) {
	f := newFixture(t, seedEmployee())
	f.srv.RejectVerbs[http.MethodPut] = http.StatusMethodNotAllowed
	f.srv.RejectVerbs[http.MethodPatch] = http.StatusMethodNotAllowed
	f.srv.RejectVerbs[http.MethodPost] = http.StatusConflict
	before := f.user(t)

	_, err := f.svc.SaveDetails(context.Background(), f.sid, partialInput())
	require.Error(t, err)

	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	require.Len(t, werr.Attempts, 3)
	assert.Equal(t, http.StatusConflict, werr.Last().StatusCode)
	assert.Contains(t, err.Error(), "Last status: 409")
	assert.Contains(t, err.Error(), "POST not supported")

	assert.Equal(t, before, f.user(t), "session must be untouched")
}

func TestSaveDetails_ConfirmFailureIsDistinct(t *testing.T) {
	f := newFixture(t, seedEmployee())
	f.srv.FailReads = true
	before := f.user(t)

	_, err := f.svc.SaveDetails(context.Background(), f.sid, partialInput())
	require.Error(t, err)

	var cerr *ConfirmError
	require.ErrorAs(t, err, &cerr)
	var werr *WriteError
	assert.False(t, errors.As(err, &werr))
	assert.Contains(t, err.Error(), "Could not fetch record after save")

	// The write did land; only the session stays behind.
	assert.Equal(t, "Partially Available", f.srv.Employee("501")["availability"])
	assert.Equal(t, before, f.user(t))
}

func TestSaveDetails_Idempotent(t *testing.T) {
	f := newFixture(t, seedEmployee())
	in := partialInput()
	in.CurrentSkills = []string{"Go", " SQL ", "Go", "", "SQL"}
	in.Interests = []string{"Cloud", "cloud", "Cloud"}

	first, err := f.svc.SaveDetails(context.Background(), f.sid, in)
	require.NoError(t, err)
	second, err := f.svc.SaveDetails(context.Background(), f.sid, in)
	require.NoError(t, err)

	assert.Equal(t, first.Record, second.Record)
	assert.Equal(t, first.User, second.User)
	assert.Equal(t, []string{"Go", "SQL"}, second.Record.CurrentSkills)
	assert.Equal(t, []string{"Cloud", "cloud"}, second.Record.Interests)
}

func TestSaveDetails_NoCurrentProject(t *testing.T) {
	f := newFixture(t, seedEmployee())

	res, err := f.svc.SaveDetails(context.Background(), f.sid, DetailsInput{
		NoCurrentProject: true,
		CurrentProject:   "ignored",
		Availability:     "Occupied",
		HoursAvailable:   hours(3),
		FromDate:         "2025-06-09",
	})
	require.NoError(t, err)

	assert.Equal(t, models.AvailabilityAvailable, res.Record.Availability)
	assert.Empty(t, res.Record.CurrentProject)
	assert.Nil(t, res.Record.HoursAvailable)
	assert.True(t, res.Record.FromDate.IsZero())

	stored := f.srv.Employee("501")
	assert.Equal(t, "", stored["current_project"])
	assert.Nil(t, stored["hours_available"])
	assert.Nil(t, stored["from_date"])
}

func TestSaveDetails_KeepsFieldsOwnedByOtherScreens(t *testing.T) {
	f := newFixture(t, seedEmployee())

	// Someone renamed the employee on the server after login.
	rec := f.srv.Employee("501")
	rec["name"] = "Renamed On Server"
	f.srv.PutEmployee(rec)

	_, err := f.svc.SaveDetails(context.Background(), f.sid, partialInput())
	require.NoError(t, err)

	assert.Equal(t, "Meera Iyer", f.user(t).Name)
}

func TestSaveDetails_Validation(t *testing.T) {
	ongoing := seedEmployee()
	ongoing["availability"] = "Partially Available"
	ongoing["hours_available"] = 2
	ongoing["from_date"] = "2025-06-02"
	ongoing["to_date"] = "2025-06-13"

	tests := []struct {
		name      string
		rec       map[string]any
		mutate    func(in *DetailsInput)
		wantField string
		wantMsg   string
	}{
		{
			name:      "available with a current project",
			mutate:    func(in *DetailsInput) { in.Availability = "Available" },
			wantField: "availability",
			wantMsg:   "cannot be 'Available'",
		},
		{
			name:      "unknown availability",
			mutate:    func(in *DetailsInput) { in.Availability = "Busy" },
			wantField: "availability",
			wantMsg:   "Select an availability",
		},
		{
			name:      "missing hours",
			mutate:    func(in *DetailsInput) { in.HoursAvailable = nil },
			wantField: "hours_available",
			wantMsg:   "Specify hours",
		},
		{
			name:      "non-positive hours",
			mutate:    func(in *DetailsInput) { in.HoursAvailable = hours(0) },
			wantField: "hours_available",
			wantMsg:   "positive",
		},
		{
			name:      "missing to date",
			mutate:    func(in *DetailsInput) { in.ToDate = "" },
			wantField: "to_date",
			wantMsg:   "To date required",
		},
		{
			name:      "from on a weekend",
			mutate:    func(in *DetailsInput) { in.FromDate = "2025-06-07" },
			wantField: "from_date",
			wantMsg:   "Saturday or Sunday",
		},
		{
			name:      "from in the past",
			mutate:    func(in *DetailsInput) { in.FromDate = "2025-06-03" },
			wantField: "from_date",
			wantMsg:   "earlier than today",
		},
		{
			name:      "to before from",
			mutate:    func(in *DetailsInput) { in.ToDate = "2025-06-05"; in.FromDate = "2025-06-06" },
			wantField: "from_date",
			wantMsg:   "after To date",
		},
		{
			name: "unchanged window still checked for order",
			rec: func() map[string]any {
				r := seedEmployee()
				r["availability"] = "Partially Available"
				r["from_date"] = "2025-06-13"
				r["to_date"] = "2025-06-02"
				return r
			}(),
			mutate:    func(in *DetailsInput) { in.FromDate = "2025-06-13"; in.ToDate = "2025-06-02" },
			wantField: "to_date",
			wantMsg:   "earlier than From date",
		},
		{
			name: "ongoing window started in the past is accepted",
			rec:  ongoing,
			mutate: func(in *DetailsInput) {
				in.FromDate = "2025-06-02"
				in.ToDate = "2025-06-13"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			if rec == nil {
				rec = seedEmployee()
			}
			f := newFixture(t, rec)
			in := partialInput()
			tt.mutate(&in)

			_, err := f.svc.SaveDetails(context.Background(), f.sid, in)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields[tt.wantField], tt.wantMsg)

			for _, c := range f.srv.Calls() {
				assert.Equal(t, http.MethodGet, c.Method, "nothing may be written on validation failure")
			}
		})
	}
}

func TestSaveDetails_UnknownSession(t *testing.T) {
	f := newFixture(t, seedEmployee())

	_, err := f.svc.SaveDetails(context.Background(), "nope", partialInput())
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSaveProfile(t *testing.T) {
	f := newFixture(t, seedEmployee())
	before := f.user(t)

	res, err := f.svc.SaveProfile(context.Background(), f.sid, ProfileInput{
		EmpID:     "501",
		Name:      " Meera I. ",
		Email:     "Meera.Iyer@TataTechnologies.com",
		Role:      "Other",
		OtherRole: "Solution Architect",
		Cluster:   "Multiple",
		Cluster1:  "MEBM",
		Cluster2:  "M&T",
	})
	require.NoError(t, err)

	require.Len(t, f.srv.CallsMatching(http.MethodPut, "/api/employees/501"), 1)
	put := f.srv.CallsMatching(http.MethodPut, "/api/employees/501")[0]
	assert.Equal(t, "Solution Architect", put.Body["role"])
	assert.Equal(t, "Solution Architect", put.Body["otherRole"])
	assert.Equal(t, "MEBM", put.Body["cluster"])
	assert.Equal(t, "M&T", put.Body["cluster2"])

	assert.Equal(t, "501", res.Record.EmpID)
	assert.Equal(t, "Meera I.", res.Record.Name)
	assert.Equal(t, "Solution Architect", res.Record.OtherRole)

	user := f.user(t)
	assert.Equal(t, "501", user.EmpID)
	assert.Equal(t, "M&T", user.Cluster2)
	// detail fields untouched
	assert.Equal(t, before.Availability, user.Availability)
	assert.Equal(t, before.CurrentSkills, user.CurrentSkills)
}

func TestSaveProfile_SingleCluster(t *testing.T) {
	rec := seedEmployee()
	rec["cluster2"] = "M&T"
	f := newFixture(t, rec)

	res, err := f.svc.SaveProfile(context.Background(), f.sid, ProfileInput{
		EmpID:   "501",
		Name:    "Meera Iyer",
		Email:   "meera.iyer@tatatechnologies.com",
		Role:    "Data Analyst",
		Cluster: "S&PS Insitu",
	})
	require.NoError(t, err)

	assert.Equal(t, "S&PS Insitu", res.Record.Cluster)
	assert.Empty(t, res.Record.Cluster2)
	assert.Nil(t, f.srv.Employee("501")["cluster2"])
}

func TestSaveProfile_Validation(t *testing.T) {
	valid := ProfileInput{
		EmpID:   "501",
		Name:    "Meera Iyer",
		Email:   "meera.iyer@tatatechnologies.com",
		Role:    "Tech Lead",
		Cluster: "MEBM",
	}

	tests := []struct {
		name      string
		mutate    func(in *ProfileInput)
		wantField string
		wantMsg   string
	}{
		{name: "blank name", mutate: func(in *ProfileInput) { in.Name = "  " }, wantField: "name", wantMsg: "Name is required"},
		{name: "changed empid", mutate: func(in *ProfileInput) { in.EmpID = "777" }, wantField: "empid", wantMsg: "cannot be changed"},
		{name: "email without dot", mutate: func(in *ProfileInput) { in.Email = "meera@tatatechnologies.com" }, wantField: "email", wantMsg: "Email format Incorrect"},
		{name: "email other domain", mutate: func(in *ProfileInput) { in.Email = "meera.iyer@example.com" }, wantField: "email", wantMsg: "Email format Incorrect"},
		{name: "missing role", mutate: func(in *ProfileInput) { in.Role = "" }, wantField: "role", wantMsg: "Role required"},
		{name: "unknown role", mutate: func(in *ProfileInput) { in.Role = "Astronaut" }, wantField: "role", wantMsg: "Unknown role"},
		{name: "other without text", mutate: func(in *ProfileInput) { in.Role = "Other" }, wantField: "other_role", wantMsg: "Enter role"},
		{name: "missing cluster", mutate: func(in *ProfileInput) { in.Cluster = "" }, wantField: "cluster", wantMsg: "Cluster required"},
		{name: "multiple needs two", mutate: func(in *ProfileInput) { in.Cluster = "Multiple"; in.Cluster1 = "MEBM" }, wantField: "cluster", wantMsg: "Both clusters required"},
		{name: "multiple needs distinct", mutate: func(in *ProfileInput) { in.Cluster = "Multiple"; in.Cluster1 = "MEBM"; in.Cluster2 = "MEBM" }, wantField: "cluster", wantMsg: "different"},
		{name: "unknown cluster", mutate: func(in *ProfileInput) { in.Cluster = "Mars" }, wantField: "cluster", wantMsg: "Unknown cluster"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, seedEmployee())
			in := valid
			tt.mutate(&in)

			_, err := f.svc.SaveProfile(context.Background(), f.sid, in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields[tt.wantField], tt.wantMsg)
		})
	}
}

func TestSaveProfile_EmpIDIsReadOnly(t *testing.T) {
	f := newFixture(t, seedEmployee())
	f.srv.RejectVerbs[http.MethodPut] = http.StatusMethodNotAllowed
	f.srv.RejectVerbs[http.MethodPatch] = http.StatusMethodNotAllowed
	before := f.user(t)

	in := ProfileInput{
		EmpID:   "777",
		Name:    "Meera Iyer",
		Email:   "meera.iyer@tatatechnologies.com",
		Role:    "Tech Lead",
		Cluster: "MEBM",
	}
	_, err := f.svc.SaveProfile(context.Background(), f.sid, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["empid"], "cannot be changed")
	assert.Empty(t, f.srv.CallsMatching(http.MethodPost, "/api/employees"))
	assert.Equal(t, before, f.user(t))

	// blank means unchanged
	in.EmpID = ""
	res, err := f.svc.SaveProfile(context.Background(), f.sid, in)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, res.Verb)

	post := f.srv.CallsMatching(http.MethodPost, "/api/employees")[0]
	assert.Equal(t, "501", post.Body["empid"])
	assert.Empty(t, f.srv.CallsMatching(http.MethodGet, "/api/employees/777"))
	assert.Equal(t, "501", res.Record.EmpID)
	assert.Equal(t, "501", f.user(t).EmpID)
}
