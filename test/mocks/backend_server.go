package mocks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
)

// BackendCall is one request received by BackendServer.
type BackendCall struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// Account is a login known to BackendServer.
type Account struct {
	EmpID    string
	Password string
}

// BackendServer is an in-memory stand-in for the employee REST API.
// Employee and project records are stored as raw JSON objects so tests see
// exactly what the client sent.
type BackendServer struct {
	*httptest.Server

	mu        sync.Mutex
	employees map[string]map[string]any
	projects  map[string]map[string]any
	accounts  map[string]*Account
	nextID    int
	calls     []BackendCall

	// RejectVerbs maps an employee update verb to the status it fails with.
	RejectVerbs map[string]int
	// FailReads makes employee reads answer 503.
	FailReads bool
	// FailUpdatesOf makes every employee update of that id answer 500.
	FailUpdatesOf map[string]bool
	// Dashboard is returned by the dashboard-metrics endpoint.
	Dashboard map[string]any
	// Subscriptions collects push subscriptions by empid.
	Subscriptions map[string]json.RawMessage
}

// NewBackendServer starts a fake backend. Close it with t.Cleanup(srv.Close).
func NewBackendServer() *BackendServer {
	b := &BackendServer{
		employees:     make(map[string]map[string]any),
		projects:      make(map[string]map[string]any),
		accounts:      make(map[string]*Account),
		RejectVerbs:   make(map[string]int),
		FailUpdatesOf: make(map[string]bool),
		Dashboard:     map[string]any{"totalPartialHours": 0},
		Subscriptions: make(map[string]json.RawMessage),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.login)
	mux.HandleFunc("POST /api/auth/update-password", b.updatePassword)
	mux.HandleFunc("GET /api/employees", b.listEmployees)
	mux.HandleFunc("GET /api/employees/dashboard-metrics", b.dashboard)
	mux.HandleFunc("GET /api/employees/{id}", b.getEmployee)
	mux.HandleFunc("PUT /api/employees/{id}", b.updateEmployee)
	mux.HandleFunc("PATCH /api/employees/{id}", b.updateEmployee)
	mux.HandleFunc("POST /api/employees", b.updateEmployee)
	mux.HandleFunc("GET /api/projects", b.listProjects)
	mux.HandleFunc("POST /api/projects", b.createProject)
	mux.HandleFunc("PATCH /api/projects/{id}", b.updateProject)
	mux.HandleFunc("PATCH /api/projects/{id}/status", b.updateProjectStatus)
	mux.HandleFunc("DELETE /api/projects/{id}", b.deleteProject)
	mux.HandleFunc("POST /api/notifications/subscribe", b.subscribe)

	b.Server = httptest.NewServer(b.record(mux))
	return b
}

// PutEmployee stores a raw employee record keyed by its empid.
func (b *BackendServer) PutEmployee(rec map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.employees[keyOf(rec["empid"])] = copyMap(rec)
}

// Employee returns a copy of a stored employee record.
func (b *BackendServer) Employee(id string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyMap(b.employees[id])
}

// PutProject stores a raw project record keyed by its id.
func (b *BackendServer) PutProject(rec map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.projects[keyOf(rec["id"])] = copyMap(rec)
}

// ProjectCount returns the number of stored projects.
func (b *BackendServer) ProjectCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.projects)
}

// AddAccount registers login credentials for email.
func (b *BackendServer) AddAccount(email, password, empid string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = &Account{EmpID: empid, Password: password}
}

// Calls returns the requests received so far.
func (b *BackendServer) Calls() []BackendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BackendCall, len(b.calls))
	copy(out, b.calls)
	return out
}

// CallsMatching returns the requests with the given method and path.
func (b *BackendServer) CallsMatching(method, path string) []BackendCall {
	var out []BackendCall
	for _, c := range b.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (b *BackendServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := BackendCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &call.Body)
		}
		b.mu.Lock()
		b.calls = append(b.calls, call)
		b.mu.Unlock()
		r = r.WithContext(withBody(r.Context(), call.Body))
		next.ServeHTTP(w, r)
	})
}

func (b *BackendServer) login(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)

	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[email]
	if !ok || acc.Password != password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": b.employees[acc.EmpID]})
}

func (b *BackendServer) updatePassword(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	empid := keyOf(body["empid"])
	current, _ := body["currentPassword"].(string)
	next, _ := body["newPassword"].(string)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		if acc.EmpID != empid {
			continue
		}
		if acc.Password != current {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Current password is incorrect"})
			return
		}
		acc.Password = next
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "Employee not found"})
}

func (b *BackendServer) listEmployees(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailReads {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, sortedValues(b.employees))
}

func (b *BackendServer) getEmployee(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailReads {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "unavailable"})
		return
	}
	rec, ok := b.employees[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Employee not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (b *BackendServer) updateEmployee(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	id := r.PathValue("id")
	if id == "" {
		id = keyOf(body["empid"])
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if status, reject := b.RejectVerbs[r.Method]; reject {
		writeJSON(w, status, map[string]any{"error": r.Method + " not supported"})
		return
	}
	if b.FailUpdatesOf[id] {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "update failed"})
		return
	}
	rec, ok := b.employees[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Employee not found"})
		return
	}
	for k, v := range body {
		if k == "otherRole" {
			k = "other_role"
		}
		rec[k] = v
	}
	newID := keyOf(rec["empid"])
	if newID != id {
		delete(b.employees, id)
		b.employees[newID] = rec
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *BackendServer) dashboard(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc := copyMap(b.Dashboard)
	doc["range"] = r.URL.Query().Get("range")
	writeJSON(w, http.StatusOK, doc)
}

func (b *BackendServer) listProjects(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedValues(b.projects))
}

func (b *BackendServer) createProject(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := strconv.Itoa(1000 + b.nextID)
	rec := copyMap(body)
	delete(rec, "user_empid")
	rec["id"] = id
	b.projects[id] = rec
	writeJSON(w, http.StatusCreated, rec)
}

func (b *BackendServer) updateProject(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.ownedProject(w, r.PathValue("id"), keyOf(body["user_empid"]))
	if !ok {
		return
	}
	for k, v := range body {
		if k != "user_empid" && k != "empid" && k != "id" {
			rec[k] = v
		}
	}
	writeJSON(w, http.StatusOK, rec)
}

func (b *BackendServer) updateProjectStatus(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.ownedProject(w, r.PathValue("id"), keyOf(body["user_empid"]))
	if !ok {
		return
	}
	rec["status"] = body["status"]
	writeJSON(w, http.StatusOK, rec)
}

func (b *BackendServer) deleteProject(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	id := r.PathValue("id")
	if _, ok := b.ownedProject(w, id, keyOf(body["user_empid"])); !ok {
		return
	}
	delete(b.projects, id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ownedProject must be called with b.mu held.
func (b *BackendServer) ownedProject(w http.ResponseWriter, id, userEmpID string) (map[string]any, bool) {
	rec, ok := b.projects[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Project not found"})
		return nil, false
	}
	if keyOf(rec["empid"]) != userEmpID {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "Unauthorized: You can only modify your own projects"})
		return nil, false
	}
	return rec, true
}

func (b *BackendServer) subscribe(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	sub, _ := json.Marshal(body["subscription"])
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Subscriptions[keyOf(body["empid"])] = sub
	writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func keyOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return ""
	}
}

func copyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedValues(m map[string]map[string]any) []map[string]any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

type bodyKey struct{}

func withBody(ctx context.Context, body map[string]any) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

func bodyOf(r *http.Request) map[string]any {
	body, _ := r.Context().Value(bodyKey{}).(map[string]any)
	if body == nil {
		body = map[string]any{}
	}
	return body
}
