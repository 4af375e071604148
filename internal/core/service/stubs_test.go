package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mealvilla/staff-portal/internal/core/domain"
	"github.com/mealvilla/staff-portal/internal/core/ports"
)

var errStore = errors.New("connection reset by peer")

// --- users ---

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	failAll error
	writes  int
}

func newStubUserRepo(seed ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range seed {
		r.users[u.ID] = cloneUser(u)
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	for _, existing := range r.users {
		if existing.StaffID == u.StaffID {
			return domain.ErrDuplicateStaffID
		}
	}
	r.users[u.ID] = cloneUser(u)
	r.writes++
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByStaffID(_ context.Context, staffID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, u := range r.users {
		if u.StaffID == staffID {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	r.writes++
	return nil
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// --- credentials ---

type stubCredRepo struct {
	mu    sync.Mutex
	creds map[string]*domain.Credential
	fail  error
}

func newStubCredRepo() *stubCredRepo {
	return &stubCredRepo{creds: make(map[string]*domain.Credential)}
}

func (r *stubCredRepo) Create(_ context.Context, c *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	if _, ok := r.creds[c.Email]; ok {
		return domain.ErrDuplicateStaffID
	}
	clone := *c
	r.creds[c.Email] = &clone
	return nil
}

func (r *stubCredRepo) FindByEmail(_ context.Context, email string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.creds[email]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubCredRepo) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creds[email]; !ok {
		return domain.ErrNotFound
	}
	delete(r.creds, email)
	return nil
}

// --- requests ---

// stubRequestRepo applies transitions under a lock, matching the
// compare-and-set the Mongo adapter performs.
type stubRequestRepo struct {
	mu       sync.Mutex
	items    map[string]*domain.StaffRequest
	failNext error
}

func newStubRequestRepo() *stubRequestRepo {
	return &stubRequestRepo{items: make(map[string]*domain.StaffRequest)}
}

func cloneRequest(r *domain.StaffRequest) *domain.StaffRequest {
	clone := *r
	if r.ProcessedTimestamp != nil {
		ts := *r.ProcessedTimestamp
		clone.ProcessedTimestamp = &ts
	}
	return &clone
}

func (r *stubRequestRepo) Create(_ context.Context, req *domain.StaffRequest) (*domain.StaffRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failNext; err != nil {
		r.failNext = nil
		return nil, err
	}
	stored := cloneRequest(req)
	stored.RequestTimestamp = time.Now().UTC()
	r.items[req.ID] = stored
	return cloneRequest(stored), nil
}

func (r *stubRequestRepo) Get(_ context.Context, kind domain.RequestKind, id string) (*domain.StaffRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.items[id]; ok && req.Kind == kind {
		return cloneRequest(req), nil
	}
	return nil, domain.ErrRequestNotFound
}

func (r *stubRequestRepo) List(_ context.Context, kind domain.RequestKind, f ports.RequestFilter) ([]*domain.StaffRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.StaffRequest, 0)
	for _, req := range r.items {
		if req.Kind != kind {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.RequestedByUID != "" && req.RequestedByUID != f.RequestedByUID {
			continue
		}
		out = append(out, cloneRequest(req))
	}
	return out, nil
}

func (r *stubRequestRepo) Transition(_ context.Context, kind domain.RequestKind, id string, d domain.RequestDecision) (*domain.StaffRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failNext; err != nil {
		r.failNext = nil
		return nil, err
	}
	req, ok := r.items[id]
	if !ok || req.Kind != kind {
		return nil, domain.ErrRequestNotFound
	}
	if req.Status != domain.StatusPending {
		return nil, domain.ErrAlreadyProcessed
	}
	now := time.Now().UTC()
	req.Status = d.Status
	req.ProcessedByUID = d.ProcessedByUID
	req.ProcessedByName = d.ProcessedByName
	req.ProcessedTimestamp = &now
	req.ManagerFeedback = d.Feedback
	req.InitialPasswordHash = ""
	return cloneRequest(req), nil
}

func (r *stubRequestRepo) Reopen(_ context.Context, kind domain.RequestKind, id, processedByUID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.items[id]
	if !ok || req.Kind != kind || req.Status != domain.StatusApproved || req.ProcessedByUID != processedByUID {
		return domain.ErrAlreadyProcessed
	}
	req.Status = domain.StatusPending
	req.ProcessedByUID = ""
	req.ProcessedByName = ""
	req.ProcessedTimestamp = nil
	req.ManagerFeedback = ""
	return nil
}

func (r *stubRequestRepo) get(id string) *domain.StaffRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.items[id]; ok {
		return cloneRequest(req)
	}
	return nil
}

// --- sales ---

type stubSalesRepo struct {
	mu      sync.Mutex
	entries map[string]*domain.SalesEntry
	fail    error
	writes  int
}

func newStubSalesRepo() *stubSalesRepo {
	return &stubSalesRepo{entries: make(map[string]*domain.SalesEntry)}
}

func (r *stubSalesRepo) entry(userID, staffID, date string) *domain.SalesEntry {
	key := domain.SalesKey(userID, date)
	e, ok := r.entries[key]
	if !ok {
		e = domain.EmptySalesEntry(userID, staffID, date)
		r.entries[key] = e
	}
	return e
}

func (r *stubSalesRepo) Get(_ context.Context, userID, date string) (*domain.SalesEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	e, ok := r.entries[domain.SalesKey(userID, date)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (r *stubSalesRepo) Accumulate(_ context.Context, userID, staffID, date string, delta domain.SalesTotals) (*domain.SalesEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	e := r.entry(userID, staffID, date)
	if e.IsFinalized {
		return nil, domain.ErrLocked
	}
	e.SalesTotals = e.SalesTotals.Plus(delta)
	r.writes++
	clone := *e
	return &clone, nil
}

func (r *stubSalesRepo) Reset(_ context.Context, userID, staffID, date string) (*domain.SalesEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	e := r.entry(userID, staffID, date)
	if e.IsFinalized {
		return nil, domain.ErrLocked
	}
	e.SalesTotals = domain.SalesTotals{}
	r.writes++
	clone := *e
	return &clone, nil
}

func (r *stubSalesRepo) Finalize(_ context.Context, userID, staffID, date string) (*domain.SalesEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	e := r.entry(userID, staffID, date)
	e.IsFinalized = true
	clone := *e
	return &clone, nil
}

func (r *stubSalesRepo) ListByDate(_ context.Context, date string) ([]*domain.SalesEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.SalesEntry, 0)
	for _, e := range r.entries {
		if e.Date == date {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

// --- dedup ---

type stubDedup struct {
	mu   sync.Mutex
	keys map[string]bool
	fail error
}

func newStubDedup() *stubDedup {
	return &stubDedup{keys: make(map[string]bool)}
}

func (d *stubDedup) Claim(_ context.Context, scope, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return false, d.fail
	}
	k := scope + ":" + key
	if d.keys[k] {
		return true, nil
	}
	d.keys[k] = true
	return false, nil
}

func (d *stubDedup) Release(_ context.Context, scope, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.keys, scope+":"+key)
	return nil
}

// --- notifications ---

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	fail error
}

func (n *recordingNotifier) Emit(_ context.Context, note domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, note)
	return nil
}

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.sent...)
}

type stubNotificationRepo struct {
	mu    sync.Mutex
	items []*domain.Notification
	fail  error
}

func (r *stubNotificationRepo) Insert(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	clone := *n
	clone.Timestamp = time.Now().UTC()
	r.items = append(r.items, &clone)
	return nil
}

func (r *stubNotificationRepo) ListFor(_ context.Context, role domain.Role, uid string, limit int) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Notification, 0)
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.items[i]
		switch {
		case n.RecipientUID != "":
			if n.RecipientUID != uid {
				continue
			}
		case n.RecipientRole != role && n.RecipientRole != domain.RoleAll:
			continue
		}
		clone := *n
		out = append(out, &clone)
	}
	return out, nil
}

// --- identity ---

type stubIdentity struct {
	mu       sync.Mutex
	created  map[string]string
	imported map[string]string // email -> password hash
	revoked  []string
	fail     error
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{created: make(map[string]string), imported: make(map[string]string)}
}

func (s *stubIdentity) CreateCredential(_ context.Context, email, _ string, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.created[email] = userID
	return nil
}

func (s *stubIdentity) ImportCredential(_ context.Context, email, passwordHash, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.created[email] = userID
	s.imported[email] = passwordHash
	return nil
}

func (s *stubIdentity) RevokeCredential(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = append(s.revoked, email)
	return nil
}

// --- actors ---

var (
	manager    = domain.Actor{UID: "mgr-1", Name: "Maria", Role: domain.RoleManager, StaffID: "900001"}
	developer  = domain.Actor{UID: "dev-1", Name: "Dana", Role: domain.RoleDeveloper, StaffID: "900002"}
	supervisor = domain.Actor{UID: "sup-1", Name: "Sam", Role: domain.RoleSupervisor, StaffID: "900003"}
	staffer    = domain.Actor{UID: "stf-1", Name: "Tess", Role: domain.RoleStaff, StaffID: "900004"}
)
