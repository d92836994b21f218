package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campdesk/internal/model"
	"campdesk/internal/repository"
	pkgerrors "campdesk/pkg/errors"
)

// ── in-memory store shared by the mock repositories ──

// memStore keeps every table in maps. txMu serialises transactions, standing in
// for the row locks the real repositories take; mu guards the maps themselves.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	regs   map[string]*model.Registration
	rooms  map[string]*model.Room
	allocs map[string]*model.Allocation // by allocation id
	logs   []model.AuditLog

	clock time.Time
	// fail injects an error into the named operation, e.g. "AuditLog.BatchCreate"
	fail map[string]error

	// lockTrace records row-locking list reads in call order, e.g. "rooms:All", "regs:Male"
	lockTrace []string
	txOpts    []*sql.TxOptions
}

func (s *memStore) traceLock(entry string) {
	s.mu.Lock()
	s.lockTrace = append(s.lockTrace, entry)
	s.mu.Unlock()
}

func newMemStore() *memStore {
	return &memStore{
		regs:   make(map[string]*model.Registration),
		rooms:  make(map[string]*model.Room),
		allocs: make(map[string]*model.Allocation),
		clock:  time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC),
		fail:   make(map[string]error),
	}
}

// tick returns a strictly increasing timestamp; caller holds mu
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type memSnapshot struct {
	regs   map[string]model.Registration
	rooms  map[string]model.Room
	allocs map[string]model.Allocation
	logs   int
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		regs:   make(map[string]model.Registration, len(s.regs)),
		rooms:  make(map[string]model.Room, len(s.rooms)),
		allocs: make(map[string]model.Allocation, len(s.allocs)),
		logs:   len(s.logs),
	}
	for k, v := range s.regs {
		snap.regs[k] = *v
	}
	for k, v := range s.rooms {
		snap.rooms[k] = *v
	}
	for k, v := range s.allocs {
		snap.allocs[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs = make(map[string]*model.Registration, len(snap.regs))
	for k, v := range snap.regs {
		v := v
		s.regs[k] = &v
	}
	s.rooms = make(map[string]*model.Room, len(snap.rooms))
	for k, v := range snap.rooms {
		v := v
		s.rooms[k] = &v
	}
	s.allocs = make(map[string]*model.Allocation, len(snap.allocs))
	for k, v := range snap.allocs {
		v := v
		s.allocs[k] = &v
	}
	s.logs = s.logs[:snap.logs]
}

// allocationOf caller holds mu
func (s *memStore) allocationOf(regID string) *model.Allocation {
	for _, a := range s.allocs {
		if a.RegistrationID == regID {
			return a
		}
	}
	return nil
}

// occupancyOf caller holds mu
func (s *memStore) occupancyOf(roomID string) int {
	n := 0
	for _, a := range s.allocs {
		if a.RoomID == roomID {
			n++
		}
	}
	return n
}

// ── seeding helpers ──

func (s *memStore) addRegistration(id, name string, g model.Gender, verified bool) *model.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg := &model.Registration{
		RegistrationID: id,
		FullName:       name,
		Gender:         g,
		Email:          strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.org",
		Phone:          "+1555" + id,
	}
	reg.Version = 1
	reg.CreatedAt = s.tick()
	reg.UpdatedAt = reg.CreatedAt
	if verified {
		reg.MarkVerified("seed", model.VerificationManual, reg.CreatedAt)
	}
	s.regs[id] = reg
	return reg
}

func (s *memStore) addRoom(id, name string, g model.Gender, capacity int, active bool) *model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := &model.Room{
		RoomID:   id,
		Name:     name,
		Gender:   g,
		Capacity: capacity,
		IsActive: active,
	}
	room.Version = 1
	room.CreatedAt = s.tick()
	room.UpdatedAt = room.CreatedAt
	s.rooms[id] = room
	return room
}

func (s *memStore) addAllocation(regID, roomID, mode string) *model.Allocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &model.Allocation{
		AllocationID:   uuid.NewString(),
		RegistrationID: regID,
		RoomID:         roomID,
		Mode:           mode,
		AllocatedBy:    "seed",
		CreatedAt:      s.tick(),
	}
	s.allocs[a.AllocationID] = a
	return a
}

func (s *memStore) occupancy(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.occupancyOf(roomID)
}

func (s *memStore) roomOf(regID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.allocationOf(regID); a != nil {
		return a.RoomID
	}
	return ""
}

func (s *memStore) registration(id string) model.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.regs[id]
}

func (s *memStore) allocationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.allocs)
}

func (s *memStore) auditLogs() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditLog(nil), s.logs...)
}

func (s *memStore) injected(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail[op]
}

// newMockRepository wires every mock repository to one store
func newMockRepository() (*repository.Repository, *memStore) {
	s := newMemStore()
	repo := &repository.Repository{
		Registration: &mockRegistrationRepo{s: s},
		Room:         &mockRoomRepo{s: s},
		Allocation:   &mockAllocationRepo{s: s},
		AuditLog:     &mockAuditLogRepo{s: s},
	}
	repo.Tx = &mockTransactor{s: s, repo: repo}
	return repo, s
}

// ── Mock Transactor ──

type mockTransactor struct {
	s    *memStore
	repo *repository.Repository
}

func (t *mockTransactor) Transaction(_ context.Context, fn func(tx *repository.Repository) error, opts ...*sql.TxOptions) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	var opt *sql.TxOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	t.s.mu.Lock()
	t.s.txOpts = append(t.s.txOpts, opt)
	t.s.mu.Unlock()

	snap := t.s.snapshot()
	if err := fn(t.repo); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

// ── Mock RegistrationRepository ──

type mockRegistrationRepo struct {
	s *memStore
}

// withAllocation copies reg and attaches its allocation; caller holds mu
func (r *mockRegistrationRepo) withAllocation(reg *model.Registration) model.Registration {
	out := *reg
	out.Allocation = nil
	if a := r.s.allocationOf(reg.RegistrationID); a != nil {
		ac := *a
		if room, ok := r.s.rooms[a.RoomID]; ok {
			rc := *room
			ac.Room = &rc
		}
		out.Allocation = &ac
	}
	return out
}

func (r *mockRegistrationRepo) GetByID(_ context.Context, id string) (*model.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.regs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := r.withAllocation(reg)
	return &out, nil
}

func (r *mockRegistrationRepo) GetByIDForUpdate(_ context.Context, id string) (*model.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.regs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *reg
	out.Allocation = nil
	return &out, nil
}

func (r *mockRegistrationRepo) List(_ context.Context, filter repository.RegistrationFilter, offset, limit int) ([]model.Registration, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []model.Registration
	for _, reg := range r.s.regs {
		if filter.Gender != "" && reg.Gender != filter.Gender {
			continue
		}
		if filter.Verified != nil && reg.IsVerified != *filter.Verified {
			continue
		}
		allocated := r.s.allocationOf(reg.RegistrationID) != nil
		if filter.Allocated != nil && allocated != *filter.Allocated {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(reg.FullName), search) &&
			!strings.Contains(strings.ToLower(reg.Email), search) &&
			!strings.Contains(reg.Phone, search) {
			continue
		}
		matched = append(matched, r.withAllocation(reg))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].FullName != matched[j].FullName {
			return matched[i].FullName < matched[j].FullName
		}
		return matched[i].RegistrationID < matched[j].RegistrationID
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.Registration{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *mockRegistrationRepo) ListUnallocated(_ context.Context, gender model.Gender, forUpdate bool) ([]model.Registration, error) {
	if forUpdate {
		r.s.traceLock("regs:" + string(gender))
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []model.Registration
	for _, reg := range r.s.regs {
		if !reg.IsVerified || r.s.allocationOf(reg.RegistrationID) != nil {
			continue
		}
		if gender != "" && gender != model.GenderAll && reg.Gender != gender {
			continue
		}
		c := *reg
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].RegistrationID < out[j].RegistrationID
	})
	return out, nil
}

func (r *mockRegistrationRepo) UpdateVerification(_ context.Context, reg *model.Registration) error {
	if err := r.s.injected("Registration.UpdateVerification"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.regs[reg.RegistrationID]
	if !ok || stored.Version != reg.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.IsVerified = reg.IsVerified
	stored.VerifiedAt = reg.VerifiedAt
	stored.VerifiedBy = reg.VerifiedBy
	stored.VerificationMethod = reg.VerificationMethod
	stored.UpdatedBy = reg.UpdatedBy
	stored.Version++
	reg.Version = stored.Version
	return nil
}

func (r *mockRegistrationRepo) CountByGender(_ context.Context) ([]repository.GenderCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byGender := map[model.Gender]*repository.GenderCounts{}
	for _, reg := range r.s.regs {
		c, ok := byGender[reg.Gender]
		if !ok {
			c = &repository.GenderCounts{Gender: reg.Gender}
			byGender[reg.Gender] = c
		}
		c.Total++
		allocated := r.s.allocationOf(reg.RegistrationID) != nil
		if reg.IsVerified {
			c.Verified++
			if !allocated {
				c.Unallocated++
			}
		}
		if allocated {
			c.Allocated++
		}
	}
	var out []repository.GenderCounts
	for _, c := range byGender {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gender < out[j].Gender })
	return out, nil
}

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	s *memStore
}

func (r *mockRoomRepo) Create(_ context.Context, room *model.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.rooms {
		if existing.Name == room.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if room.RoomID == "" {
		room.RoomID = uuid.NewString()
	}
	if room.Version == 0 {
		room.Version = 1
	}
	room.CreatedAt = r.s.tick()
	room.UpdatedAt = room.CreatedAt
	c := *room
	r.s.rooms[room.RoomID] = &c
	return nil
}

func (r *mockRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *room
	return &c, nil
}

func (r *mockRoomRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Room, error) {
	return r.GetByID(ctx, id)
}

func (r *mockRoomRepo) GetByName(_ context.Context, name string) (*model.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, room := range r.s.rooms {
		if room.Name == name {
			c := *room
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockRoomRepo) filter(gender model.Gender, includeInactive bool) []model.Room {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Room
	for _, room := range r.s.rooms {
		if gender != "" && gender != model.GenderAll && room.Gender != gender {
			continue
		}
		if !includeInactive && !room.IsActive {
			continue
		}
		out = append(out, *room)
	}
	return out
}

func (r *mockRoomRepo) List(_ context.Context, gender model.Gender, includeInactive bool) ([]model.Room, error) {
	out := r.filter(gender, includeInactive)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].RoomID < out[j].RoomID
	})
	return out, nil
}

func (r *mockRoomRepo) ListForUpdate(_ context.Context, gender model.Gender, activeOnly bool) ([]model.Room, error) {
	r.s.traceLock("rooms:" + string(gender))
	out := r.filter(gender, !activeOnly)
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, nil
}

func (r *mockRoomRepo) Update(_ context.Context, room *model.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.rooms[room.RoomID]
	if !ok || stored.Version != room.Version {
		return pkgerrors.ErrOptimisticLock
	}
	room.Version++
	room.UpdatedAt = r.s.tick()
	c := *room
	r.s.rooms[room.RoomID] = &c
	return nil
}

func (r *mockRoomRepo) Delete(_ context.Context, id string, _ string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.rooms, id)
	return nil
}

// ── Mock AllocationRepository ──

type mockAllocationRepo struct {
	s *memStore
}

func (r *mockAllocationRepo) Create(ctx context.Context, alloc *model.Allocation) error {
	allocs := []model.Allocation{*alloc}
	if err := r.BatchCreate(ctx, allocs); err != nil {
		return err
	}
	*alloc = allocs[0]
	return nil
}

func (r *mockAllocationRepo) BatchCreate(_ context.Context, allocs []model.Allocation) error {
	if err := r.s.injected("Allocation.BatchCreate"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	for _, a := range allocs {
		if seen[a.RegistrationID] || r.s.allocationOf(a.RegistrationID) != nil {
			return gorm.ErrDuplicatedKey
		}
		seen[a.RegistrationID] = true
	}
	for i := range allocs {
		if allocs[i].AllocationID == "" {
			allocs[i].AllocationID = uuid.NewString()
		}
		allocs[i].CreatedAt = r.s.tick()
		c := allocs[i]
		r.s.allocs[c.AllocationID] = &c
	}
	return nil
}

func (r *mockAllocationRepo) GetByRegistration(_ context.Context, registrationID string) (*model.Allocation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a := r.s.allocationOf(registrationID)
	if a == nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *a
	if room, ok := r.s.rooms[a.RoomID]; ok {
		rc := *room
		c.Room = &rc
	}
	return &c, nil
}

func (r *mockAllocationRepo) CountByRoom(_ context.Context, roomID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.occupancyOf(roomID), nil
}

func (r *mockAllocationRepo) Occupancy(_ context.Context, roomIDs []string) (map[string]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]int, len(roomIDs))
	for _, id := range roomIDs {
		if n := r.s.occupancyOf(id); n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (r *mockAllocationRepo) ListByRooms(_ context.Context, roomIDs []string) ([]model.Allocation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[string]bool{}
	for _, id := range roomIDs {
		want[id] = true
	}
	var out []model.Allocation
	for _, a := range r.s.allocs {
		if !want[a.RoomID] {
			continue
		}
		c := *a
		if reg, ok := r.s.regs[a.RegistrationID]; ok {
			rc := *reg
			c.Registration = &rc
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].AllocationID < out[j].AllocationID
	})
	return out, nil
}

func (r *mockAllocationRepo) DeleteByRegistration(_ context.Context, registrationID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, a := range r.s.allocs {
		if a.RegistrationID == registrationID {
			delete(r.s.allocs, id)
			n++
		}
	}
	return n, nil
}

func (r *mockAllocationRepo) DeleteByRooms(_ context.Context, roomIDs []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[string]bool{}
	for _, id := range roomIDs {
		want[id] = true
	}
	var n int64
	for id, a := range r.s.allocs {
		if want[a.RoomID] {
			delete(r.s.allocs, id)
			n++
		}
	}
	return n, nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	s *memStore
}

func (r *mockAuditLogRepo) BatchCreate(_ context.Context, logs []model.AuditLog) error {
	if err := r.s.injected("AuditLog.BatchCreate"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range logs {
		if logs[i].LogID == "" {
			logs[i].LogID = uuid.NewString()
		}
		logs[i].CreatedAt = r.s.tick()
		r.s.logs = append(r.s.logs, logs[i])
	}
	return nil
}

func (r *mockAuditLogRepo) ListByRegistration(_ context.Context, registrationID string, offset, limit int) ([]model.AuditLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []model.AuditLog
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		if r.s.logs[i].RegistrationID == registrationID {
			matched = append(matched, r.s.logs[i])
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.AuditLog{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}
