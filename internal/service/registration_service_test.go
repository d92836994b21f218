package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"campdesk/internal/dto"
	"campdesk/internal/model"
)

func setupTestRegistrationService() (RegistrationService, *memStore) {
	repo, store := newMockRepository()
	return NewRegistrationService(repo, zap.NewNop()), store
}

func seedRegistrations(store *memStore) {
	store.addRoom("m-1", "Hall-1", model.GenderMale, 4, true)
	store.addRegistration("r1", "Ade Bello", model.GenderMale, true)
	store.addRegistration("r2", "Bayo Cole", model.GenderMale, true)
	store.addRegistration("r3", "Chidi Dare", model.GenderMale, false)
	store.addRegistration("r4", "Ada Obi", model.GenderFemale, true)
	store.addAllocation("r1", "m-1", model.AllocationAuto)
}

// ── List ──

func TestRegistrationService_List_Filters(t *testing.T) {
	svc, store := setupTestRegistrationService()
	seedRegistrations(store)

	cases := []struct {
		name string
		req  dto.RegistrationListRequest
		want []string
	}{
		{"all", dto.RegistrationListRequest{}, []string{"r4", "r1", "r2", "r3"}},
		{"male", dto.RegistrationListRequest{Gender: "Male"}, []string{"r1", "r2", "r3"}},
		{"verified unallocated", dto.RegistrationListRequest{Verified: boolPtr(true), Allocated: boolPtr(false)}, []string{"r4", "r2"}},
		{"allocated", dto.RegistrationListRequest{Allocated: boolPtr(true)}, []string{"r1"}},
		{"search", dto.RegistrationListRequest{Search: "COLE"}, []string{"r2"}},
		{"paged", dto.RegistrationListRequest{PaginationRequest: dto.PaginationRequest{Page: 2, PageSize: 3}}, []string{"r3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			list, _, err := svc.List(context.Background(), &req)
			if err != nil {
				t.Fatalf("List should succeed: %v", err)
			}
			if len(list) != len(tc.want) {
				t.Fatalf("expected %v, got %d rows", tc.want, len(list))
			}
			for i, id := range tc.want {
				if list[i].ID != id {
					t.Errorf("row %d: expected %s, got %s", i, id, list[i].ID)
				}
			}
		})
	}
}

func TestRegistrationService_List_IncludesRoom(t *testing.T) {
	svc, store := setupTestRegistrationService()
	seedRegistrations(store)

	list, total, err := svc.List(context.Background(), &dto.RegistrationListRequest{Allocated: boolPtr(true)})
	if err != nil {
		t.Fatalf("List should succeed: %v", err)
	}
	if total != 1 || list[0].Room == nil || list[0].Room.RoomName != "Hall-1" {
		t.Errorf("expected r1 with Hall-1 attached, got %+v", list)
	}
}

// ── ListUnallocated ──

func TestRegistrationService_ListUnallocated(t *testing.T) {
	svc, store := setupTestRegistrationService()
	seedRegistrations(store)

	list, err := svc.ListUnallocated(context.Background(), &dto.UnallocatedListRequest{Gender: "Male"})
	if err != nil {
		t.Fatalf("ListUnallocated should succeed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "r2" {
		t.Errorf("expected only r2, got %+v", list)
	}

	all, err := svc.ListUnallocated(context.Background(), &dto.UnallocatedListRequest{})
	if err != nil {
		t.Fatalf("ListUnallocated should succeed: %v", err)
	}
	// registration order: r2 was created before r4
	if len(all) != 2 || all[0].ID != "r2" || all[1].ID != "r4" {
		t.Errorf("expected r2, r4; got %+v", all)
	}
}

// ── Get / ListLogs ──

func TestRegistrationService_Get(t *testing.T) {
	svc, store := setupTestRegistrationService()
	seedRegistrations(store)

	reg, err := svc.Get(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Get should succeed: %v", err)
	}
	if reg.FullName != "Ade Bello" || reg.Room == nil {
		t.Errorf("unexpected registration %+v", reg)
	}
	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, ErrRegistrationNotFound) {
		t.Errorf("expected ErrRegistrationNotFound, got %v", err)
	}
}

func TestRegistrationService_ListLogs(t *testing.T) {
	repo, store := newMockRepository()
	seedRegistrations(store)
	verify := NewVerificationService(repo, nil, zap.NewNop())
	regs := NewRegistrationService(repo, zap.NewNop())

	if _, err := verify.Unverify(context.Background(), "r1", true, "admin-1"); err != nil {
		t.Fatalf("Unverify should succeed: %v", err)
	}
	if _, err := verify.Verify(context.Background(), &dto.VerifyRequest{RegistrationID: "r1"}, "staff-1"); err != nil {
		t.Fatalf("Verify should succeed: %v", err)
	}

	logs, total, err := regs.ListLogs(context.Background(), "r1", &dto.AuditLogListRequest{})
	if err != nil {
		t.Fatalf("ListLogs should succeed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 entries, got %d", total)
	}
	// newest first
	if logs[0].Action != model.ActionVerify || logs[2].Action != model.ActionDeallocate {
		t.Errorf("unexpected order %+v", logs)
	}

	if _, _, err := regs.ListLogs(context.Background(), "ghost", &dto.AuditLogListRequest{}); !errors.Is(err, ErrRegistrationNotFound) {
		t.Errorf("expected ErrRegistrationNotFound, got %v", err)
	}
}
