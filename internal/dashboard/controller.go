package dashboard

import (
	"context"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"campdesk/internal/dto"
	"campdesk/internal/model"
)

// Controller keeps the dashboard projections for the current gender filter
// and applies optimistic updates for the operator's own mutations. Local
// changes stay authoritative until the next Refresh commits.
type Controller struct {
	api    API
	logger *zap.Logger

	mu     sync.RWMutex
	gender string

	Stats       Projection[*dto.AccommodationStats]
	Rooms       Projection[[]dto.RoomResponse]
	Unallocated Projection[[]dto.RegistrationResponse]
}

// NewController creates a Controller showing both partitions
func NewController(api API, logger *zap.Logger) *Controller {
	return &Controller{api: api, logger: logger}
}

// Gender current filter; empty means both partitions
func (c *Controller) Gender() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gender
}

// SetGender switches the filter. Reads issued under the previous filter are discarded.
func (c *Controller) SetGender(gender string) {
	if strings.EqualFold(gender, string(model.GenderAll)) {
		gender = ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gender = gender
	c.Rooms.Invalidate()
	c.Unallocated.Invalidate()
}

// ────────────────────── Refresh ──────────────────────

// Refresh re-reads all projections concurrently. Responses superseded by a
// newer request or a local mutation are dropped.
func (c *Controller) Refresh(ctx context.Context) error {
	statsGen := c.Stats.Begin()
	// filter and generations are taken together so a concurrent SetGender
	// either precedes this read or invalidates it
	c.mu.Lock()
	gender := c.gender
	roomsGen := c.Rooms.Begin()
	unallocGen := c.Unallocated.Begin()
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := c.api.Stats(gctx)
		if err != nil {
			return err
		}
		c.commit("stats", c.Stats.Commit(statsGen, stats))
		return nil
	})

	g.Go(func() error {
		rooms, err := c.api.Rooms(gctx, gender)
		if err != nil {
			return err
		}
		c.commit("rooms", c.Rooms.Commit(roomsGen, rooms))
		return nil
	})

	g.Go(func() error {
		regs, err := c.api.Unallocated(gctx, gender)
		if err != nil {
			return err
		}
		c.commit("unallocated", c.Unallocated.Commit(unallocGen, regs))
		return nil
	})

	return g.Wait()
}

func (c *Controller) commit(what string, accepted bool) {
	if !accepted {
		c.logger.Debug("discarded stale response", zap.String("projection", what))
	}
}

// ────────────────────── Mutations ──────────────────────

// Allocate places a registrant into a room, showing the seat as taken before the server answers
func (c *Controller) Allocate(ctx context.Context, registrationID, roomID string) (*dto.AllocationResponse, error) {
	var moved *dto.RegistrationResponse
	c.Unallocated.Mutate(func(regs []dto.RegistrationResponse) []dto.RegistrationResponse {
		out := make([]dto.RegistrationResponse, 0, len(regs))
		for i := range regs {
			if regs[i].ID == registrationID {
				r := regs[i]
				moved = &r
				continue
			}
			out = append(out, regs[i])
		}
		return out
	})

	c.Rooms.Mutate(func(rooms []dto.RoomResponse) []dto.RoomResponse {
		return withOccupancy(rooms, roomID, func(room *dto.RoomResponse) {
			room.Occupancy++
			occ := dto.OccupantResponse{RegistrationID: registrationID}
			if moved != nil {
				occ.FullName = moved.FullName
			}
			room.Occupants = append(room.Occupants, occ)
		})
	})

	c.Stats.Mutate(func(s *dto.AccommodationStats) *dto.AccommodationStats {
		return adjustStats(s, 1)
	})

	resp, err := c.api.ManualAllocate(ctx, registrationID, roomID)
	if err != nil {
		c.resync(ctx, "allocate", err)
		return nil, err
	}

	// the server count also reflects other operators
	c.Rooms.Mutate(func(rooms []dto.RoomResponse) []dto.RoomResponse {
		return withOccupancy(rooms, roomID, func(room *dto.RoomResponse) {
			room.Occupancy = resp.Occupancy
			room.Capacity = resp.Capacity
		})
	})
	return resp, nil
}

// Remove releases a registrant's seat
func (c *Controller) Remove(ctx context.Context, registrationID string) error {
	var released *dto.RegistrationResponse
	c.Rooms.Mutate(func(rooms []dto.RoomResponse) []dto.RoomResponse {
		out := make([]dto.RoomResponse, len(rooms))
		copy(out, rooms)
		for i := range out {
			for j, occ := range out[i].Occupants {
				if occ.RegistrationID != registrationID {
					continue
				}
				room := out[i]
				room.Occupants = append(append([]dto.OccupantResponse{}, room.Occupants[:j]...), room.Occupants[j+1:]...)
				room.Occupancy--
				recompute(&room)
				out[i] = room
				released = &dto.RegistrationResponse{
					ID:         registrationID,
					FullName:   occ.FullName,
					Gender:     room.Gender,
					IsVerified: true,
				}
				return out
			}
		}
		return out
	})

	if released != nil && c.matchesFilter(released.Gender) {
		c.Unallocated.Mutate(func(regs []dto.RegistrationResponse) []dto.RegistrationResponse {
			return append(append([]dto.RegistrationResponse{}, regs...), *released)
		})
	}

	c.Stats.Mutate(func(s *dto.AccommodationStats) *dto.AccommodationStats {
		return adjustStats(s, -1)
	})

	if err := c.api.RemoveAllocation(ctx, registrationID); err != nil {
		c.resync(ctx, "remove", err)
		return err
	}
	return nil
}

// Verify marks a registrant present; a verified registrant without a room joins the unallocated list
func (c *Controller) Verify(ctx context.Context, registrationID string) (*dto.RegistrationResponse, error) {
	reg, err := c.api.Verify(ctx, registrationID)
	if err != nil {
		c.resync(ctx, "verify", err)
		return nil, err
	}

	if reg.Room == nil && c.matchesFilter(reg.Gender) {
		c.Unallocated.Mutate(func(regs []dto.RegistrationResponse) []dto.RegistrationResponse {
			out := make([]dto.RegistrationResponse, 0, len(regs)+1)
			for _, r := range regs {
				if r.ID != reg.ID {
					out = append(out, r)
				}
			}
			return append(out, *reg)
		})
	}

	c.Stats.Mutate(func(s *dto.AccommodationStats) *dto.AccommodationStats {
		if s == nil {
			return s
		}
		next := *s
		next.Verified++
		next.Unverified--
		if reg.Room == nil {
			next.Unallocated++
		}
		next.AllocationRate = percent(int(next.Allocated), int(next.Verified))
		return &next
	})
	return reg, nil
}

// AutoAllocate runs a server-side batch; the result touches too many rows to patch locally
func (c *Controller) AutoAllocate(ctx context.Context, gender string) (*dto.AutoAllocateResponse, error) {
	resp, err := c.api.AutoAllocate(ctx, gender)
	if err != nil {
		c.resync(ctx, "auto_allocate", err)
		return nil, err
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("refresh after auto allocation failed", zap.Error(err))
	}
	return resp, nil
}

// resync replaces rejected optimistic state with the server's view
func (c *Controller) resync(ctx context.Context, op string, cause error) {
	c.logger.Info("mutation rejected, refreshing", zap.String("op", op), zap.Error(cause))
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("refresh after rejected mutation failed", zap.String("op", op), zap.Error(err))
	}
}

func (c *Controller) matchesFilter(gender string) bool {
	f := c.Gender()
	return f == "" || strings.EqualFold(f, gender)
}

// ── helpers ──

func withOccupancy(rooms []dto.RoomResponse, roomID string, fn func(room *dto.RoomResponse)) []dto.RoomResponse {
	out := make([]dto.RoomResponse, len(rooms))
	copy(out, rooms)
	for i := range out {
		if out[i].ID != roomID {
			continue
		}
		room := out[i]
		room.Occupants = append([]dto.OccupantResponse{}, room.Occupants...)
		fn(&room)
		recompute(&room)
		out[i] = room
	}
	return out
}

func recompute(room *dto.RoomResponse) {
	room.Remaining = room.Capacity - room.Occupancy
	if room.Remaining < 0 {
		room.Remaining = 0
	}
	room.OccupancyRate = percent(room.Occupancy, room.Capacity)
}

// adjustStats moves delta registrants from unallocated to allocated
func adjustStats(s *dto.AccommodationStats, delta int) *dto.AccommodationStats {
	if s == nil {
		return s
	}
	next := *s
	next.Allocated += int64(delta)
	next.Unallocated -= int64(delta)
	next.OccupiedSpaces += delta
	next.AvailableSpaces -= delta
	next.OccupancyRate = percent(next.OccupiedSpaces, next.TotalCapacity)
	next.AllocationRate = percent(int(next.Allocated), int(next.Verified))
	return &next
}

func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}
