package dto

// ── allocation DTOs ──

// AutoAllocateRequest gender is Male, Female or All
type AutoAllocateRequest struct {
	Gender string `json:"gender" binding:"required"`
}

// ManualAllocateRequest place one registrant into one room
type ManualAllocateRequest struct {
	RegistrationID string `json:"registration_id" binding:"required"`
	RoomID         string `json:"room_id"         binding:"required"`
}

// EmptyRoomsRequest gender is Male or Female
type EmptyRoomsRequest struct {
	Gender string `json:"gender" binding:"required"`
}

// ── responses ──

// AutoAllocateResponse batch result; a shortfall is reported, not raised
type AutoAllocateResponse struct {
	TotalAllocated       int                     `json:"total_allocated"`
	PerRoom              []RoomAllocationSummary `json:"per_room"`
	RemainingUnallocated map[string]int          `json:"remaining_unallocated"`
}

// RoomAllocationSummary seats filled in one room by a batch
type RoomAllocationSummary struct {
	RoomID    string `json:"room_id"`
	RoomName  string `json:"room_name"`
	Gender    string `json:"gender"`
	Allocated int    `json:"allocated"`
	Occupancy int    `json:"occupancy"`
	Capacity  int    `json:"capacity"`
}

// AllocationResponse a single allocation
type AllocationResponse struct {
	ID             string `json:"id"`
	RegistrationID string `json:"registration_id"`
	RoomID         string `json:"room_id"`
	RoomName       string `json:"room_name"`
	Mode           string `json:"mode"`
	AllocatedBy    string `json:"allocated_by"`
	Occupancy      int    `json:"occupancy"`
	Capacity       int    `json:"capacity"`
	CreatedAt      string `json:"created_at"`
}

// EmptyRoomsResponse bulk removal result
type EmptyRoomsResponse struct {
	RemovedAllocations int `json:"removed_allocations"`
}
