package dto

// ── room DTOs ──

// CreateRoomRequest create a room
type CreateRoomRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=100"`
	Gender      string `json:"gender"      binding:"required"`
	Capacity    int    `json:"capacity"    binding:"required,min=1,max=1000"`
	IsActive    *bool  `json:"is_active"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdateRoomRequest partial room update; Version guards against lost updates
type UpdateRoomRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=100"`
	Gender      *string `json:"gender"`
	Capacity    *int    `json:"capacity"    binding:"omitempty,min=1,max=1000"`
	IsActive    *bool   `json:"is_active"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Version     int     `json:"version"     binding:"required,min=1"`
}

// RoomListRequest room list filters
type RoomListRequest struct {
	Gender          string `form:"gender"`
	IncludeInactive bool   `form:"include_inactive"`
}

// ── responses ──

// RoomResponse room with live occupancy
type RoomResponse struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Gender        string             `json:"gender"`
	Capacity      int                `json:"capacity"`
	Occupancy     int                `json:"occupancy"`
	Remaining     int                `json:"remaining"`
	OccupancyRate float64            `json:"occupancy_rate"`
	IsActive      bool               `json:"is_active"`
	Description   string             `json:"description,omitempty"`
	Occupants     []OccupantResponse `json:"occupants"`
	Version       int                `json:"version"`
	CreatedAt     string             `json:"created_at"`
	UpdatedAt     string             `json:"updated_at"`
}

// OccupantResponse one registrant in a room
type OccupantResponse struct {
	RegistrationID string `json:"registration_id"`
	FullName       string `json:"full_name"`
	Mode           string `json:"mode"`
	AllocatedAt    string `json:"allocated_at"`
}
