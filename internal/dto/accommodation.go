package dto

// ── accommodation statistics ──

// AccommodationStats derived occupancy figures; recomputed on every request
type AccommodationStats struct {
	TotalRegistrations  int64                  `json:"total_registrations"`
	Verified            int64                  `json:"verified"`
	Unverified          int64                  `json:"unverified"`
	Allocated           int64                  `json:"allocated"`
	Unallocated         int64                  `json:"unallocated"`
	TotalRooms          int                    `json:"total_rooms"`
	ActiveRooms         int                    `json:"active_rooms"`
	TotalCapacity       int                    `json:"total_capacity"`
	OccupiedSpaces      int                    `json:"occupied_spaces"`
	AvailableSpaces     int                    `json:"available_spaces"`
	OccupancyRate       float64                `json:"occupancy_rate"`
	AllocationRate      float64                `json:"allocation_rate"`
	RoomsByGender       map[string]GenderRooms `json:"rooms_by_gender"`
	UnallocatedByGender map[string]int64       `json:"unallocated_by_gender"`
}

// GenderRooms room figures for one partition
type GenderRooms struct {
	Rooms       int `json:"rooms"`
	ActiveRooms int `json:"active_rooms"`
	Capacity    int `json:"capacity"`
	Occupied    int `json:"occupied"`
	Available   int `json:"available"`
}

// ExportRosterRequest roster export filter
type ExportRosterRequest struct {
	Gender string `form:"gender"`
}
