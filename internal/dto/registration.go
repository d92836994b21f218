package dto

// ── registration & verification DTOs ──

// VerifyRequest manual or QR verification.
// For method=qr, QRPayload is required and RegistrationID, if set, must match it.
type VerifyRequest struct {
	RegistrationID string `json:"registration_id" binding:"omitempty"`
	Method         string `json:"method"          binding:"omitempty,oneof=manual qr"`
	QRPayload      string `json:"qr_payload"      binding:"omitempty,max=2048"`
}

// UnverifyRequest unverify with optional force
type UnverifyRequest struct {
	Force bool `json:"force"`
}

// RegistrationListRequest registration list filters
type RegistrationListRequest struct {
	Gender    string `form:"gender"    binding:"omitempty"`
	Verified  *bool  `form:"verified"`
	Allocated *bool  `form:"allocated"`
	Search    string `form:"search"    binding:"omitempty,max=100"`
	PaginationRequest
}

// UnallocatedListRequest unallocated list filter
type UnallocatedListRequest struct {
	Gender string `form:"gender" binding:"omitempty"`
}

// AuditLogListRequest audit history paging
type AuditLogListRequest struct {
	PaginationRequest
}

// ── responses ──

// RegistrationResponse registration with verification and allocation state
type RegistrationResponse struct {
	ID                 string          `json:"id"`
	FullName           string          `json:"full_name"`
	Gender             string          `json:"gender"`
	Email              string          `json:"email,omitempty"`
	Phone              string          `json:"phone,omitempty"`
	DateOfBirth        *string         `json:"date_of_birth,omitempty"`
	IsVerified         bool            `json:"is_verified"`
	VerifiedAt         *string         `json:"verified_at,omitempty"`
	VerifiedBy         *string         `json:"verified_by,omitempty"`
	VerificationMethod *string         `json:"verification_method,omitempty"`
	Room               *RoomAssignment `json:"room,omitempty"`
	CreatedAt          string          `json:"created_at"`
}

// RoomAssignment the room a registrant currently holds
type RoomAssignment struct {
	AllocationID string `json:"allocation_id"`
	RoomID       string `json:"room_id"`
	RoomName     string `json:"room_name"`
	Mode         string `json:"mode"`
	AllocatedAt  string `json:"allocated_at"`
}

// UnverifyEligibilityResponse result of the unverify pre-check
type UnverifyEligibilityResponse struct {
	Eligible          bool                 `json:"eligible"`
	HasRoomAllocation bool                 `json:"has_room_allocation"`
	RoomDetails       *RoomAllocationInfo  `json:"room_details,omitempty"`
	Registration      RegistrationResponse `json:"registration"`
}

// RoomAllocationInfo details shown to the operator before a forced unverify
type RoomAllocationInfo struct {
	RoomID      string `json:"room_id"`
	RoomName    string `json:"room_name"`
	Occupant    string `json:"occupant"`
	Occupancy   int    `json:"occupancy"`
	Capacity    int    `json:"capacity"`
	AllocatedAt string `json:"allocated_at"`
}

// AuditLogResponse one audit entry
type AuditLogResponse struct {
	ID         string  `json:"id"`
	Action     string  `json:"action"`
	RoomID     *string `json:"room_id,omitempty"`
	Detail     string  `json:"detail,omitempty"`
	OperatorID string  `json:"operator_id"`
	CreatedAt  string  `json:"created_at"`
}
