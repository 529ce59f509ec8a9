package api

type BookingCreateRequest struct {
	TeacherID  int64    `json:"teacher_id"`
	StudentIDs []int64  `json:"student_ids"`
	TypeID     int64    `json:"type_id"`
	Date       string   `json:"date"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	Status     string   `json:"status,omitempty"`
	Location   *string  `json:"location,omitempty"`
	Fee        *float64 `json:"fee,omitempty"`
}

type BookingUpdateRequest struct {
	TeacherID *int64   `json:"teacher_id,omitempty"`
	StudentID *int64   `json:"student_id,omitempty"`
	TypeID    *int64   `json:"type_id,omitempty"`
	Date      *string  `json:"date,omitempty"`
	StartTime *string  `json:"start_time,omitempty"`
	EndTime   *string  `json:"end_time,omitempty"`
	Status    *string  `json:"status,omitempty"`
	Location  *string  `json:"location,omitempty"`
	Fee       *float64 `json:"fee,omitempty"`
}

type BookingResponse struct {
	ID             int64    `json:"id"`
	TeacherID      int64    `json:"teacher_id"`
	StudentID      int64    `json:"student_id"`
	TypeID         int64    `json:"type_id"`
	Date           string   `json:"date"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	Status         string   `json:"status"`
	LastAutoUpdate *string  `json:"last_auto_update,omitempty"`
	Location       *string  `json:"location,omitempty"`
	Fee            *float64 `json:"fee,omitempty"`
}

type BookingCreateResponse struct {
	Booking         BookingResponse `json:"booking"`
	SkippedStudents int             `json:"skipped_students"`
}

type ConflictInfo struct {
	Kind      string `json:"kind"`
	BookingID int64  `json:"booking_id"`
}

// Slot values are deliberately untyped: clients send booleans, 0/1
// numbers or truthy/falsy strings, and the service normalizes them.
type AvailabilityDayPayload struct {
	Date      string `json:"date"`
	Morning   any    `json:"morning"`
	Afternoon any    `json:"afternoon"`
	Evening   any    `json:"evening"`
}

type AvailabilitySetRequest struct {
	Days []AvailabilityDayPayload `json:"days"`
}

type AvailabilityDeleteRequest struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Slots []string `json:"slots,omitempty"`
}

type AvailabilityDayResponse struct {
	Date      string `json:"date"`
	Morning   bool   `json:"morning"`
	Afternoon bool   `json:"afternoon"`
	Evening   bool   `json:"evening"`
}

type StatusRunResponse struct {
	Success      bool   `json:"success"`
	UpdatedCount int    `json:"updated_count"`
	RunID        string `json:"run_id"`
	Error        string `json:"error,omitempty"`
}
