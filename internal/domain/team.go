package domain

import "time"

type Guard struct {
	ID           int64  `json:"id"`
	FullName     string `json:"fullName"`
	EmployeeCode string `json:"employeeCode"`
	Email        string `json:"email"`
	IsActive     bool   `json:"isActive"`
}

type TeamMember struct {
	TeamID   int64    `json:"teamID"`
	GuardID  int64    `json:"guardID"`
	Role     TeamRole `json:"role"`
	IsActive bool     `json:"isActive"`

	// guard projection
	FullName     string `json:"fullName"`
	EmployeeCode string `json:"employeeCode"`
	Email        string `json:"email"`
}

type Team struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	IsActive  bool         `json:"isActive"`
	Members   []TeamMember `json:"members"` // active members only
	CreatedAt time.Time    `json:"createdAt"`
}

func (t *Team) GuardIDs() []int64 {
	ids := make([]int64, 0, len(t.Members))
	for _, m := range t.Members {
		ids = append(ids, m.GuardID)
	}
	return ids
}

func (t *Team) Member(guardID int64) (TeamMember, bool) {
	for _, m := range t.Members {
		if m.GuardID == guardID {
			return m, true
		}
	}
	return TeamMember{}, false
}

type TeamAssignment struct {
	ID             int64            `json:"id"`
	ShiftID        int64            `json:"shiftID"`
	GuardID        int64            `json:"guardID"`
	TeamID         *int64           `json:"teamID"`
	ContractID     *int64           `json:"contractID"`
	AssignmentType AssignmentType   `json:"assignmentType"`
	Status         AssignmentStatus `json:"status"`
	AssignedBy     *int64           `json:"assignedBy"`
	Notes          string           `json:"notes"`

	NotificationSent bool `json:"notificationSent"`
	AttendanceSynced bool `json:"attendanceSynced"`

	CancelledAt        *time.Time `json:"cancelledAt"`
	CancellationReason string     `json:"cancellationReason"`

	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`

	// carried into outbound events, not persisted on the row
	GuardName  string `json:"guardName,omitempty"`
	GuardEmail string `json:"-"`
}

// GuardAssignment is the read model joining an active assignment with its shift and guard.
type GuardAssignment struct {
	AssignmentID int64
	ShiftID      int64
	ContractID   *int64
	GuardID      int64
	GuardName    string
	EmployeeCode string
	ShiftDate    time.Time
	StartTime    time.Time
	EndTime      time.Time
	LocationID   int64
	LocationName string
}

type HolidayInfo struct {
	Date         time.Time `json:"date"`
	Name         string    `json:"name"`
	IsTetHoliday bool      `json:"isTetHoliday"`
}

// GuardAssignmentFilter selects active assignments of guards on shifts dated within [From, To].
type GuardAssignmentFilter struct {
	GuardIDs []int64
	From     time.Time
	To       time.Time
	// OtherContractsOnly keeps shifts that belong to a contract other than ExcludeContractID.
	// With a nil ExcludeContractID it keeps every shift that has a contract.
	OtherContractsOnly bool
	ExcludeContractID  *int64
}

type Location struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}
