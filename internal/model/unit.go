package model

// UnitStatus is the sales status of a unit.
type UnitStatus string

const (
	StatusAvailable UnitStatus = "Available"
	StatusSold      UnitStatus = "Sold"
	StatusReserved  UnitStatus = "Reserved"
	StatusLocked    UnitStatus = "Locked"
)

// IsValid reports whether s is one of the known unit statuses.
func (s UnitStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusSold, StatusReserved, StatusLocked:
		return true
	}
	return false
}

// Unit represents a sellable apartment. The ID is the stable key
// "tower-floor-home" assigned at inventory load; only Status changes
// after that.
type Unit struct {
	ID          string     `json:"id"`
	Tower       string     `json:"tower"`
	Floor       int        `json:"floor"`
	Number      string     `json:"number"`
	Type        string     `json:"type"` // e.g. "3BHK", "4BHK"
	Sqft        int        `json:"sqft"`
	Price       string     `json:"price"`
	Status      UnitStatus `json:"status"`
	Description string     `json:"description,omitempty"`
}
