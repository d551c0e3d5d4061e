package office

// ApprovalStatus is the review state that gates an office's visibility to bookers.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Field names an editable office attribute.
type Field string

const (
	FieldTitle           Field = "title"
	FieldDescription     Field = "description"
	FieldAddress         Field = "address_line1"
	FieldLatitude        Field = "lat"
	FieldLongitude       Field = "lng"
	FieldPricePerDay     Field = "price_per_day"
	FieldMonthlyDiscount Field = "monthly_discount"
	FieldHidden          Field = "hidden"
)

// reviewedFields are the attributes a reviewer signed off on; changing any of them requires a new review.
var reviewedFields = map[Field]bool{
	FieldLatitude:    true,
	FieldLongitude:   true,
	FieldPricePerDay: true,
}

// InitialStatus is the status of every newly created office.
func InitialStatus() ApprovalStatus {
	return StatusPending
}

// ApplyEdit returns the approval status after the given fields changed.
// Touching a reviewed field sends the office back to PENDING whatever its current status.
func ApplyEdit(current ApprovalStatus, changed []Field) ApprovalStatus {
	for _, f := range changed {
		if reviewedFields[f] {
			return StatusPending
		}
	}
	return current
}
