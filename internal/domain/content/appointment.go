package content

import "time"

type AppointmentStatus string

const (
	StatusPending  AppointmentStatus = "pending"
	StatusAccepted AppointmentStatus = "accepted"
	StatusRejected AppointmentStatus = "rejected"
)

type Appointment struct {
	ID string `json:"id" bson:"_id"`
	// OwnerID is the admin the booking is addressed to; empty for the shared inbox.
	OwnerID   string            `json:"ownerId,omitempty" bson:"owner_id,omitempty"`
	Name      string            `json:"name" bson:"name"`
	Email     string            `json:"email" bson:"email"`
	Phone     string            `json:"phone" bson:"phone"`
	Message   string            `json:"message" bson:"message"`
	Status    AppointmentStatus `json:"status" bson:"status"`
	CreatedAt time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time         `json:"updatedAt" bson:"updated_at"`
}

// VisibleTo reports whether an admin may see or act on the booking.
func (a Appointment) VisibleTo(ownerID string) bool {
	return a.OwnerID == "" || a.OwnerID == ownerID
}

type BookAppointmentRequest struct {
	OwnerID string `json:"ownerId" binding:"omitempty,uuid"`
	Name    string `json:"name" binding:"required,min=2,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"required,min=7,max=20"`
	Message string `json:"message" binding:"max=2000"`
}

// UpdateAppointmentRequest edits the booking details. Nil fields are left
// as they are; status has its own endpoint.
type UpdateAppointmentRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=2,max=100"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone" binding:"omitempty,min=7,max=20"`
	Message *string `json:"message" binding:"omitempty,max=2000"`
}

func (r UpdateAppointmentRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil && r.Phone == nil && r.Message == nil
}

// Apply copies the supplied fields onto a.
func (r UpdateAppointmentRequest) Apply(a *Appointment) {
	if r.Name != nil {
		a.Name = *r.Name
	}
	if r.Email != nil {
		a.Email = *r.Email
	}
	if r.Phone != nil {
		a.Phone = *r.Phone
	}
	if r.Message != nil {
		a.Message = *r.Message
	}
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=pending accepted rejected"`
}

type AppointmentFilter struct {
	// OwnerID limits results to bookings addressed to this admin or to nobody.
	OwnerID string
	Status  *AppointmentStatus
	Limit   int
}
