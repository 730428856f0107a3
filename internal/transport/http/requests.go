package http

import "time"

type createOrganizerRequest struct {
	OrganizerName string `json:"organizer_name" validate:"required,min=2,max=100"`
	OrganizerType string `json:"organizer_type" validate:"required"`
}

type registerPouchRequest struct {
	PouchCode   string    `json:"pouch_code" validate:"required,custom_id,min=1,max=100"`
	BloodType   string    `json:"blood_type" validate:"required,blood_type"`
	BloodGroup  string    `json:"blood_group" validate:"required,blood_group"`
	DonorID     string    `json:"donor_id" validate:"omitempty,custom_id,max=100"`
	OrganizerID string    `json:"organizer_id" validate:"required,min=1,max=100"`
	DonatedAt   time.Time `json:"donated_at" validate:"required"`
	ExpiresAt   time.Time `json:"expires_at" validate:"required"`
}

type usePouchRequest struct {
	UsedBy string `json:"used_by" validate:"required,min=1,max=100"`
}

type wastePouchRequest struct {
	Message string `json:"message" validate:"required,min=1,max=255"`
}

type createTransferRequest struct {
	FromOrganizerID string `json:"from_organizer_id" validate:"required,min=1,max=100"`
	ToOrganizerID   string `json:"to_organizer_id" validate:"required,min=1,max=100"`
	BloodType       string `json:"blood_type" validate:"required,blood_type"`
	BloodGroup      string `json:"blood_group" validate:"required,blood_group"`
	NoOfUnits       int    `json:"no_of_units" validate:"required,min=1"`
	Purpose         string `json:"purpose" validate:"required,min=1,max=255"`
}

type approveTransferRequest struct {
	PouchIDs      []string `json:"pouch_ids" validate:"required,min=1,dive,min=1,max=100"`
	StatusMessage string   `json:"status_message" validate:"omitempty,max=255"`
}

type rejectTransferRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

type cancelTransferRequest struct {
	OrganizerID string `json:"organizer_id" validate:"required,min=1,max=100"`
	Reason      string `json:"reason" validate:"omitempty,max=255"`
}

type completeTransferRequest struct {
	TransferDate time.Time `json:"transfer_date" validate:"omitempty"`
	Notes        string    `json:"notes" validate:"omitempty,max=255"`
}
