package domain

import (
	"time"
)

// BloodType is the product category of a pouch, beyond ABO/Rh.
type BloodType string

const (
	BloodTypePlasma     BloodType = "Plasma"
	BloodTypeWholeBlood BloodType = "Whole Blood"
	BloodTypePowerBlood BloodType = "Power Blood"
)

func (t BloodType) Valid() bool {
	switch t {
	case BloodTypePlasma, BloodTypeWholeBlood, BloodTypePowerBlood:
		return true
	}

	return false
}

// BloodGroup is the ABO/Rh classification.
type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

func (g BloodGroup) Valid() bool {
	switch g {
	case BloodGroupAPos, BloodGroupANeg, BloodGroupBPos, BloodGroupBNeg,
		BloodGroupABPos, BloodGroupABNeg, BloodGroupOPos, BloodGroupONeg:
		return true
	}

	return false
}

// TransferStatus is the closed status set of a transfer request.
// Comparisons are exact matches; there is no case-folding fallback.
type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "Pending"
	TransferStatusApprove  TransferStatus = "Approve"
	TransferStatusReject   TransferStatus = "Reject"
	TransferStatusCancel   TransferStatus = "Cancel"
	TransferStatusTransfer TransferStatus = "Transfer"
)

func (s TransferStatus) Valid() bool {
	switch s {
	case TransferStatusPending, TransferStatusApprove, TransferStatusReject,
		TransferStatusCancel, TransferStatusTransfer:
		return true
	}

	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s TransferStatus) Terminal() bool {
	switch s {
	case TransferStatusReject, TransferStatusCancel, TransferStatusTransfer:
		return true
	}

	return false
}

type OrganizerType string

const (
	OrganizerTypeCommunity OrganizerType = "Community Organization"
	OrganizerTypeBloodBank OrganizerType = "Blood Bank"
)

func (t OrganizerType) Valid() bool {
	return t == OrganizerTypeCommunity || t == OrganizerTypeBloodBank
}

// Organizer is a community group or blood bank that owns pouches and
// issues/receives transfer requests.
type Organizer struct {
	ID        string        `db:"id"`
	Name      string        `db:"name"`
	Type      OrganizerType `db:"type"`
	CreatedAt time.Time     `db:"created_at"`
}

// BloodPouch is a single donated unit. A pouch is available iff it is not
// used, not wasted, not expired and not bound to a non-rejected transfer.
type BloodPouch struct {
	ID            string     `db:"id"`
	PouchCode     string     `db:"pouch_code"`
	BloodType     BloodType  `db:"blood_type"`
	BloodGroup    BloodGroup `db:"blood_group"`
	DonorID       *string    `db:"donor_id"`
	OrganizerID   string     `db:"organizer_id"`
	DonatedAt     time.Time  `db:"donated_at"`
	ExpiresAt     time.Time  `db:"expires_at"`
	IsUsed        bool       `db:"is_used"`
	IsWasted      bool       `db:"is_wasted"`
	UsedAt        *time.Time `db:"used_at"`
	UsedBy        *string    `db:"used_by"`
	WastedAt      *time.Time `db:"wasted_at"`
	WastedMessage *string    `db:"wasted_message"`
}

// TransferRequest is a request by FromOrganizer to receive pouches owned by
// ToOrganizer. PouchIDs is non-empty only in Approve and Transfer states.
type TransferRequest struct {
	ID              string         `db:"id"`
	FromOrganizerID string         `db:"from_organizer_id"`
	ToOrganizerID   string         `db:"to_organizer_id"`
	BloodType       BloodType      `db:"blood_type"`
	BloodGroup      BloodGroup     `db:"blood_group"`
	NoOfUnits       int            `db:"no_of_units"`
	Purpose         string         `db:"purpose"`
	RequestType     string         `db:"request_type"`
	Status          TransferStatus `db:"status"`
	StatusMessage   *string        `db:"status_message"`
	CreatedAt       time.Time      `db:"created_at"`
	ApprovedAt      *time.Time     `db:"approved_at"`
	RejectedAt      *time.Time     `db:"rejected_at"`
	CancelledAt     *time.Time     `db:"cancelled_at"`
	TransferAt      *time.Time     `db:"transfer_at"`
	PouchIDs        []string
}

// OrganizerAvailability annotates an organizer with its eligible-unit count
// for one blood type/group combination.
type OrganizerAvailability struct {
	Organizer      Organizer
	AvailableUnits int
}
