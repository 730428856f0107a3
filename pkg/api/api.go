// Package api holds the wire-level request/response types of the service.
// Services return these types so that handlers only encode.
package api

import "time"

type Organizer struct {
	OrganizerID   string    `json:"organizer_id"`
	OrganizerName string    `json:"organizer_name"`
	OrganizerType string    `json:"organizer_type"`
	CreatedAt     time.Time `json:"created_at"`
}

type BloodPouch struct {
	PouchID       string     `json:"pouch_id"`
	PouchCode     string     `json:"pouch_code"`
	BloodType     string     `json:"blood_type"`
	BloodGroup    string     `json:"blood_group"`
	DonorID       *string    `json:"donor_id,omitempty"`
	OrganizerID   string     `json:"organizer_id"`
	DonatedAt     time.Time  `json:"donated_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	IsUsed        bool       `json:"is_used"`
	IsWasted      bool       `json:"is_wasted"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	UsedBy        *string    `json:"used_by,omitempty"`
	WastedAt      *time.Time `json:"wasted_at,omitempty"`
	WastedMessage *string    `json:"wasted_message,omitempty"`
}

type TransferRequest struct {
	TransferID      string     `json:"transfer_id"`
	FromOrganizerID string     `json:"from_organizer_id"`
	ToOrganizerID   string     `json:"to_organizer_id"`
	BloodType       string     `json:"blood_type"`
	BloodGroup      string     `json:"blood_group"`
	NoOfUnits       int        `json:"no_of_units"`
	Purpose         string     `json:"purpose"`
	RequestType     string     `json:"request_type"`
	Status          string     `json:"status"`
	StatusMessage   *string    `json:"status_message,omitempty"`
	PouchIDs        []string   `json:"pouch_ids"`
	CreatedAt       time.Time  `json:"created_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	TransferAt      *time.Time `json:"transfer_at,omitempty"`
}

type OrganizerAvailability struct {
	Organizer      Organizer `json:"organizer"`
	AvailableUnits int       `json:"available_units"`
}

type RankResponse struct {
	BloodType  string                  `json:"blood_type"`
	BloodGroup string                  `json:"blood_group"`
	Organizers []OrganizerAvailability `json:"organizers"`
}

type EligiblePouchesResponse struct {
	OrganizerID    string       `json:"organizer_id"`
	BloodType      string       `json:"blood_type"`
	BloodGroup     string       `json:"blood_group"`
	AvailableUnits int          `json:"available_units"`
	Pouches        []BloodPouch `json:"pouches"`
}

type AvailabilityResponse struct {
	OrganizerID    string       `json:"organizer_id"`
	BloodType      string       `json:"blood_type"`
	BloodGroup     string       `json:"blood_group"`
	AvailableUnits int          `json:"available_units"`
	Clamp          *ClampResult `json:"clamp,omitempty"`
}

// ClampResult is the outcome of adjusting a requested unit count to the
// receiving organizer's stock. Adjusted is true exactly when Units differs
// from what the caller asked for.
type ClampResult struct {
	Units    int  `json:"units"`
	Adjusted bool `json:"adjusted"`
}

type TransferListResponse struct {
	OrganizerID string            `json:"organizer_id"`
	Direction   string            `json:"direction"`
	Transfers   []TransferRequest `json:"transfers"`
}

// ErrorResponseErrorCode is the closed set of machine-readable error codes.
type ErrorResponseErrorCode string

const (
	NOTFOUND          ErrorResponseErrorCode = "NOT_FOUND"
	INVALIDCRITERIA   ErrorResponseErrorCode = "INVALID_CRITERIA"
	OVERALLOCATION    ErrorResponseErrorCode = "OVER_ALLOCATION"
	POUCHNOTELIGIBLE  ErrorResponseErrorCode = "POUCH_NOT_ELIGIBLE"
	INVALIDTRANSITION ErrorResponseErrorCode = "INVALID_TRANSITION"
	NOTREQUESTER      ErrorResponseErrorCode = "NOT_REQUESTER"
	POUCHCONSUMED     ErrorResponseErrorCode = "POUCH_CONSUMED"
	ORGANIZEREXISTS   ErrorResponseErrorCode = "ORGANIZER_EXISTS"
	POUCHEXISTS       ErrorResponseErrorCode = "POUCH_EXISTS"
)

type ErrorResponse struct {
	Error struct {
		Code    ErrorResponseErrorCode `json:"code"`
		Message string                 `json:"message"`
	} `json:"error"`
}
