package business

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status is the lifecycle state of a listing. Soft delete parks a listing at
// StatusInactive instead of removing the row.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

// BilingualText carries the English and Tagalog renditions of a display
// string. This is the canonical shape for names and descriptions; the data
// language is independent of the UI locale prefix.
type BilingualText struct {
	English string `json:"english"`
	Tagalog string `json:"tagalog"`
}

type Category struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary,omitempty"`
}

type Contact struct {
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Address struct {
	Street      string      `json:"street"`
	Barangay    string      `json:"barangay"`
	Coordinates Coordinates `json:"coordinates"`
}

// DayHours is the opening window for a single weekday. Open and Close are
// "HH:MM" strings and are ignored when Closed is set.
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

type OperatingHours struct {
	Monday    DayHours `json:"monday"`
	Tuesday   DayHours `json:"tuesday"`
	Wednesday DayHours `json:"wednesday"`
	Thursday  DayHours `json:"thursday"`
	Friday    DayHours `json:"friday"`
	Saturday  DayHours `json:"saturday"`
	Sunday    DayHours `json:"sunday"`
}

type Photo struct {
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	IsPrimary bool   `json:"isPrimary"`
}

// Metadata is replaced wholesale on every write. DateAdded is stamped once at
// creation and never changes; LastUpdated is rewritten to now on every update.
type Metadata struct {
	DateAdded   time.Time `json:"dateAdded"`
	LastUpdated time.Time `json:"lastUpdated"`
	IsVerified  bool      `json:"isVerified"`
	Status      Status    `json:"status"`
	Target      string    `json:"target,omitempty"`
	Limit       string    `json:"limit,omitempty"`
	Reviewer    string    `json:"reviewer,omitempty"`
}

// Business is one directory listing. Nested shapes are stored as JSONB so a
// write always replaces the whole object, matching the no-deep-merge update
// semantics the web client relies on.
type Business struct {
	bun.BaseModel `bun:"table:businesses,alias:b" json:"-"`

	ID             uuid.UUID      `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	BusinessID     *string        `bun:"business_id" json:"businessId,omitempty"`
	Name           BilingualText  `bun:"name,notnull,type:jsonb" json:"name"`
	Category       Category       `bun:"category,notnull,type:jsonb" json:"category"`
	Contact        Contact        `bun:"contact,notnull,type:jsonb" json:"contact"`
	Address        Address        `bun:"address,notnull,type:jsonb" json:"address"`
	Description    BilingualText  `bun:"description,notnull,type:jsonb" json:"description"`
	OperatingHours OperatingHours `bun:"operating_hours,notnull,type:jsonb" json:"operatingHours"`
	Photos         []Photo        `bun:"photos,type:jsonb,nullzero" json:"photos,omitempty"`
	Metadata       Metadata       `bun:"metadata,notnull,type:jsonb" json:"metadata"`
}

// Input is the caller-supplied portion of a listing. Timestamps are absent on
// purpose: the service stamps them.
type Input struct {
	BusinessID     *string        `json:"businessId,omitempty"`
	Name           BilingualText  `json:"name"`
	Category       Category       `json:"category"`
	Contact        Contact        `json:"contact"`
	Address        Address        `json:"address"`
	Description    BilingualText  `json:"description"`
	OperatingHours OperatingHours `json:"operatingHours"`
	Photos         []Photo        `json:"photos,omitempty"`
	Metadata       MetadataInput  `json:"metadata"`
}

// MetadataInput is the writable subset of Metadata.
type MetadataInput struct {
	IsVerified bool   `json:"isVerified"`
	Status     Status `json:"status"`
	Target     string `json:"target,omitempty"`
	Limit      string `json:"limit,omitempty"`
	Reviewer   string `json:"reviewer,omitempty"`
}

// Stats backs the admin dashboard.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Pending  int `json:"pending"`
	Verified int `json:"verified"`
}
