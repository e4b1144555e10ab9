package statuspage

import "time"

// StatusPage is a public page listing components and groups
type StatusPage struct {
	ID        string           `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Subdomain string           `json:"subdomain" db:"subdomain"`
	Items     []ServerSideItem `json:"statusPageItems"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`
}

// Ref points at a component or component group
type Ref struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// ServerSideItem is the persisted ordering shape exchanged with the API.
// Exactly one of StatusPageComponent and StatusPageComponentGroup is set.
type ServerSideItem struct {
	ID                       string           `json:"id" yaml:"id"`
	Rank                     int              `json:"rank" yaml:"rank"`
	StatusPageComponent      *Ref             `json:"statusPageComponent,omitempty" yaml:"statusPageComponent,omitempty"`
	StatusPageComponentGroup *Ref             `json:"statusPageComponentGroup,omitempty" yaml:"statusPageComponentGroup,omitempty"`
	StatusPageItems          []ServerSideItem `json:"statusPageItems,omitempty" yaml:"statusPageItems,omitempty"`
}

// ItemRecord is one stored row of a status page's layout
type ItemRecord struct {
	ID               string  `db:"id"`
	StatusPageID     string  `db:"status_page_id"`
	ParentItemID     *string `db:"parent_item_id"`
	Rank             int     `db:"rank"`
	ComponentID      *string `db:"component_id"`
	ComponentGroupID *string `db:"component_group_id"`
	Name             string  `db:"name"` // joined from the component or group
}

// ItemPosition is the ordering-relevant part of an ItemRecord
type ItemPosition struct {
	ID           string
	ParentItemID *string
	Rank         int
}
