package model

import (
	"errors"
	"strings"
)

// ErrUnknownField is returned when a field name is not part of the circuit catalogue.
var ErrUnknownField = errors.New("unknown circuit field")

// Circuit is one circuit inventory entry. Every field is free-form text.
type Circuit struct {
	ID            string `json:"id"`
	State         string `json:"state"`
	SiteName      string `json:"site_name"`
	CktID         string `json:"ckt_id"`
	Parent        string `json:"parent"`
	LinkType      string `json:"link_type"`
	Provider      string `json:"provider"`
	ZLoc          string `json:"z_loc"`
	RtrNameZLoc   string `json:"rtr_name_z_loc"`
	ToDescription string `json:"to_description"`
	RtrPortZLoc   string `json:"rtr_port_z_loc"`
	InterfIPZLoc  string `json:"interf_ip_z_loc"`
	ALoc          string `json:"a_loc"`
	RtrNameALoc   string `json:"rtr_name_a_loc"`
	RtrPort       string `json:"rtr_port"`
	InterfIPALoc  string `json:"interf_ip_a_loc"`
	BwMbps        string `json:"bw_mbps"`
	SingleISP     string `json:"single_isp"`
	UPSCloset     string `json:"ups_closet"`
	RouterIP      string `json:"router_ip"`
}

// Field names, matching the JSON and CSV column names.
const (
	FieldID            = "id"
	FieldState         = "state"
	FieldSiteName      = "site_name"
	FieldCktID         = "ckt_id"
	FieldParent        = "parent"
	FieldLinkType      = "link_type"
	FieldProvider      = "provider"
	FieldZLoc          = "z_loc"
	FieldRtrNameZLoc   = "rtr_name_z_loc"
	FieldToDescription = "to_description"
	FieldRtrPortZLoc   = "rtr_port_z_loc"
	FieldInterfIPZLoc  = "interf_ip_z_loc"
	FieldALoc          = "a_loc"
	FieldRtrNameALoc   = "rtr_name_a_loc"
	FieldRtrPort       = "rtr_port"
	FieldInterfIPALoc  = "interf_ip_a_loc"
	FieldBwMbps        = "bw_mbps"
	FieldSingleISP     = "single_isp"
	FieldUPSCloset     = "ups_closet"
	FieldRouterIP      = "router_ip"
)

// Fields lists the descriptive (non-id) fields in display order.
var Fields = []string{
	FieldState,
	FieldSiteName,
	FieldCktID,
	FieldParent,
	FieldLinkType,
	FieldProvider,
	FieldZLoc,
	FieldRtrNameZLoc,
	FieldToDescription,
	FieldRtrPortZLoc,
	FieldInterfIPZLoc,
	FieldALoc,
	FieldRtrNameALoc,
	FieldRtrPort,
	FieldInterfIPALoc,
	FieldBwMbps,
	FieldSingleISP,
	FieldUPSCloset,
	FieldRouterIP,
}

// AllFields is id followed by Fields; it is the CSV column order.
var AllFields = append([]string{FieldID}, Fields...)

func (c *Circuit) ref(field string) *string {
	switch field {
	case FieldID:
		return &c.ID
	case FieldState:
		return &c.State
	case FieldSiteName:
		return &c.SiteName
	case FieldCktID:
		return &c.CktID
	case FieldParent:
		return &c.Parent
	case FieldLinkType:
		return &c.LinkType
	case FieldProvider:
		return &c.Provider
	case FieldZLoc:
		return &c.ZLoc
	case FieldRtrNameZLoc:
		return &c.RtrNameZLoc
	case FieldToDescription:
		return &c.ToDescription
	case FieldRtrPortZLoc:
		return &c.RtrPortZLoc
	case FieldInterfIPZLoc:
		return &c.InterfIPZLoc
	case FieldALoc:
		return &c.ALoc
	case FieldRtrNameALoc:
		return &c.RtrNameALoc
	case FieldRtrPort:
		return &c.RtrPort
	case FieldInterfIPALoc:
		return &c.InterfIPALoc
	case FieldBwMbps:
		return &c.BwMbps
	case FieldSingleISP:
		return &c.SingleISP
	case FieldUPSCloset:
		return &c.UPSCloset
	case FieldRouterIP:
		return &c.RouterIP
	}
	return nil
}

// Get returns the value of the named field.
func (c Circuit) Get(field string) (string, bool) {
	p := c.ref(field)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Set assigns value to the named field.
func (c *Circuit) Set(field, value string) error {
	p := c.ref(field)
	if p == nil {
		return ErrUnknownField
	}
	*p = value
	return nil
}

// FieldPointers returns pointers to the named fields, e.g. for scanning a
// database row. Unknown names get a throwaway target.
func (c *Circuit) FieldPointers(fields []string) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		if p := c.ref(f); p != nil {
			out[i] = p
		} else {
			out[i] = new(string)
		}
	}
	return out
}

// IsField reports whether name is a known circuit field, id included.
func IsField(name string) bool {
	var c Circuit
	return c.ref(name) != nil
}

// Header turns a field name into a column title, e.g. "site_name" -> "Site Name".
func Header(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// CircuitDTO is the create payload. Missing fields become empty strings.
type CircuitDTO struct {
	State         *string `json:"state,omitempty"`
	SiteName      *string `json:"site_name,omitempty"`
	CktID         *string `json:"ckt_id,omitempty"`
	Parent        *string `json:"parent,omitempty"`
	LinkType      *string `json:"link_type,omitempty"`
	Provider      *string `json:"provider,omitempty"`
	ZLoc          *string `json:"z_loc,omitempty"`
	RtrNameZLoc   *string `json:"rtr_name_z_loc,omitempty"`
	ToDescription *string `json:"to_description,omitempty"`
	RtrPortZLoc   *string `json:"rtr_port_z_loc,omitempty"`
	InterfIPZLoc  *string `json:"interf_ip_z_loc,omitempty"`
	ALoc          *string `json:"a_loc,omitempty"`
	RtrNameALoc   *string `json:"rtr_name_a_loc,omitempty"`
	RtrPort       *string `json:"rtr_port,omitempty"`
	InterfIPALoc  *string `json:"interf_ip_a_loc,omitempty"`
	BwMbps        *string `json:"bw_mbps,omitempty"`
	SingleISP     *string `json:"single_isp,omitempty"`
	UPSCloset     *string `json:"ups_closet,omitempty"`
	RouterIP      *string `json:"router_ip,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Circuit builds a record with the given id from the DTO.
func (d CircuitDTO) Circuit(id string) Circuit {
	return Circuit{
		ID:            id,
		State:         deref(d.State),
		SiteName:      deref(d.SiteName),
		CktID:         deref(d.CktID),
		Parent:        deref(d.Parent),
		LinkType:      deref(d.LinkType),
		Provider:      deref(d.Provider),
		ZLoc:          deref(d.ZLoc),
		RtrNameZLoc:   deref(d.RtrNameZLoc),
		ToDescription: deref(d.ToDescription),
		RtrPortZLoc:   deref(d.RtrPortZLoc),
		InterfIPZLoc:  deref(d.InterfIPZLoc),
		ALoc:          deref(d.ALoc),
		RtrNameALoc:   deref(d.RtrNameALoc),
		RtrPort:       deref(d.RtrPort),
		InterfIPALoc:  deref(d.InterfIPALoc),
		BwMbps:        deref(d.BwMbps),
		SingleISP:     deref(d.SingleISP),
		UPSCloset:     deref(d.UPSCloset),
		RouterIP:      deref(d.RouterIP),
	}
}

// DTOFromCircuit copies every descriptive field of c into a create payload.
func DTOFromCircuit(c Circuit) CircuitDTO {
	s := func(v string) *string { return &v }
	return CircuitDTO{
		State:         s(c.State),
		SiteName:      s(c.SiteName),
		CktID:         s(c.CktID),
		Parent:        s(c.Parent),
		LinkType:      s(c.LinkType),
		Provider:      s(c.Provider),
		ZLoc:          s(c.ZLoc),
		RtrNameZLoc:   s(c.RtrNameZLoc),
		ToDescription: s(c.ToDescription),
		RtrPortZLoc:   s(c.RtrPortZLoc),
		InterfIPZLoc:  s(c.InterfIPZLoc),
		ALoc:          s(c.ALoc),
		RtrNameALoc:   s(c.RtrNameALoc),
		RtrPort:       s(c.RtrPort),
		InterfIPALoc:  s(c.InterfIPALoc),
		BwMbps:        s(c.BwMbps),
		SingleISP:     s(c.SingleISP),
		UPSCloset:     s(c.UPSCloset),
		RouterIP:      s(c.RouterIP),
	}
}
