package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MaxContacts is the number of points of contact an activity can carry.
const MaxContacts = 3

// ErrTooManyContacts is returned when adding a contact to a full list.
var ErrTooManyContacts = errors.New("an activity can have at most 3 points of contact")

// ContactList is the ordered list of points of contact of an activity.
type ContactList []string

// Add appends a contact.
func (c ContactList) Add(name string) (ContactList, error) {
	if len(c) >= MaxContacts {
		return c, ErrTooManyContacts
	}
	return append(c, strings.TrimSpace(name)), nil
}

// Set replaces the contact at index i.
func (c ContactList) Set(i int, name string) error {
	if i < 0 || i >= len(c) {
		return fmt.Errorf("contact index %d out of range", i)
	}
	c[i] = strings.TrimSpace(name)
	return nil
}

// Remove drops the contact at index i; later contacts move up.
func (c ContactList) Remove(i int) ContactList {
	if i < 0 || i >= len(c) {
		return c
	}
	out := make(ContactList, 0, len(c)-1)
	out = append(out, c[:i]...)
	return append(out, c[i+1:]...)
}

// Normalize trims names, drops blanks and truncates to MaxContacts.
func (c ContactList) Normalize() ContactList {
	out := ContactList(compact(c))
	if len(out) > MaxContacts {
		out = out[:MaxContacts]
	}
	return out
}

// Project is an activity created and owned by a manager.
type Project struct {
	ID             string
	Name           string
	LeaderName     string
	Description    string
	RequiredSkills []string
	Status         ProjectStatus
	Contacts       ContactList
	EndDate        Date
	OwnerEmpID     string
}

// projectWire is the backend representation, with sparse poc1..poc3 slots.
type projectWire struct {
	ID             string        `json:"id,omitempty"`
	Name           string        `json:"project_name"`
	LeaderName     string        `json:"leader_name"`
	Description    string        `json:"description"`
	RequiredSkills []string      `json:"required_skills"`
	Status         ProjectStatus `json:"status"`
	POC1           *string       `json:"poc1"`
	POC2           *string       `json:"poc2"`
	POC3           *string       `json:"poc3"`
	EndDate        Date          `json:"end_date"`
	OwnerEmpID     string        `json:"empid,omitempty"`
}

// MarshalJSON writes contacts into poc1..poc3, with null for empty slots.
func (p Project) MarshalJSON() ([]byte, error) {
	contacts := p.Contacts.Normalize()
	slot := func(i int) *string {
		if i < len(contacts) {
			v := contacts[i]
			return &v
		}
		return nil
	}
	skills := p.RequiredSkills
	if skills == nil {
		skills = []string{}
	}
	return json.Marshal(projectWire{
		ID:             p.ID,
		Name:           p.Name,
		LeaderName:     p.LeaderName,
		Description:    p.Description,
		RequiredSkills: skills,
		Status:         p.Status,
		POC1:           slot(0),
		POC2:           slot(1),
		POC3:           slot(2),
		EndDate:        p.EndDate,
		OwnerEmpID:     p.OwnerEmpID,
	})
}

// UnmarshalJSON reads poc1..poc3 into a compact contact list.
func (p *Project) UnmarshalJSON(data []byte) error {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("project record must be an object: %w", err)
	}
	status, _ := ParseProjectStatus(raw.str("status"))
	*p = Project{
		ID:             raw.str("id", "project_id"),
		Name:           raw.str("project_name", "projectName"),
		LeaderName:     raw.str("leader_name", "leaderName"),
		Description:    raw.str("description"),
		RequiredSkills: raw.list("required_skills", "requiredSkills"),
		Status:         status,
		Contacts:       ContactList{raw.str("poc1"), raw.str("poc2"), raw.str("poc3")}.Normalize(),
		EndDate:        raw.date("end_date", "endDate"),
		OwnerEmpID:     raw.str("empid", "owner_empid"),
	}
	return nil
}

// OwnedBy reports whether empid created the activity.
func (p *Project) OwnedBy(empid string) bool {
	return p.OwnerEmpID != "" && p.OwnerEmpID == strings.TrimSpace(empid)
}
