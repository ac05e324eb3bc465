package models

import "time"

// Faculty is a teaching staff member that can be booked into a slot.
type Faculty struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Department string    `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FacultyFilter captures list filters for faculty members.
type FacultyFilter struct {
	Department string
	Search     string
	Page       int
	PageSize   int
}
