package domain

import "time"

// Shop is an installed merchant store. AccessToken is the platform token
// obtained at install time and used for every collaborator call on the
// shop's behalf.
type Shop struct {
	Domain      string    `json:"domain"`
	AccessToken string    `json:"-"`
	InstalledAt time.Time `json:"installedAt"`
}
