package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a license key.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusBanned  Status = "banned"
)

// Statuses lists every valid Status in lifecycle order.
var Statuses = []Status{StatusPending, StatusActive, StatusBanned}

// ParseStatus converts s into a Status, rejecting values outside Statuses.
func ParseStatus(s string) (Status, error) {
	for _, status := range Statuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown license key status %q", s)
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

type LicenseKey struct {
	Seq            uint64     `json:"-" gorm:"primaryKey;autoIncrement"`
	ID             string     `json:"id" gorm:"uniqueIndex;not null"`
	ApplicationID  string     `json:"applicationId" gorm:"index;not null"`
	Key            string     `json:"key" gorm:"uniqueIndex;not null"`
	Status         Status     `json:"status" gorm:"index;not null"`
	DurationDays   int        `json:"durationDays" gorm:"not null"`
	ExpirationDate time.Time  `json:"expirationDate" gorm:"not null"`
	ActivatedAt    *time.Time `json:"activatedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`

	Application *Application `json:"-" gorm:"foreignKey:ApplicationID;references:ID;constraint:OnDelete:CASCADE"`
}
