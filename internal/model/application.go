package model

import "time"

// Application is a registered product on whose behalf license keys are issued.
type Application struct {
	Seq       uint64    `json:"-" gorm:"primaryKey;autoIncrement"`
	ID        string    `json:"id" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}
