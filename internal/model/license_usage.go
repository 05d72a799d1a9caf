package model

import "time"

const (
	UsageActionActivate = "activate"
	UsageActionValidate = "validate"
)

// LicenseUsage records one public activate or validate call.
type LicenseUsage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Key       string    `json:"key" gorm:"index"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	Timestamp time.Time `json:"timestamp"`
}
