package model

import "time"

type OperationLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Actor     string    `json:"actor" gorm:"index"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	TargetID  string    `json:"targetId"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}
