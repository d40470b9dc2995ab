package models

import "time"

type Permission struct {
	ID string `json:"id" bson:"_id" gorm:"primaryKey;size:36"`

	Key   string `json:"key" bson:"key" gorm:"size:64;uniqueIndex"`
	Label string `json:"label" bson:"label" gorm:"size:255"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
