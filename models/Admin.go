package models

import "time"

type Admin struct {
	ID string `json:"id" bson:"_id" gorm:"primaryKey;size:36"`

	Name  string `json:"name" bson:"name" gorm:"size:255"`
	Email string `json:"email" bson:"email" gorm:"size:255;uniqueIndex"`

	PasswordHash string `json:"-" bson:"password" gorm:"size:255"`
	Role         Role   `json:"role" bson:"role" gorm:"size:32"`
	IsPrimary    bool   `json:"isPrimary" bson:"isPrimary"`
	IsActive     bool   `json:"isActive" bson:"isActive"`

	Permissions []string `json:"permissions" bson:"permissions" gorm:"serializer:json"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasPermission reports whether the admin may perform the action guarded by key.
// Superadmins hold every permission implicitly.
func (a *Admin) HasPermission(key string) bool {
	if a.Role == RoleSuperadmin {
		return true
	}
	for _, p := range a.Permissions {
		if p == key {
			return true
		}
	}
	return false
}
