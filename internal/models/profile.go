package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Profile struct {
	UserID     string `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	FullName   string `gorm:"column:full_name;type:text" json:"full_name"`
	TargetRole string `gorm:"column:target_role;type:text" json:"target_role"`
	Seniority  string `gorm:"column:seniority;type:text" json:"seniority"`

	Skills pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`

	// JSONB, structure left to the client
	Experience  datatypes.JSON `gorm:"column:experience;type:jsonb" json:"experience"`
	Preferences datatypes.JSON `gorm:"column:preferences;type:jsonb" json:"preferences"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// Snapshot flattens the profile into the opaque userProfileSnapshot block
// passed through to the analysis provider as part of the interview context.
func (p *Profile) Snapshot() map[string]any {
	if p == nil {
		return nil
	}
	snap := map[string]any{}
	if p.FullName != "" {
		snap["full_name"] = p.FullName
	}
	if p.TargetRole != "" {
		snap["target_role"] = p.TargetRole
	}
	if p.Seniority != "" {
		snap["seniority"] = p.Seniority
	}
	if len(p.Skills) > 0 {
		snap["skills"] = []string(p.Skills)
	}
	if len(snap) == 0 {
		return nil
	}
	return snap
}
