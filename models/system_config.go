package models

import "time"

type SystemConfig struct {
	ConfigKey   string    `json:"config_key" gorm:"primaryKey"`
	ConfigValue string    `json:"config_value"`
	Description string    `json:"description"`
	UpdatedBy   string    `json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AuditLog struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Before     string    `json:"before"`
	After      string    `json:"after"`
	CreatedAt  time.Time `json:"created_at"`
}

// All lists every table, used for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserBalance{},
		&BusinessTierConfig{},
		&DepositRequest{},
		&UserSharesHistory{},
		&StaffKpi{},
		&ProfitSharing{},
		&ProfitDistribution{},
		&Referral{},
		&Transaction{},
		&SystemConfig{},
		&AuditLog{},
		&Card{},
		&QrCheckin{},
	}
}
