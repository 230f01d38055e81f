package db_models

import (
	"gorm.io/datatypes"
)

// Credential is one key of the credential key/value store.
type Credential struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt int64  `gorm:"autoUpdateTime"`
}

// Snapshot holds the last known copy of one slice of client state so the
// app can start before the network answers.
type Snapshot struct {
	Key       string         `gorm:"primaryKey;size:64"`
	Payload   datatypes.JSON `gorm:"not null"`
	UpdatedAt int64          `gorm:"autoUpdateTime"`
}
