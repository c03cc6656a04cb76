package models

import "time"

// StorageEntry is one durable key/value row. The wizard keeps exactly two:
// the encrypted API key and the serialized generation state.
type StorageEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}
