package models

// BaseModel provides the integer auto-increment primary key shared by
// every table in the schema.
type BaseModel struct {
	ID int `gorm:"primaryKey;autoIncrement" json:"id"`
}

// Identifiable is satisfied by every model and lets generic handlers
// read the primary key without reflection.
type Identifiable interface {
	GetID() int
}

// GetID returns the primary key
func (m BaseModel) GetID() int {
	return m.ID
}
