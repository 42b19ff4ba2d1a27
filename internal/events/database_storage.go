package events

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// StoredEvent is the sqlite row shape for one event.
type StoredEvent struct {
	ID        uint      `gorm:"primaryKey"`
	EventID   string    `gorm:"size:64;uniqueIndex"`
	Type      string    `gorm:"size:64;index"`
	Source    string    `gorm:"size:64"`
	ServerID  string    `gorm:"size:64;index"`
	Timestamp time.Time `gorm:"index"`
	Data      string    // JSON-encoded payload
}

func (StoredEvent) TableName() string {
	return "events"
}

// DatabaseStorage persists events to a local sqlite database.
type DatabaseStorage struct {
	db *gorm.DB
}

// OpenDatabaseStorage opens (and migrates) the sqlite event history.
func OpenDatabaseStorage(path string) (*DatabaseStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open events database: %w", err)
	}
	if err := db.AutoMigrate(&StoredEvent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate events database: %w", err)
	}
	return &DatabaseStorage{db: db}, nil
}

// Store persists one event.
func (s *DatabaseStorage) Store(event Event) error {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	row := StoredEvent{
		EventID:   event.ID,
		Type:      string(event.Type),
		Source:    event.Source,
		ServerID:  event.ServerID,
		Timestamp: event.Timestamp,
		Data:      string(payload),
	}
	return s.db.Create(&row).Error
}

// Query returns stored events, newest first.
func (s *DatabaseStorage) Query(filters Filters) ([]Event, error) {
	query := s.db.Model(&StoredEvent{}).Order("timestamp DESC")

	if filters.ServerID != "" {
		query = query.Where("server_id = ?", filters.ServerID)
	}
	if len(filters.Types) > 0 {
		types := make([]string, len(filters.Types))
		for i, t := range filters.Types {
			types[i] = string(t)
		}
		query = query.Where("type IN ?", types)
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}
	query = query.Limit(limit)

	var rows []StoredEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	out := make([]Event, 0, len(rows))
	for _, row := range rows {
		data := map[string]interface{}{}
		_ = json.Unmarshal([]byte(row.Data), &data)
		out = append(out, Event{
			ID:        row.EventID,
			Type:      EventType(row.Type),
			Timestamp: row.Timestamp,
			Source:    row.Source,
			ServerID:  row.ServerID,
			Data:      data,
		})
	}
	return out, nil
}
