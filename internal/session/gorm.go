package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sessionRecord is the table row for a Session. The timeline is stored as
// its JSON encoding.
type sessionRecord struct {
	VideoID      string  `gorm:"primaryKey;size:64"`
	ID           string  `gorm:"size:36;not null"`
	URL          string  `gorm:"size:2048"`
	TimeFormat   string  `gorm:"size:16"`
	Timeline     string  `gorm:"type:longtext"`
	LastPosition float64 `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time `gorm:"index"`
}

func (sessionRecord) TableName() string { return "tsync_sessions" }

func toRecord(s *Session) (sessionRecord, error) {
	tl, err := json.Marshal(s.Timeline)
	if err != nil {
		return sessionRecord{}, err
	}
	return sessionRecord{
		VideoID:      s.VideoID,
		ID:           s.ID,
		URL:          s.URL,
		TimeFormat:   s.TimeFormat,
		Timeline:     string(tl),
		LastPosition: s.LastPosition,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}, nil
}

func fromRecord(r sessionRecord) (*Session, error) {
	s := &Session{
		ID:           r.ID,
		VideoID:      r.VideoID,
		URL:          r.URL,
		TimeFormat:   r.TimeFormat,
		LastPosition: r.LastPosition,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Timeline), &s.Timeline); err != nil {
		return nil, fmt.Errorf("failed to parse timeline of %s: %w", r.VideoID, err)
	}
	return s, nil
}

// gormStore keeps sessions in a MySQL table.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore opens dsn and migrates the sessions table.
func NewGormStore(dsn string) (SessionStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate sessions table: %w", err)
	}
	return &gormStore{db: db}, nil
}

func (g *gormStore) Save(ctx context.Context, s *Session) error {
	if err := checkVideoID(s.VideoID); err != nil {
		return err
	}
	rec, err := toRecord(s)
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	// Save upserts on the primary key.
	if err := g.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (g *gormStore) Load(ctx context.Context, videoID string) (*Session, error) {
	if err := checkVideoID(videoID); err != nil {
		return nil, err
	}
	var rec sessionRecord
	err := g.db.WithContext(ctx).Where("video_id = ?", videoID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return fromRecord(rec)
}

func (g *gormStore) Delete(ctx context.Context, videoID string) error {
	if err := checkVideoID(videoID); err != nil {
		return err
	}
	if err := g.db.WithContext(ctx).Where("video_id = ?", videoID).Delete(&sessionRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (g *gormStore) List(ctx context.Context) ([]*Session, error) {
	var recs []sessionRecord
	if err := g.db.WithContext(ctx).Order("updated_at desc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	out := make([]*Session, 0, len(recs))
	for _, r := range recs {
		s, err := fromRecord(r)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (g *gormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
