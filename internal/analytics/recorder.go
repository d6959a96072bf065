package analytics

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/loopline-app/backend/internal/models"
)

// Recorder appends analytics events to PostgreSQL. When no Postgres connection
// is configured the recorder is a no-op, the rest of the app does not care.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRecorder(db *gorm.DB, logger *zap.Logger) (*Recorder, error) {
	r := &Recorder{db: db, logger: logger}
	if db != nil {
		if err := db.AutoMigrate(&models.AnalyticsEvent{}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Record writes an event row asynchronously. The caller's request finishes
// regardless of whether the insert succeeds.
func (r *Recorder) Record(userID, event, entity, entityID string, metadata map[string]any) {
	if r == nil || r.db == nil {
		return
	}
	row := models.AnalyticsEvent{
		UserID:   userID,
		Event:    event,
		Entity:   entity,
		EntityID: entityID,
	}
	if len(metadata) > 0 {
		if data, err := json.Marshal(metadata); err == nil {
			row.Metadata = string(data)
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			r.logger.Warn("analytics event dropped",
				zap.String("event", event),
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}()
}
