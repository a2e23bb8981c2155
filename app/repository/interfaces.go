package repository

import (
	"time"

	"github.com/ManuelReschke/PixelVault/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByEmailChangeToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// PlanRepository defines the interface for plan catalog operations
type PlanRepository interface {
	Create(plan *models.Plan) error
	GetByID(id uint) (*models.Plan, error)
	GetActive() ([]models.Plan, error)
	FindByProductID(productID string) (*models.Plan, error)
	Update(plan *models.Plan) error
	Count() (int64, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// SyncStatRepository defines the interface for mailing-list sync statistics
type SyncStatRepository interface {
	IncrementBy(date, outcome string, delta int64) error
	GetRange(startDate, endDate string) ([]models.SyncStat, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User     UserRepository
	Plan     PlanRepository
	Setting  SettingRepository
	SyncStat SyncStatRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Plan:     NewPlanRepository(db),
		Setting:  NewSettingRepository(db),
		SyncStat: NewSyncStatRepository(db),
	}
}
