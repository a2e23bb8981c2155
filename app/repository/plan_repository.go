package repository

import (
	"strings"

	"github.com/ManuelReschke/PixelVault/app/models"
	"gorm.io/gorm"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create inserts a new catalog entry
func (r *planRepository) Create(plan *models.Plan) error {
	return r.db.Create(plan).Error
}

// GetByID retrieves a plan by its ID
func (r *planRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetActive retrieves the purchasable catalog in display order
func (r *planRepository) GetActive() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Where("is_active = ?", true).Order("sort_order ASC, id ASC").Find(&plans).Error
	return plans, err
}

// FindByProductID resolves a provider product identifier against all three
// per-provider ID columns. At most one catalog entry carries a given ID.
func (r *planRepository) FindByProductID(productID string) (*models.Plan, error) {
	id := strings.TrimSpace(productID)
	if id == "" || id == models.FreePlanProductID {
		return nil, gorm.ErrRecordNotFound
	}
	var plan models.Plan
	err := r.db.Where("stripe_id = ? OR ios_id = ? OR android_id = ?", id, id, id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Update updates an existing plan in the database
func (r *planRepository) Update(plan *models.Plan) error {
	return r.db.Save(plan).Error
}

// Count returns the total number of catalog entries
func (r *planRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Plan{}).Count(&count).Error
	return count, err
}
