package billing

import (
	"errors"
	"time"

	"github.com/billfox-app/billfox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the storage operations used by the reconciliation
// engine. Lookups return (nil, nil) when no row matches; callers branch on
// presence instead of catching a not-found error. Mutating operations are
// atomic at single-entity granularity, and Transaction scopes a
// read-then-write sequence to one entity id.
type Repository interface {
	Transaction(fn func(Repository) error) error

	FindSubscriptionByExternalID(externalID string) (*models.Subscription, error)
	UpsertSubscription(sub *models.Subscription) error
	SaveSubscription(sub *models.Subscription) error

	FindPaymentByExternalID(externalID string) (*models.Payment, error)
	CreatePaymentIfNotExists(payment *models.Payment) (bool, error)
	UpdatePaymentStatus(payment *models.Payment, status string) error

	FindUserByID(id uint) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	FindUserByExternalCustomerID(customerID string) (*models.User, error)
	SetUserExternalCustomerID(user *models.User, customerID string) error

	CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkEventProcessed(id uint, outcome, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) FindSubscriptionByExternalID(externalID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("external_id = ?", externalID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	// user_id is excluded from the conflict assignments: a redelivery that
	// failed to resolve an owner must not unlink one set earlier.
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"external_customer_id",
			"external_price_id",
			"plan_name",
			"status",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"canceled_at",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("external_id = ?", sub.ExternalID).First(sub).Error
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) FindPaymentByExternalID(externalID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("external_id = ?", externalID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, tx.Error
	}

	created := tx.RowsAffected > 0
	if err := r.db.Where("external_id = ?", payment.ExternalID).First(payment).Error; err != nil {
		return false, err
	}
	return created, nil
}

func (r *gormRepository) UpdatePaymentStatus(payment *models.Payment, status string) error {
	if err := r.db.Model(&models.Payment{}).
		Where("external_id = ?", payment.ExternalID).
		Update("status", status).Error; err != nil {
		return err
	}
	payment.Status = status
	return nil
}

func (r *gormRepository) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) FindUserByExternalCustomerID(customerID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("external_customer_id = ?", customerID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) SetUserExternalCustomerID(user *models.User, customerID string) error {
	if user.HasExternalCustomerID() {
		return nil
	}

	// The WHERE guard keeps a concurrent linker from overwriting an id set
	// in between the read and this write.
	if err := r.db.Model(&models.User{}).
		Where("id = ? AND external_customer_id IS NULL", user.ID).
		Update("external_customer_id", customerID).Error; err != nil {
		return err
	}
	user.ExternalCustomerID = &customerID
	return nil
}

func (r *gormRepository) CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkEventProcessed(id uint, outcome, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"outcome":          outcome,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
