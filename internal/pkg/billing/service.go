package billing

import (
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// DefaultCurrency is used when an event carries no currency of its own.
const DefaultCurrency = "usd"

// Service implements the per-entity reconcilers. Each handler is a pure
// function of envelope plus current storage state; the service keeps no
// billing state in memory between invocations.
type Service struct {
	repo     Repository
	linker   *CustomerLinker
	log      log.AllLogger
	currency string
	now      func() time.Time
}

// NewService creates a reconciliation service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		linker:   &CustomerLinker{},
		log:      log.DefaultLogger(),
		currency: DefaultCurrency,
		now:      time.Now,
	}
}

// NewServiceFromDB creates a reconciliation service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// SetLogger replaces the service logger.
func (s *Service) SetLogger(l log.AllLogger) {
	if l != nil {
		s.log = l
	}
}

// SetDefaultCurrency overrides the fallback currency for payments whose
// event omits one.
func (s *Service) SetDefaultCurrency(currency string) {
	if currency != "" {
		s.currency = currency
	}
}
