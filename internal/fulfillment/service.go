// Package fulfillment is the order fulfillment core: the order status
// state machine, the delivery-partner assignment protocol, partner
// verification and the stats rollups. Persistence and transport stay
// behind the repository interfaces and the HTTP layer; everything here is
// synchronous and returns domain errors the caller can match on.
package fulfillment

import (
	"time"

	"github.com/chowkart/chowkart/internal/models"
	"github.com/chowkart/chowkart/internal/repositories"
	"github.com/sirupsen/logrus"
)

type Service struct {
	orders   repositories.OrderRepository
	partners repositories.DeliveryPartnerRepository
	vendors  repositories.VendorRepository
	emitter  OutputDestination
	fees     FeePolicy
	cfg      *models.Config
	log      *logrus.Logger
	now      func() time.Time
}

func NewService(
	orders repositories.OrderRepository,
	partners repositories.DeliveryPartnerRepository,
	vendors repositories.VendorRepository,
	emitter OutputDestination,
	cfg *models.Config,
	log *logrus.Logger,
) *Service {
	if emitter == nil {
		emitter = discardOutput{}
	}
	fees := DefaultFeePolicy()
	if cfg == nil {
		cfg = &models.Config{}
	} else {
		fees = FeePolicyFromConfig(cfg)
	}
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		orders:   orders,
		partners: partners,
		vendors:  vendors,
		emitter:  emitter,
		fees:     fees,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the service clock; tests use it for deterministic
// timestamps and window math.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.now = clock
	return s
}

func (s *Service) Close() error {
	return s.emitter.Close()
}
