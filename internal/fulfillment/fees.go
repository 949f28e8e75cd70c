package fulfillment

import (
	"math"

	"github.com/chowkart/chowkart/internal/models"
)

// FeePolicy prices a delivery from its estimated distance. Within the
// included distance the fee is flat and the partner keeps the base share;
// beyond it every additional full kilometre adds the surcharge and the
// platform keeps a fixed margin.
type FeePolicy struct {
	BaseFee          float64
	BasePartnerShare float64
	PerKmSurcharge   float64
	IncludedKm       float64
	PlatformMargin   float64
}

func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		BaseFee:          25,
		BasePartnerShare: 20,
		PerKmSurcharge:   5,
		IncludedKm:       5,
		PlatformMargin:   5,
	}
}

// FeePolicyFromConfig takes the configured knobs as-is; the config layer
// owns the defaults, so a zero value here is a deliberate setting.
func FeePolicyFromConfig(cfg *models.Config) FeePolicy {
	return FeePolicy{
		BaseFee:          cfg.BaseDeliveryFee,
		BasePartnerShare: cfg.BasePartnerShare,
		PerKmSurcharge:   cfg.PerKmSurcharge,
		IncludedKm:       cfg.IncludedDistanceKm,
		PlatformMargin:   cfg.PlatformMargin,
	}
}

// Quote returns the delivery fee and the partner's share for the given
// distance. Distance 0 (unknown) gets the flat fee.
func (p FeePolicy) Quote(distanceKm float64) (fee, partnerShare float64) {
	if distanceKm <= p.IncludedKm {
		return p.BaseFee, p.BasePartnerShare
	}
	extraKm := math.Floor(distanceKm - p.IncludedKm)
	fee = p.BaseFee + extraKm*p.PerKmSurcharge
	return fee, fee - p.PlatformMargin
}
