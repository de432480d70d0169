package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartPricingTotal counts cart pricing requests by outcome.
	CartPricingTotal *prometheus.CounterVec
	// UnresolvedProductTotal counts cart lines priced at zero because the product was missing.
	UnresolvedProductTotal prometheus.Counter
	// PromotionAppliedTotal counts applied discounts by promotion type and origin (auto/coupon).
	PromotionAppliedTotal *prometheus.CounterVec
	// CouponValidationTotal counts coupon validation outcomes.
	CouponValidationTotal *prometheus.CounterVec
	// QuotaExceededTotal counts usage-ledger increments rejected by the quota guard.
	QuotaExceededTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartPricingTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_pricing_total",
			Help:      "Count of cart pricing requests by outcome.",
		}, []string{"result"})
		UnresolvedProductTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_product_total",
			Help:      "Cart lines priced at zero because the product could not be resolved.",
		})
		PromotionAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_applied_total",
			Help:      "Count of applied discounts by promotion type and origin.",
		}, []string{"type", "origin"})
		CouponValidationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_validation_total",
			Help:      "Count of coupon validation outcomes.",
		}, []string{"result"})
		QuotaExceededTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_exceeded_total",
			Help:      "Usage-ledger increments rejected because a quota was exhausted.",
		}, []string{"kind"})

		mustRegisterCollector(reg, CartPricingTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartPricingTotal = v
			}
		})
		mustRegisterCollector(reg, UnresolvedProductTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				UnresolvedProductTotal = v
			}
		})
		mustRegisterCollector(reg, PromotionAppliedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PromotionAppliedTotal = v
			}
		})
		mustRegisterCollector(reg, CouponValidationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponValidationTotal = v
			}
		})
		mustRegisterCollector(reg, QuotaExceededTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotaExceededTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
