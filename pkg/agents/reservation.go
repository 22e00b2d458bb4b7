package agents

import "fmt"

// ReservationContext is the market-state snapshot a reservation-price policy
// consumes. All fields are supplied per decision; policies themselves are
// stateless.
type ReservationContext struct {
	// ExpectedPayoff is E[P_{t+1} + D_{t+1}].
	ExpectedPayoff float64
	// Variance is the perceived conditional variance of the payoff.
	Variance float64
	// Holdings is the agent's current exposure.
	Holdings int64
	// GrossR is 1 + rf.
	GrossR float64
}

// PolicyParams carries the static parameters of a policy.
type PolicyParams struct {
	RiskAversion   float64
	MinVarianceEps float64
}

// ReservationPricePolicy computes the price at which an agent is indifferent
// between buying and selling one unit.
type ReservationPricePolicy interface {
	Price(ctx ReservationContext, params PolicyParams) float64
}

// CARAPolicy is the baseline mean-variance policy:
//
//	P^R = (E[payoff] - lambda * h * Var) / R
//
// A net-long agent discounts the asset, a net-short agent pays a premium.
type CARAPolicy struct{}

// Price implements ReservationPricePolicy.
func (CARAPolicy) Price(ctx ReservationContext, params PolicyParams) float64 {
	variance := ctx.Variance
	if params.MinVarianceEps > 0 && variance < params.MinVarianceEps {
		variance = params.MinVarianceEps
	}

	riskPenalty := params.RiskAversion * float64(ctx.Holdings) * variance
	return (ctx.ExpectedPayoff - riskPenalty) / ctx.GrossR
}

var policyRegistry = map[string]func() ReservationPricePolicy{
	"cara": func() ReservationPricePolicy { return CARAPolicy{} },
}

// NewReservationPricePolicy instantiates a registered policy by name. An
// unknown name is a fatal configuration error.
func NewReservationPricePolicy(name string) (ReservationPricePolicy, error) {
	factory, ok := policyRegistry[name]
	if !ok {
		names := make([]string, 0, len(policyRegistry))
		for n := range policyRegistry {
			names = append(names, n)
		}
		return nil, fmt.Errorf("unknown reservation price policy %q (available: %v)", name, names)
	}
	return factory(), nil
}
