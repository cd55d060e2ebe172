package service

import "fmt"

const (
	reasonNothingOutstanding = "no responses outstanding"
	reasonUnavailable        = "close eligibility could not be evaluated"
)

// Eligibility is the verdict on whether a SENT quotation may be closed without a purchase.
type Eligibility struct {
	CanClose bool   `json:"can_close"`
	Reason   string `json:"reason"`
}

// EvaluateCloseEligibility decides purely from the aggregate: closing is allowed
// only when no response is still pending, which includes receiving none at all.
func EvaluateCloseEligibility(agg ResponseAggregate) Eligibility {
	if agg.Pending > 0 {
		return Eligibility{
			CanClose: false,
			Reason:   fmt.Sprintf("%d pending responses remain", agg.Pending),
		}
	}
	return Eligibility{CanClose: true, Reason: reasonNothingOutstanding}
}

// EvaluateOrDeny fails closed: any error computing the aggregate denies the close.
func EvaluateOrDeny(agg ResponseAggregate, err error) Eligibility {
	if err != nil {
		return Eligibility{CanClose: false, Reason: reasonUnavailable}
	}
	return EvaluateCloseEligibility(agg)
}
