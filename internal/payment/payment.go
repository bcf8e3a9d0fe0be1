package payment

import (
	"errors"
	"fmt"

	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/shopspring/decimal"
)

var ErrInvalidMethod = errors.New("payment_method must be cash or card")

// Quote is what the payment dialog shows for a bill: the USD amount for the
// chosen method and its LKR equivalent at Rate.
type Quote struct {
	Method    string          `json:"method"`
	BaseUSD   decimal.Decimal `json:"base_usd"`
	Surcharge decimal.Decimal `json:"surcharge_usd"`
	TotalUSD  decimal.Decimal `json:"total_usd"`
	Rate      decimal.Decimal `json:"rate"`
	TotalLKR  decimal.Decimal `json:"total_lkr"`
}

// NewQuote prices a bill total for method. Card payments carry
// cardSurcharge (a fraction, e.g. 0.03) on top of the bill total.
func NewQuote(totalUSD decimal.Decimal, method string, rate, cardSurcharge decimal.Decimal) (Quote, error) {
	if !enum.IsPaymentMethod(method) {
		return Quote{}, fmt.Errorf("%q: %w", method, ErrInvalidMethod)
	}

	surcharge := decimal.Zero
	if method == enum.PaymentMethodCard {
		surcharge = totalUSD.Mul(cardSurcharge)
	}
	total := totalUSD.Add(surcharge)

	return Quote{
		Method:    method,
		BaseUSD:   totalUSD,
		Surcharge: surcharge,
		TotalUSD:  total,
		Rate:      rate,
		TotalLKR:  total.Mul(rate),
	}, nil
}

// Change is received minus the LKR total. It is negative when the cash
// handed over does not cover the bill.
func (q Quote) Change(receivedLKR decimal.Decimal) decimal.Decimal {
	return receivedLKR.Sub(q.TotalLKR)
}

// Balance is Change floored at zero, as displayed to the cashier.
func (q Quote) Balance(receivedLKR decimal.Decimal) decimal.Decimal {
	if c := q.Change(receivedLKR); c.IsPositive() {
		return c
	}
	return decimal.Zero
}

// Covers reports whether receivedLKR pays the full LKR total.
func (q Quote) Covers(receivedLKR decimal.Decimal) bool {
	return receivedLKR.GreaterThanOrEqual(q.TotalLKR)
}
