package service

import (
	"context"
	"errors"
	"time"

	"github.com/kiwari-pos/terminal/internal/bills"
	"github.com/kiwari-pos/terminal/internal/config"
	"github.com/kiwari-pos/terminal/internal/enum"
	"github.com/kiwari-pos/terminal/internal/payment"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var ErrInsufficientCash = errors.New("cash received is less than the amount due")

// RateSource supplies the USD→LKR rate.
// Satisfied by *rates.Converter; narrow interface for testability.
type RateSource interface {
	Refresh(ctx context.Context) decimal.Decimal
	Rate() decimal.Decimal
}

// BillLedger is the part of the bill book payments need.
// Satisfied by *bills.Book; narrow interface for testability.
type BillLedger interface {
	Get(number string) (bills.Bill, error)
	Settle(number, method string, total decimal.Decimal, at time.Time) (bills.Entry, error)
}

// PayRequest settles one open bill. ReceivedLKR is only looked at for cash
// and may be zero when the cashier did not enter an amount.
type PayRequest struct {
	Number      string
	Method      string
	ReceivedLKR decimal.Decimal
}

type Receipt struct {
	Entry       bills.Entry     `json:"entry"`
	Quote       payment.Quote   `json:"quote"`
	ReceivedLKR decimal.Decimal `json:"received_lkr"`
	ChangeLKR   decimal.Decimal `json:"change_lkr"`
}

// PaymentService quotes and settles table bills.
type PaymentService struct {
	ledger    BillLedger
	rates     RateSource
	surcharge decimal.Decimal
	delay     time.Duration
	sleep     func(time.Duration)
	now       func() time.Time
}

func NewPaymentService(ledger BillLedger, rates RateSource, cfg config.PaymentConfig) *PaymentService {
	return &PaymentService{
		ledger:    ledger,
		rates:     rates,
		surcharge: cfg.CardSurcharge,
		delay:     cfg.Delay,
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// Quote refreshes the exchange rate (best effort) and prices the bill for
// method.
func (s *PaymentService) Quote(ctx context.Context, number, method string) (payment.Quote, error) {
	bill, err := s.ledger.Get(number)
	if err != nil {
		return payment.Quote{}, err
	}
	rate := s.rates.Refresh(ctx)
	return payment.NewQuote(bill.Totals().Total, method, rate, s.surcharge)
}

// Pay settles a bill at the last known rate. After validation a fixed
// processing pause runs to completion; ctx does not cut it short. If the bill
// grew during the pause it is not settled and bills.ErrBillChanged is
// returned.
func (s *PaymentService) Pay(ctx context.Context, req PayRequest) (*Receipt, error) {
	bill, err := s.ledger.Get(req.Number)
	if err != nil {
		return nil, err
	}
	quote, err := payment.NewQuote(bill.Totals().Total, req.Method, s.rates.Rate(), s.surcharge)
	if err != nil {
		return nil, err
	}
	if req.ReceivedLKR.IsNegative() {
		return nil, ErrInsufficientCash
	}
	if req.Method == enum.PaymentMethodCash && !req.ReceivedLKR.IsZero() && !quote.Covers(req.ReceivedLKR) {
		return nil, ErrInsufficientCash
	}

	log := zerolog.Ctx(ctx)
	log.Debug().Str("order_number", req.Number).Str("method", req.Method).Msg("processing payment")
	s.sleep(s.delay)

	entry, err := s.ledger.Settle(req.Number, req.Method, quote.BaseUSD, s.now())
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		Entry:       entry,
		Quote:       quote,
		ReceivedLKR: req.ReceivedLKR,
		ChangeLKR:   decimal.Zero,
	}
	if req.Method == enum.PaymentMethodCash {
		receipt.ChangeLKR = quote.Balance(req.ReceivedLKR)
	}

	log.Info().
		Str("order_number", req.Number).
		Str("method", req.Method).
		Str("total_lkr", quote.TotalLKR.StringFixed(2)).
		Msg("bill settled")
	return receipt, nil
}
