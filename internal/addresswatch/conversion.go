package addresswatch

import (
	"context"

	"github.com/shopspring/decimal"
)

// UnavailablePlaceholder is rendered instead of a fiat value when the
// conversion could not be obtained.
const UnavailablePlaceholder = "N/A"

// PriceConverter converts an amount of a crypto asset into US dollars.
type PriceConverter interface {
	// ConvertToUSD returns the USD value of amount units of symbol.
	// Any failure (API-reported or transport) is returned as an error.
	ConvertToUSD(ctx context.Context, symbol string, amount decimal.Decimal) (decimal.Decimal, error)
}

// ConversionResult is either a USD value or an explicit "unavailable" marker.
// The zero value is unavailable, never a zero-dollar quote.
type ConversionResult struct {
	USD       decimal.Decimal
	Available bool
}

// String renders the USD value, or UnavailablePlaceholder.
func (r ConversionResult) String() string {
	if !r.Available {
		return UnavailablePlaceholder
	}
	return r.USD.String()
}

// convert asks the PriceConverter for the USD value of the activity's balance
// change. Failures are logged and degrade to an unavailable result.
func (s *service) convert(ctx context.Context, activity AddressActivity) ConversionResult {
	amount, err := decimal.NewFromString(activity.BalanceChangeText())
	if err != nil {
		s.logger.Warnw("balance change is not a number, skipping conversion",
			"tx.id", activity.TxID,
			"tx.balance_change", activity.BalanceChangeText(),
			"error", err,
		)
		s.metrics.recordConversion(ctx, false)
		return ConversionResult{}
	}

	amount = amount.Abs()
	s.logger.Infow("converting balance change to fiat",
		"tx.id", activity.TxID,
		"amount", amount.String(),
		"symbol", s.cfg.Symbol,
		"currency", "USD",
	)

	usd, err := s.converter.ConvertToUSD(ctx, s.cfg.Symbol, amount)
	if err != nil {
		s.logger.Errorw("fiat conversion failed",
			"tx.id", activity.TxID,
			"symbol", s.cfg.Symbol,
			"error", err,
		)
		s.metrics.recordConversion(ctx, false)
		return ConversionResult{}
	}

	s.logger.Infow("fiat conversion result", "tx.id", activity.TxID, "usd", usd.String())
	s.metrics.recordConversion(ctx, true)
	return ConversionResult{USD: usd, Available: true}
}
