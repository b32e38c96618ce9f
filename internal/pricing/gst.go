package pricing

import (
	"fmt"
	"strings"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/money"
	"github.com/shopspring/decimal"
)

// Mode says whether a tariff already contains GST.
type Mode string

const (
	ModeIncluding Mode = "INCLUDING"
	ModeExcluding Mode = "EXCLUDING"
)

func (m Mode) Valid() bool {
	return m == ModeIncluding || m == ModeExcluding
}

var (
	ErrInvalidMode          = apperror.BadRequest("gst mode must be INCLUDING or EXCLUDING")
	ErrNegativeAmount       = apperror.BadRequest("tariff, tax rates and discount cannot be negative")
	ErrDiscountExceedsTotal = apperror.BadRequest("discount cannot exceed the gross amount")
)

type BillInput struct {
	BaseTariff decimal.Decimal
	Mode       Mode
	CGSTRate   decimal.Decimal // percent
	SGSTRate   decimal.Decimal // percent
	Discount   decimal.Decimal
}

// Bill always satisfies PreTax + CGST + SGST == Gross and Final == Gross - Discount.
type Bill struct {
	Mode     Mode            `json:"mode"`
	PreTax   decimal.Decimal `json:"pre_tax"`
	CGSTRate decimal.Decimal `json:"cgst_rate"`
	SGSTRate decimal.Decimal `json:"sgst_rate"`
	CGST     decimal.Decimal `json:"cgst"`
	SGST     decimal.Decimal `json:"sgst"`
	Gross    decimal.Decimal `json:"gross"`
	Discount decimal.Decimal `json:"discount"`
	Final    decimal.Decimal `json:"final"`
}

// CalculateBill splits a tariff into its GST components.
//
// EXCLUDING adds CGST and SGST on top of the tariff. INCLUDING treats the
// tariff as gross, backs out the pre-tax amount and folds any rounding
// difference into it. The discount is taken off the gross in both modes.
func CalculateBill(in BillInput) (Bill, error) {
	if !in.Mode.Valid() {
		return Bill{}, ErrInvalidMode
	}
	if in.BaseTariff.IsNegative() || in.CGSTRate.IsNegative() || in.SGSTRate.IsNegative() || in.Discount.IsNegative() {
		return Bill{}, ErrNegativeAmount
	}

	b := Bill{
		Mode:     in.Mode,
		CGSTRate: in.CGSTRate,
		SGSTRate: in.SGSTRate,
		Discount: money.Round(in.Discount),
	}
	base := money.Round(in.BaseTariff)

	switch in.Mode {
	case ModeExcluding:
		b.PreTax = base
		b.CGST = money.Round(money.Percent(base, in.CGSTRate))
		b.SGST = money.Round(money.Percent(base, in.SGSTRate))
		b.Gross = b.PreTax.Add(b.CGST).Add(b.SGST)
	case ModeIncluding:
		divisor := decimal.NewFromInt(1).Add(money.Percent(decimal.NewFromInt(1), in.CGSTRate.Add(in.SGSTRate)))
		preTax := base.Div(divisor)
		b.CGST = money.Round(money.Percent(preTax, in.CGSTRate))
		b.SGST = money.Round(money.Percent(preTax, in.SGSTRate))
		b.Gross = base
		b.PreTax = base.Sub(b.CGST).Sub(b.SGST)
	}

	if b.Discount.GreaterThan(b.Gross) {
		return Bill{}, ErrDiscountExceedsTotal
	}
	b.Final = b.Gross.Sub(b.Discount)
	return b, nil
}

// TaxPolicy holds the property's default GST settings.
type TaxPolicy struct {
	Mode     Mode
	CGSTRate decimal.Decimal
	SGSTRate decimal.Decimal
}

// NewTaxPolicy parses configured values such as "EXCLUDING", "6", "6".
func NewTaxPolicy(mode, cgst, sgst string) (TaxPolicy, error) {
	p := TaxPolicy{Mode: Mode(strings.ToUpper(mode))}
	if !p.Mode.Valid() {
		return TaxPolicy{}, fmt.Errorf("invalid gst mode %q", mode)
	}

	var err error
	if p.CGSTRate, err = decimal.NewFromString(cgst); err != nil {
		return TaxPolicy{}, fmt.Errorf("invalid cgst rate %q: %w", cgst, err)
	}
	if p.SGSTRate, err = decimal.NewFromString(sgst); err != nil {
		return TaxPolicy{}, fmt.Errorf("invalid sgst rate %q: %w", sgst, err)
	}
	if p.CGSTRate.IsNegative() || p.SGSTRate.IsNegative() {
		return TaxPolicy{}, fmt.Errorf("gst rates cannot be negative")
	}
	return p, nil
}

// Bill applies the policy to a tariff. Zero-valued fields of override keep the policy defaults.
func (p TaxPolicy) Bill(base, discount decimal.Decimal, override *TaxOverride) (Bill, error) {
	in := BillInput{BaseTariff: base, Mode: p.Mode, CGSTRate: p.CGSTRate, SGSTRate: p.SGSTRate, Discount: discount}
	if override != nil {
		if override.Mode != "" {
			in.Mode = override.Mode
		}
		if override.CGSTRate != nil {
			in.CGSTRate = *override.CGSTRate
		}
		if override.SGSTRate != nil {
			in.SGSTRate = *override.SGSTRate
		}
	}
	return CalculateBill(in)
}

type TaxOverride struct {
	Mode     Mode
	CGSTRate *decimal.Decimal
	SGSTRate *decimal.Decimal
}
