package finance

import "fmt"

// DiscountedPrice returns the round price after the investor discount:
// round_pps*(1-discount).
func DiscountedPrice(roundPPS, discount string) string {
	return formula(discountedPrice(roundPPS, discount))
}

func discountedPrice(roundPPS, discount string) string {
	return paren(roundPPS) + "*(1-" + paren(discount) + ")"
}

// CapPrice returns the price implied by a valuation cap: cap/pre_round_shares.
func CapPrice(valuationCap, preRoundShares string) string {
	return formula(safeDiv(valuationCap, preRoundShares))
}

// ConversionPrice returns the investor-favorable SAFE price: the lesser of the
// discounted round price and the cap price. A cap of zero or less means no cap.
func ConversionPrice(roundPPS, discount, valuationCap, preRoundShares string) string {
	disc := discountedPrice(roundPPS, discount)
	capped := "IF(" + paren(valuationCap) + ">0,IFERROR(" + paren(valuationCap) + "/" + paren(preRoundShares) + "," + disc + ")," + disc + ")"
	return formula("MIN(" + disc + "," + capped + ")")
}

// ConversionShares returns investment/conversion_price.
func ConversionShares(investment, conversionPrice string) string {
	return formula(safeDiv(investment, conversionPrice))
}

// SAFEShares computes the share count directly as the larger of the share counts
// produced by the discounted price and by the cap price. It is the max-shares
// reading of ConversionPrice followed by ConversionShares.
func SAFEShares(investment, roundPPS, discount, valuationCap, preRoundShares string) string {
	byDiscount := safeDiv(investment, discountedPrice(roundPPS, discount))
	byCap := safeDiv(investment, safeDiv(valuationCap, preRoundShares))
	return formula("MAX(" + byDiscount + "," + byCap + ")")
}

// CapType selects which capitalization a convertible's valuation cap is measured
// against.
type CapType string

const (
	CapPreConversion       CapType = "pre_conversion"        // cap / pre-round shares
	CapPostConversionOwn   CapType = "post_conversion_own"   // cap includes this instrument's conversion
	CapPostConversionTotal CapType = "post_conversion_total" // cap includes every conversion in the round
	CapDefault             CapType = "default"               // use the round-level cap
)

// ConvertibleTerms are the references a convertible conversion formula reads.
// Empty strings mark terms the instrument does not have.
type ConvertibleTerms struct {
	Principal       string
	Interest        string // accrued interest converting with the principal
	Discount        string
	ValuationCap    string // per-instrument cap
	CapType         CapType
	RoundPreMoney   string // pre-investment valuation of the converting round
	RoundCap        string // round-level cap used by CapDefault
	TotalConversion string // every amount converting in the round
	PreRoundShares  string
	PostMoney       bool // the round-level cap is a post-money figure
}

// amount is principal plus accrued interest.
func (t ConvertibleTerms) amount() string {
	if t.Interest == "" {
		return paren(t.Principal)
	}
	return "(" + paren(t.Principal) + "+" + paren(t.Interest) + ")"
}

// ConvertibleShares returns the share count of a convertible as the maximum of the
// methods that apply to it. Method 1 discounts the price implied by the round's
// pre-money valuation less the total converting amount. Method 2 prices shares off a
// valuation cap selected by CapType. When neither applies, method 1 runs without a
// discount.
func ConvertibleShares(t ConvertibleTerms) (string, error) {
	if t.Principal == "" || t.PreRoundShares == "" {
		return "", fmt.Errorf("convertible shares: principal and pre-round shares are required")
	}
	amount := t.amount()

	var methods []string
	roundPrice := ""
	if t.RoundPreMoney != "" {
		basis := paren(t.RoundPreMoney)
		if t.TotalConversion != "" {
			basis = "(" + paren(t.RoundPreMoney) + "-" + paren(t.TotalConversion) + ")"
		}
		roundPrice = "(" + basis + "/" + paren(t.PreRoundShares) + ")"
		if t.Discount != "" {
			methods = append(methods, safeDiv(amount, roundPrice+"*(1-"+paren(t.Discount)+")"))
		}
	}

	capPrice, err := t.capPrice(amount)
	if err != nil {
		return "", err
	}
	if capPrice != "" {
		methods = append(methods, safeDiv(amount, capPrice))
	}

	switch {
	case len(methods) == 0 && roundPrice == "":
		return "", fmt.Errorf("convertible shares: no discount, cap or round valuation to convert at")
	case len(methods) == 0:
		return formula(safeDiv(amount, roundPrice)), nil
	case len(methods) == 1:
		return formula(methods[0]), nil
	default:
		return formula("MAX(" + methods[0] + "," + methods[1] + ")"), nil
	}
}

// capPrice returns the method 2 price-per-share expression, or "" when the
// instrument has no applicable cap.
func (t ConvertibleTerms) capPrice(amount string) (string, error) {
	pre := paren(t.PreRoundShares)
	total := t.TotalConversion
	if total == "" {
		total = amount
	}
	switch t.CapType {
	case CapPreConversion:
		if t.ValuationCap == "" {
			return "", nil
		}
		return paren(t.ValuationCap) + "/" + pre, nil
	case CapPostConversionOwn:
		if t.ValuationCap == "" {
			return "", nil
		}
		return "(" + paren(t.ValuationCap) + "-" + amount + ")/" + pre, nil
	case CapPostConversionTotal:
		if t.ValuationCap == "" {
			return "", nil
		}
		return "(" + paren(t.ValuationCap) + "-" + paren(total) + ")/" + pre, nil
	case CapDefault, "":
		if t.RoundCap == "" {
			return "", nil
		}
		if t.PostMoney {
			return "(" + paren(t.RoundCap) + "-" + paren(total) + ")/" + pre, nil
		}
		return paren(t.RoundCap) + "/" + pre, nil
	default:
		return "", fmt.Errorf("convertible shares: unknown cap type %q", t.CapType)
	}
}
