// Package corex holds the exact-decimal and time primitives shared by every
// other package in this module.
package corex

import (
	"fmt"
	"math/big"
)

// scale is the fixed-point precision: 18 fractional digits, matching the
// numéraire/token base-unit precision used on-chain.
const scale = 18

var scaleFactor = new(big.Int).Exp(big.NewInt(10), big.NewInt(scale), nil)

// Decimal is a fixed-point decimal with 18 fractional digits, represented as
// an integer number of 1e-18 units. All arithmetic is exact; there is no
// implicit floating-point rounding anywhere in this type.
type Decimal struct {
	v *big.Int
}

// Zero is the additive identity.
var Zero = Decimal{v: big.NewInt(0)}

// One is the multiplicative identity (1.0).
var One = Decimal{v: new(big.Int).Set(scaleFactor)}

func fromScaled(v *big.Int) Decimal {
	return Decimal{v: v}
}

// NewFromInt64 builds a Decimal representing the integer n.
func NewFromInt64(n int64) Decimal {
	return Decimal{v: new(big.Int).Mul(big.NewInt(n), scaleFactor)}
}

// NewFromFloat64 builds a Decimal from a float64. This is a convenience
// constructor for tests and for wire values that already lost precision
// before reaching this process (e.g. a float64-typed config field); it is
// never used on values that must retain exact decimal semantics end to end.
func NewFromFloat64(f float64) Decimal {
	r := new(big.Rat).SetFloat64(f)
	if r == nil {
		return Zero
	}
	return fromRat(r)
}

func fromRat(r *big.Rat) Decimal {
	num := new(big.Int).Mul(r.Num(), scaleFactor)
	v := new(big.Int).Quo(num, r.Denom())
	return Decimal{v: v}
}

// Parse parses a decimal literal such as "0.48" or "-1.5" with no precision
// loss. Numeric strings arriving over the wire (§6) are parsed with this
// function, never strconv.ParseFloat.
func Parse(s string) (Decimal, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Zero, fmt.Errorf("corex: invalid decimal literal %q", s)
	}
	return fromRat(r), nil
}

// MustParse is Parse but panics on error; used for compile-time-known
// literals in tests and constant tables.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) bi() *big.Int {
	if d.v == nil {
		return big.NewInt(0)
	}
	return d.v
}

// RawUnits returns the value as an integer count of 1e-18 units, for callers
// that must hand an exact on-chain base-unit amount to a signing or
// transaction-building step (e.g. rescaling to a token's native decimals).
func (d Decimal) RawUnits() *big.Int {
	return new(big.Int).Set(d.bi())
}

// Add returns d + o.
func (d Decimal) Add(o Decimal) Decimal {
	return fromScaled(new(big.Int).Add(d.bi(), o.bi()))
}

// Sub returns d - o.
func (d Decimal) Sub(o Decimal) Decimal {
	return fromScaled(new(big.Int).Sub(d.bi(), o.bi()))
}

// Neg returns -d.
func (d Decimal) Neg() Decimal {
	return fromScaled(new(big.Int).Neg(d.bi()))
}

// Mul returns d * o, exact to 18 fractional digits (the product is computed
// at double precision internally and rescaled, so intermediate rounding only
// ever truncates digits beyond the 18th).
func (d Decimal) Mul(o Decimal) Decimal {
	prod := new(big.Int).Mul(d.bi(), o.bi())
	return fromScaled(prod.Quo(prod, scaleFactor))
}

// Div returns d / o. Panics on division by zero, matching the teacher's
// convention of treating a zero divisor as a programming error rather than a
// recoverable condition in hot-path arithmetic.
func (d Decimal) Div(o Decimal) Decimal {
	if o.IsZero() {
		panic("corex: division by zero")
	}
	num := new(big.Int).Mul(d.bi(), scaleFactor)
	return fromScaled(num.Quo(num, o.bi()))
}

// MulInt multiplies by a plain integer factor without rescaling.
func (d Decimal) MulInt(n int64) Decimal {
	return fromScaled(new(big.Int).Mul(d.bi(), big.NewInt(n)))
}

// DivInt divides by a plain integer divisor.
func (d Decimal) DivInt(n int64) Decimal {
	if n == 0 {
		panic("corex: division by zero")
	}
	return fromScaled(new(big.Int).Quo(d.bi(), big.NewInt(n)))
}

// Cmp returns -1, 0, or 1 as d is less than, equal to, or greater than o.
func (d Decimal) Cmp(o Decimal) int {
	return d.bi().Cmp(o.bi())
}

// LessThan reports whether d < o.
func (d Decimal) LessThan(o Decimal) bool { return d.Cmp(o) < 0 }

// GreaterThan reports whether d > o.
func (d Decimal) GreaterThan(o Decimal) bool { return d.Cmp(o) > 0 }

// GreaterThanOrEqual reports whether d >= o.
func (d Decimal) GreaterThanOrEqual(o Decimal) bool { return d.Cmp(o) >= 0 }

// LessThanOrEqual reports whether d <= o.
func (d Decimal) LessThanOrEqual(o Decimal) bool { return d.Cmp(o) <= 0 }

// Equal reports whether d == o exactly.
func (d Decimal) Equal(o Decimal) bool { return d.Cmp(o) == 0 }

// IsZero reports whether d == 0.
func (d Decimal) IsZero() bool { return d.bi().Sign() == 0 }

// Sign returns -1, 0, or 1 as d is negative, zero, or positive.
func (d Decimal) Sign() int { return d.bi().Sign() }

// IsNegative reports whether d < 0.
func (d Decimal) IsNegative() bool { return d.Sign() < 0 }

// Abs returns the absolute value of d.
func (d Decimal) Abs() Decimal {
	if d.IsNegative() {
		return d.Neg()
	}
	return d
}

// Float64 converts to a float64. This loses precision and must only be used
// at observability boundaries (metrics, logs), never in decision logic.
func (d Decimal) Float64() float64 {
	f := new(big.Rat).SetFrac(d.bi(), scaleFactor)
	v, _ := f.Float64()
	return v
}

// String renders the decimal with full 18-digit precision, trimming
// trailing zeros (but keeping at least one fractional digit removed fully,
// i.e. integers render without a decimal point).
func (d Decimal) String() string {
	neg := d.IsNegative()
	v := new(big.Int).Abs(d.bi())

	intPart := new(big.Int).Quo(v, scaleFactor)
	fracPart := new(big.Int).Mod(v, scaleFactor)

	fracStr := fracPart.String()
	for len(fracStr) < scale {
		fracStr = "0" + fracStr
	}
	for len(fracStr) > 0 && fracStr[len(fracStr)-1] == '0' {
		fracStr = fracStr[:len(fracStr)-1]
	}

	out := intPart.String()
	if fracStr != "" {
		out += "." + fracStr
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}

// MarshalJSON renders the decimal as a JSON string to avoid float64 loss of
// precision on the wire.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
