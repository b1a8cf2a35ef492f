package domain

// Money is an amount in minor currency units.
type Money int64

// Times returns the subtotal for qty units. Non-positive quantities
// contribute nothing.
func (m Money) Times(qty int) Money {
	if qty <= 0 {
		return 0
	}
	return m * Money(qty)
}
