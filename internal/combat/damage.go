package combat

import "math"

// Mitigate reduces raw damage by armor. A hit always does at least one point.
func Mitigate(amount, armor int) int {
	return max(1, amount-armor)
}

// Fraction returns ceil(total * frac), the form used for percentage based
// damage such as decay.
func Fraction(total int, frac float64) int {
	return int(math.Ceil(float64(total) * frac))
}

// ApplyDamage subtracts dmg from health, clamping at zero.
func ApplyDamage(health, dmg int) int {
	if dmg >= health {
		return 0
	}
	return health - dmg
}
