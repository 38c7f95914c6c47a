package combat

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestMitigate(t *testing.T) {
	tests := map[string]struct {
		amount, armor int
		exp           int
	}{
		"armor reduces damage": {amount: 50, armor: 10, exp: 40},
		"no armor":             {amount: 50, armor: 0, exp: 50},
		"armor exceeds damage": {amount: 5, armor: 10, exp: 1},
		"armor equals damage":  {amount: 10, armor: 10, exp: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "damage", Mitigate(tt.amount, tt.armor), tt.exp)
		})
	}
}

func TestFraction(t *testing.T) {
	testutil.AssertEqual(t, "exact", Fraction(200, 0.1), 20)
	testutil.AssertEqual(t, "rounds up", Fraction(155, 0.1), 16)
	testutil.AssertEqual(t, "tiny", Fraction(1, 0.1), 1)
}

func TestApplyDamage(t *testing.T) {
	testutil.AssertEqual(t, "survives", ApplyDamage(200, 40), 160)
	testutil.AssertEqual(t, "exact kill", ApplyDamage(40, 40), 0)
	testutil.AssertEqual(t, "clamped", ApplyDamage(10, 40), 0)
}

func TestNearest(t *testing.T) {
	tests := map[string]struct {
		targets []Target
		expId   int64
		expOk   bool
	}{
		"no targets": {targets: nil, expOk: false},
		"picks closest": {
			targets: []Target{{ID: 1, X: 100, Y: 0, Health: 10}, {ID: 2, X: 10, Y: 0, Health: 10}},
			expId:   2,
			expOk:   true,
		},
		"skips dead": {
			targets: []Target{{ID: 1, X: 100, Y: 0, Health: 10}, {ID: 2, X: 10, Y: 0, Health: 0}},
			expId:   1,
			expOk:   true,
		},
		"tie goes to lower id": {
			targets: []Target{{ID: 7, X: 0, Y: 10, Health: 10}, {ID: 3, X: 10, Y: 0, Health: 10}},
			expId:   3,
			expOk:   true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := Nearest(tt.targets, 0, 0)
			testutil.AssertEqual(t, "ok", ok, tt.expOk)
			testutil.AssertEqual(t, "id", got.ID, tt.expId)
		})
	}
}
