package fulfillment

import "testing"

func TestProductAvailability(t *testing.T) {
	cases := []struct {
		name      string
		a         ProductAvailability
		remaining int
		available int
	}{
		{
			name:      "untouched",
			a:         ProductAvailability{QuantityNeeded: 5, QuantityPicked: 5},
			remaining: 5,
			available: 5,
		},
		{
			name: "partially packed by this order",
			a: ProductAvailability{
				QuantityNeeded: 5, QuantityPacked: 2,
				QuantityPicked: 5, AggregatePacked: 2,
			},
			remaining: 3,
			available: 3,
		},
		{
			name: "sibling order consumed the picked units",
			a: ProductAvailability{
				QuantityNeeded: 5, QuantityPacked: 0,
				QuantityPicked: 6, AggregatePacked: 6,
			},
			remaining: 5,
			available: 0,
		},
		{
			name: "under-picked partial session",
			a: ProductAvailability{
				QuantityNeeded: 10, QuantityPacked: 1,
				QuantityPicked: 4, AggregatePacked: 3,
			},
			remaining: 9,
			available: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Remaining(); got != tc.remaining {
				t.Errorf("Remaining() = %d, want %d", got, tc.remaining)
			}
			if got := tc.a.Available(); got != tc.available {
				t.Errorf("Available() = %d, want %d", got, tc.available)
			}
		})
	}
}
