package dto

type MovementFilters struct {
	StoreID   string
	ProductID string
	OrderID   string
	Type      string
	Clamped   *bool
	Page      int
	PageSize  int
}

func (f *MovementFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 50
	}
}
