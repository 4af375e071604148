package domain

import "time"

// DateLayout is the canonical calendar-day format used in sales keys.
const DateLayout = "2006-01-02"

// ProductQuantities counts units per menu item.
type ProductQuantities struct {
	Burger int64 `json:"burger" bson:"burger"`
	Jumbo  int64 `json:"jumbo" bson:"jumbo"`
	Family int64 `json:"family" bson:"family"`
	Short  int64 `json:"short" bson:"short"`
}

// Plus returns the elementwise sum of q and d.
func (q ProductQuantities) Plus(d ProductQuantities) ProductQuantities {
	return ProductQuantities{
		Burger: q.Burger + d.Burger,
		Jumbo:  q.Jumbo + d.Jumbo,
		Family: q.Family + d.Family,
		Short:  q.Short + d.Short,
	}
}

// Negative reports whether any item count is below zero.
func (q ProductQuantities) Negative() bool {
	return q.Burger < 0 || q.Jumbo < 0 || q.Family < 0 || q.Short < 0
}

// Fields returns the item counts keyed by their stored field name.
func (q ProductQuantities) Fields() map[string]int64 {
	return map[string]int64{
		"burger": q.Burger,
		"jumbo":  q.Jumbo,
		"family": q.Family,
		"short":  q.Short,
	}
}

// SalesTotals groups the six quantity categories of a day's entry.
type SalesTotals struct {
	Collected    ProductQuantities `json:"collected" bson:"collected"`
	SoldCash     ProductQuantities `json:"sold_cash" bson:"sold_cash"`
	SoldTransfer ProductQuantities `json:"sold_transfer" bson:"sold_transfer"`
	SoldCard     ProductQuantities `json:"sold_card" bson:"sold_card"`
	Returned     ProductQuantities `json:"returned" bson:"returned"`
	Damages      ProductQuantities `json:"damages" bson:"damages"`
}

// Plus merges d into t category by category.
func (t SalesTotals) Plus(d SalesTotals) SalesTotals {
	return SalesTotals{
		Collected:    t.Collected.Plus(d.Collected),
		SoldCash:     t.SoldCash.Plus(d.SoldCash),
		SoldTransfer: t.SoldTransfer.Plus(d.SoldTransfer),
		SoldCard:     t.SoldCard.Plus(d.SoldCard),
		Returned:     t.Returned.Plus(d.Returned),
		Damages:      t.Damages.Plus(d.Damages),
	}
}

// Categories returns the six categories keyed by their stored field name.
func (t SalesTotals) Categories() map[string]ProductQuantities {
	return map[string]ProductQuantities{
		"collected":     t.Collected,
		"sold_cash":     t.SoldCash,
		"sold_transfer": t.SoldTransfer,
		"sold_card":     t.SoldCard,
		"returned":      t.Returned,
		"damages":       t.Damages,
	}
}

// Negative reports whether any counter in any category is below zero.
func (t SalesTotals) Negative() bool {
	for _, q := range t.Categories() {
		if q.Negative() {
			return true
		}
	}
	return false
}

// SalesEntry is one user's accumulated sales sheet for one business day.
type SalesEntry struct {
	ID      string `json:"id" bson:"_id"`
	Date    string `json:"date" bson:"date"`
	UserID  string `json:"user_id" bson:"user_id"`
	StaffID string `json:"staff_id" bson:"staff_id"`

	SalesTotals `bson:",inline"`

	IsFinalized bool      `json:"is_finalized" bson:"is_finalized"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// SalesKey builds the document key for a user's entry on date.
func SalesKey(userID, date string) string {
	return userID + "_" + date
}

// EmptySalesEntry is the all-zero, unfinalized entry returned before the
// first submission of the day.
func EmptySalesEntry(userID, staffID, date string) *SalesEntry {
	return &SalesEntry{
		ID:      SalesKey(userID, date),
		Date:    date,
		UserID:  userID,
		StaffID: staffID,
	}
}

// BusinessDay formats t as a calendar date in loc.
func BusinessDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}
