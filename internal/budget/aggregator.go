// Package budget computes the dashboard aggregates: total allotted budget,
// lifetime spend and derived figures per category.
package budget

import (
	"budgetboard/internal/core"
)

// Overview is the computed dashboard block for one category.
type Overview struct {
	Category    core.Category `json:"category"`
	Total       core.Money    `json:"total"`
	Spent       core.Money    `json:"spent"`
	Remaining   core.Money    `json:"remaining"`   // negative signals overspend
	Utilization float64       `json:"utilization"` // percent, 0 when total is 0
}

// TotalBudget sums snapshotted budgets for a category. Active members count
// fully. An exited member counts only while the reporting month has not
// passed their exit month (exitMonth >= currentMonth); despite the name
// "pro-ration" this is an inclusion cutoff, never a fraction. An exited
// member with no exit record contributes nothing.
func TotalBudget(members []core.Member, attrition []core.AttritionRecord, currentMonth core.Month, category core.Category) core.Money {
	exitByMember := make(map[string]core.Month, len(attrition))
	for _, a := range attrition {
		exitByMember[a.MemberID] = a.ExitMonth
	}

	var total core.Money
	for _, m := range members {
		if m.Status == core.StatusActive {
			total = total.Add(m.BudgetFor(category))
			continue
		}
		exitMonth, ok := exitByMember[m.ID]
		if !ok {
			continue
		}
		if !exitMonth.Before(currentMonth) {
			total = total.Add(m.BudgetFor(category))
		}
	}
	return total
}

// Spent sums expense amounts for a category over all time. The dashboard
// deliberately frames lifetime budget against lifetime spend, so there is
// no month or member filtering here.
func Spent(expenses []core.Expense, category core.Category) core.Money {
	var sum core.Money
	for _, e := range expenses {
		if e.Category == category {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

// BuildOverview computes the full dashboard block for one category.
func BuildOverview(members []core.Member, expenses []core.Expense, attrition []core.AttritionRecord, currentMonth core.Month, category core.Category) Overview {
	total := TotalBudget(members, attrition, currentMonth, category)
	spent := Spent(expenses, category)

	o := Overview{
		Category:  category,
		Total:     total,
		Spent:     spent,
		Remaining: total.Sub(spent),
	}
	if total.Cents > 0 {
		o.Utilization = float64(spent.Cents) / float64(total.Cents) * 100
	}
	return o
}
