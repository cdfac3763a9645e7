package bill

import (
	"sort"

	"tripplanner/models"
)

// SplitEqually divides total between userIDs. The cents that do not divide
// evenly go one each to the first users.
func SplitEqually(total int64, userIDs []string) []models.BillShare {
	if len(userIDs) == 0 {
		return nil
	}
	n := int64(len(userIDs))
	base, remainder := total/n, total%n

	shares := make([]models.BillShare, len(userIDs))
	for i, id := range userIDs {
		amount := base
		if int64(i) < remainder {
			amount++
		}
		shares[i] = models.BillShare{UserID: id, Amount: amount}
	}
	return shares
}

// Balance is what one member paid minus what they owe, in one currency
type Balance struct {
	UserID string
	Paid   int64
	Owed   int64
}

func (b Balance) Net() int64 {
	return b.Paid - b.Owed
}

// CurrencyBalances groups the member balances of one currency
type CurrencyBalances struct {
	Currency  string
	Total     int64
	Balances  []Balance
	Transfers []Transfer
}

// Transfer is a payment that settles part of the debts
type Transfer struct {
	From   string
	To     string
	Amount int64
}

// ComputeBalances sums paid and owed amounts per currency. Every member in
// memberIDs appears in each currency, in the given order.
func ComputeBalances(bills []*models.Bill, memberIDs []string) []CurrencyBalances {
	type acc struct {
		total int64
		paid  map[string]int64
		owed  map[string]int64
		extra []string
	}
	byCurrency := make(map[string]*acc)
	known := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		known[id] = true
	}

	for _, b := range bills {
		a, ok := byCurrency[b.Currency]
		if !ok {
			a = &acc{paid: map[string]int64{}, owed: map[string]int64{}}
			byCurrency[b.Currency] = a
		}
		a.total += b.TotalAmount
		a.paid[b.PaidBy] += b.TotalAmount
		track := func(id string) {
			if !known[id] && !contains(a.extra, id) {
				a.extra = append(a.extra, id)
			}
		}
		track(b.PaidBy)
		for _, s := range b.Shares {
			a.owed[s.UserID] += s.Amount
			track(s.UserID)
		}
	}

	currencies := make([]string, 0, len(byCurrency))
	for c := range byCurrency {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	result := make([]CurrencyBalances, 0, len(currencies))
	for _, c := range currencies {
		a := byCurrency[c]
		cb := CurrencyBalances{Currency: c, Total: a.total}
		for _, id := range append(append([]string{}, memberIDs...), a.extra...) {
			cb.Balances = append(cb.Balances, Balance{UserID: id, Paid: a.paid[id], Owed: a.owed[id]})
		}
		cb.Transfers = SettleUp(cb.Balances)
		result = append(result, cb)
	}
	return result
}

// SettleUp suggests transfers that bring every balance to zero. The largest
// debtor repeatedly pays the largest creditor.
func SettleUp(balances []Balance) []Transfer {
	type entry struct {
		id  string
		amt int64
	}
	var debtors, creditors []entry
	for _, b := range balances {
		switch net := b.Net(); {
		case net < 0:
			debtors = append(debtors, entry{b.UserID, -net})
		case net > 0:
			creditors = append(creditors, entry{b.UserID, net})
		}
	}

	var transfers []Transfer
	for len(debtors) > 0 && len(creditors) > 0 {
		sortDesc := func(es []entry) {
			sort.SliceStable(es, func(i, j int) bool { return es[i].amt > es[j].amt })
		}
		sortDesc(debtors)
		sortDesc(creditors)

		d, c := &debtors[0], &creditors[0]
		amount := min(d.amt, c.amt)
		transfers = append(transfers, Transfer{From: d.id, To: c.id, Amount: amount})
		d.amt -= amount
		c.amt -= amount
		if d.amt == 0 {
			debtors = debtors[1:]
		}
		if c.amt == 0 {
			creditors = creditors[1:]
		}
	}
	return transfers
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
