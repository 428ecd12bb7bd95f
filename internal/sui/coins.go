package sui

import (
	"context"
	"fmt"
	"sort"
)

// SelectGasCoins picks SUI coins owned by owner, largest first, until they cover need MIST.
func (c *Client) SelectGasCoins(ctx context.Context, owner string, need uint64) ([]string, error) {
	var coins []Coin
	var cursor *string
	for {
		page, err := c.GetCoins(ctx, owner, SuiCoinType, cursor, 50)
		if err != nil {
			return nil, err
		}
		coins = append(coins, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}
	return pickCoins(coins, need)
}

func pickCoins(coins []Coin, need uint64) ([]string, error) {
	type sized struct {
		id  string
		bal uint64
	}
	list := make([]sized, 0, len(coins))
	for _, coin := range coins {
		bal, err := coin.BalanceMist()
		if err != nil {
			return nil, fmt.Errorf("coin %s balance: %w", coin.CoinObjectID, err)
		}
		list = append(list, sized{id: coin.CoinObjectID, bal: bal})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].bal > list[j].bal })

	var total uint64
	ids := make([]string, 0, 4)
	for _, s := range list {
		ids = append(ids, s.id)
		total += s.bal
		if total >= need {
			return ids, nil
		}
	}
	return nil, fmt.Errorf("insufficient SUI: have %d MIST in %d coins, need %d", total, len(list), need)
}
