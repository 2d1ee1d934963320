package processing

import (
	"context"
	"fmt"

	"wfm_order_visibility/internal/market"
	"wfm_order_visibility/internal/syndicate"

	"github.com/rs/zerolog/log"
)

// Marketplace is the part of the market client the evaluator needs.
type Marketplace interface {
	GetAllOwnOrders(ctx context.Context) (*market.OrdersResponse, error)
	GetItemInfo(ctx context.Context, urlName string) (*market.ItemResponse, error)
	UpdateOrder(ctx context.Context, orderID string, update market.OrderUpdate) error
}

// VisibilitySource reports the configured visibility of a syndicate.
type VisibilitySource interface {
	Visible(id syndicate.ID) bool
}

// Change describes one order whose visibility was flipped.
type Change struct {
	OrderID     string
	ItemURLName string
	WasVisible  bool
	NowVisible  bool
	Syndicates  []syndicate.ID
}

// Result summarizes an update pass.
type Result struct {
	Checked int
	Updated int
	Changes []Change
}

type Evaluator struct {
	market     Marketplace
	visibility VisibilitySource
}

func NewEvaluator(m Marketplace, v VisibilitySource) *Evaluator {
	return &Evaluator{market: m, visibility: v}
}

// UpdateAffectedOrders re-evaluates every sell order of the profile and flips
// the visibility of those that disagree with the syndicate settings. Orders
// of items no syndicate offers are never touched. The first failing request
// ends the pass; the returned result still counts the orders already updated.
func (e *Evaluator) UpdateAffectedOrders(ctx context.Context) (*Result, error) {
	result := &Result{}

	ordersResp, err := e.market.GetAllOwnOrders(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to get own orders: %w", err)
	}

	sellOrders := ordersResp.Payload.SellOrders
	log.Debug().Int("sell_orders", len(sellOrders)).Msg("Evaluating sell orders")

	for _, order := range sellOrders {
		result.Checked++

		matches, err := e.syndicatesForOrder(ctx, order)
		if err != nil {
			return result, err
		}
		if len(matches) == 0 {
			log.Debug().
				Str("order_id", order.ID).
				Str("item", order.Item.URLName).
				Msg("Skipping order of item without syndicate drop source")
			continue
		}

		desired := DesiredVisibility(matches, e.visibility)
		if desired == order.Visible {
			log.Debug().
				Str("order_id", order.ID).
				Str("item", order.Item.URLName).
				Bool("visible", order.Visible).
				Msg("Order visibility already matches")
			continue
		}

		if err := e.market.UpdateOrder(ctx, order.ID, buildUpdate(order)); err != nil {
			return result, fmt.Errorf("failed to update order %s: %w", order.ID, err)
		}

		result.Updated++
		result.Changes = append(result.Changes, Change{
			OrderID:     order.ID,
			ItemURLName: order.Item.URLName,
			WasVisible:  order.Visible,
			NowVisible:  !order.Visible,
			Syndicates:  matches,
		})

		log.Info().
			Str("order_id", order.ID).
			Str("item", order.Item.URLName).
			Bool("visible", !order.Visible).
			Msg("Updated order visibility")
	}

	log.Debug().
		Int("checked", result.Checked).
		Int("updated", result.Updated).
		Msg("Finished evaluating sell orders")
	return result, nil
}

func (e *Evaluator) syndicatesForOrder(ctx context.Context, order market.Order) ([]syndicate.ID, error) {
	itemResp, err := e.market.GetItemInfo(ctx, order.Item.URLName)
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", order.Item.URLName, err)
	}

	itemID := order.Item.ID
	if itemID == "" {
		itemID = itemResp.Payload.Item.ID
	}
	return MatchSyndicates(DropSources(itemResp.Payload.Item, itemID)), nil
}

// DropSources returns the drop list of itemID within the item's set. A set of
// one is taken as is; otherwise the member with a matching id is used and no
// match yields no drop sources.
func DropSources(item market.ItemDetail, itemID string) []market.DropSource {
	if len(item.ItemsInSet) == 1 {
		return item.ItemsInSet[0].En.Drop
	}
	for _, member := range item.ItemsInSet {
		if member.ID == itemID {
			return member.En.Drop
		}
	}
	return nil
}

// MatchSyndicates maps every drop source naming a syndicate to that syndicate.
func MatchSyndicates(drops []market.DropSource) []syndicate.ID {
	var matches []syndicate.ID
	for _, drop := range drops {
		if id, ok := syndicate.Match(drop.Name); ok {
			matches = append(matches, id)
		}
	}
	return matches
}

// DesiredVisibility is true when any of the matched syndicates is visible.
func DesiredVisibility(matches []syndicate.ID, visibility VisibilitySource) bool {
	for _, id := range matches {
		if visibility.Visible(id) {
			return true
		}
	}
	return false
}

func buildUpdate(order market.Order) market.OrderUpdate {
	update := market.OrderUpdate{
		OrderID:  order.ID,
		Platinum: order.Platinum,
		Quantity: order.Quantity,
		Visible:  !order.Visible,
	}
	if order.ModRank != nil {
		rank := *order.ModRank
		update.ModRank = &rank
	}
	return update
}
