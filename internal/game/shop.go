package game

import (
	"github.com/google/uuid"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/weighted"
)

const (
	shopSlots = 3
	// shopWeightBase / price is an offer's draw weight, so cheaper items show up more often.
	shopWeightBase = 600
)

// BuyItem buys one offer from the open shop.
func (e *Engine) BuyItem(matchID, playerID uuid.UUID, itemID string) error {
	return e.withMatch(matchID, func(m *Match) error {
		return e.buyItem(m, playerID, itemID)
	})
}

// SkipShop leaves the open shop without buying.
func (e *Engine) SkipShop(matchID, playerID uuid.UUID) error {
	return e.withMatch(matchID, func(m *Match) error {
		return e.closeShop(m, playerID, "skipped")
	})
}

// shopOffers draws up to shopSlots distinct items the player can afford at this tier.
func (e *Engine) shopOffers(m *Match, p *models.Player, tier int) []ShopOffer {
	var entries []weighted.Entry[ShopOffer]
	for _, it := range e.cat.ShopItems(tier) {
		price := it.PriceAt(tier)
		if price > p.Coins {
			continue
		}
		w := shopWeightBase / price
		if w < 1 {
			w = 1
		}
		entries = append(entries, weighted.Entry[ShopOffer]{
			Weight: w,
			Value:  ShopOffer{ItemID: it.ID, Name: it.Name, Price: price},
		})
	}
	return weighted.PickDistinct(m.rng, entries, shopSlots)
}

func (e *Engine) openShop(m *Match, p *models.Player, sp *catalog.Space) {
	tier := sp.ShopTier
	if tier < 1 {
		tier = 1
	}
	base := map[string]interface{}{
		"playerId": p.ID,
		"space":    sp.ID,
		"tier":     tier,
	}
	if len(p.Items) >= models.MaxItems {
		base["reason"] = "inventory_full"
		e.emit(m, p.ID, EventShopClosed, base)
		e.finishSpace(m)
		return
	}
	offers := e.shopOffers(m, p, tier)
	if len(offers) == 0 {
		base["reason"] = "nothing_affordable"
		e.emit(m, p.ID, EventShopClosed, base)
		e.finishSpace(m)
		return
	}

	sub := &SubEvent{Kind: SubEventShop, PlayerID: p.ID, Offers: offers, origin: PhaseSpaceEvent}
	m.Pending = sub
	base["offers"] = offers
	e.emit(m, p.ID, EventShopOpened, base)
	e.after(m, keyOffer, e.timings.OfferTimeout, func(m *Match) {
		if m.Pending != sub {
			return
		}
		_ = e.closeShop(m, sub.PlayerID, "timeout")
	})
}

func (e *Engine) pendingShop(m *Match, playerID uuid.UUID) (*SubEvent, error) {
	sub := m.Pending
	if sub == nil || sub.Kind != SubEventShop {
		return nil, ErrNoPendingOffer
	}
	if sub.PlayerID != playerID {
		return nil, ErrNotYourTurn
	}
	return sub, nil
}

func (e *Engine) buyItem(m *Match, playerID uuid.UUID, itemID string) error {
	sub, err := e.pendingShop(m, playerID)
	if err != nil {
		return err
	}
	p := m.player(playerID)
	var offer *ShopOffer
	for i := range sub.Offers {
		if sub.Offers[i].ItemID == itemID {
			offer = &sub.Offers[i]
			break
		}
	}
	if offer == nil {
		return ErrItemNotOffered
	}
	if p.Coins < offer.Price {
		return ErrInsufficientCoins
	}
	if !p.AddItem(offer.ItemID) {
		return ErrInventoryFull
	}
	p.AddCoins(-offer.Price)
	m.Pending = nil
	e.sched.Cancel(m.ID, keyOffer)
	e.emit(m, p.ID, EventShopPurchase, map[string]interface{}{
		"playerId": p.ID,
		"itemId":   offer.ItemID,
		"price":    offer.Price,
		"coins":    p.Coins,
	})
	e.finishSpace(m)
	return nil
}

func (e *Engine) closeShop(m *Match, playerID uuid.UUID, reason string) error {
	if _, err := e.pendingShop(m, playerID); err != nil {
		return err
	}
	m.Pending = nil
	e.sched.Cancel(m.ID, keyOffer)
	e.emit(m, playerID, EventShopClosed, map[string]interface{}{
		"playerId": playerID,
		"reason":   reason,
	})
	e.finishSpace(m)
	return nil
}
