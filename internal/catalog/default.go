package catalog

import "fmt"

var letterTypes = map[byte]SpaceType{
	'S': SpaceStart,
	'g': SpaceGain,
	'l': SpaceLoss,
	'e': SpaceEvent,
	's': SpaceShop,
	'T': SpaceShop, // tier 2
	'U': SpaceShop, // tier 3
	'v': SpaceVersus,
	'f': SpaceFortune,
	'h': SpaceHazard,
	'o': SpaceEncounter,
}

var letterTiers = map[byte]int{'s': 1, 'T': 2, 'U': 3}

// detour is a side path leaving the main loop at from and rejoining it at to.
type detour struct {
	from, to int
	pattern  string
	stars    []int
}

// loopBoard builds a board from a one-letter-per-space pattern. The first space is the start.
func loopBoard(id, name, pattern string, stars []int, detours ...detour) *Board {
	n := len(pattern)
	key := func(i int) string { return fmt.Sprintf("%s-%d", id, i) }

	spaces := make([]*Space, 0, n)
	for i := 0; i < n; i++ {
		spaces = append(spaces, &Space{
			ID:       key(i),
			Type:     letterTypes[pattern[i]],
			ShopTier: letterTiers[pattern[i]],
			Next:     []string{key((i + 1) % n)},
		})
	}
	for _, i := range stars {
		spaces[i].StarEligible = true
	}

	for di, d := range detours {
		ids := make([]string, len(d.pattern))
		for j := range d.pattern {
			ids[j] = fmt.Sprintf("%s-b%d-%d", id, di, j)
		}
		spaces[d.from].Next = append(spaces[d.from].Next, ids[0])
		for j := range d.pattern {
			next := key(d.to)
			if j+1 < len(ids) {
				next = ids[j+1]
			}
			spaces = append(spaces, &Space{
				ID:       ids[j],
				Type:     letterTypes[d.pattern[j]],
				ShopTier: letterTiers[d.pattern[j]],
				Next:     []string{next},
			})
		}
		for _, j := range d.stars {
			spaces[n+detourOffset(detours, di)+j].StarEligible = true
		}
	}
	return &Board{ID: id, Name: name, Start: key(0), Spaces: spaces}
}

func detourOffset(detours []detour, upto int) int {
	off := 0
	for i := 0; i < upto; i++ {
		off += len(detours[i].pattern)
	}
	return off
}

// DefaultContent is the built-in content used when no catalog file is configured.
func DefaultContent() Content {
	return Content{
		Boards: []*Board{
			loopBoard("sunny_meadow", "Sunny Meadow",
				"Sggegsgfgvglggoghgegsglg", []int{4, 9, 13, 19, 22},
				detour{from: 6, to: 12, pattern: "gfTg", stars: []int{2}}),
			loopBoard("haunted_manor", "Haunted Manor",
				"Sglhgegsgoglhgfgvgeglsgh", []int{3, 8, 14, 20},
				detour{from: 5, to: 11, pattern: "hgoU"},
				detour{from: 15, to: 21, pattern: "ggl", stars: []int{1}}),
			loopBoard("volcano_isle", "Volcano Isle",
				"Sghglegsgfhgvgloghegsglh", []int{4, 10, 16, 22},
				detour{from: 2, to: 8, pattern: "ohT"}),
			loopBoard("candy_coast", "Candy Coast",
				"Sgggeggsgfggvgegogggsgge", []int{5, 11, 18, 21},
				detour{from: 9, to: 15, pattern: "gfgg"}),
			loopBoard("sky_temple", "Sky Temple",
				"Sgfgegsgoggvglgfgegsgogg", []int{3, 7, 15, 21},
				detour{from: 4, to: 10, pattern: "ggU"},
				detour{from: 16, to: 22, pattern: "hog", stars: []int{0}}),
		},
		Items: []*Item{
			{ID: "double_dice", Name: "Double Dice", Price: 10, MinTier: 1, Effect: DiceMultiplier{Factor: 2}},
			{ID: "custom_dice", Name: "Custom Dice", Price: 12, MinTier: 1, Effect: DiceChoice{}},
			{ID: "warp_swap", Name: "Warp Swap", Price: 10, MinTier: 1, Effect: PositionSwap{}},
			{ID: "star_coupon", Name: "Star Coupon", Price: 8, MinTier: 1, Effect: StarDiscount{Amount: 10}},
			{ID: "coin_thief", Name: "Coin Thief", Price: 15, MinTier: 2, Effect: CoinSteal{Amount: 10}},
			{ID: "duel_glove", Name: "Duel Glove", Price: 12, MinTier: 2, Effect: DuelStart{Stake: 20}},
			{ID: "triple_dice", Name: "Triple Dice", Price: 20, MinTier: 3, Effect: DiceMultiplier{Factor: 3}},
			{ID: "star_warp", Name: "Star Warp", Price: 30, MinTier: 3, Effect: StarTeleport{}},
		},
		Minigames: []*Minigame{
			{ID: "hot_potato", Name: "Hot Potato", Kind: KindFFA, DurationSec: 30},
			{ID: "coin_rush", Name: "Coin Rush", Kind: KindFFA, DurationSec: 30},
			{ID: "slippery_summit", Name: "Slippery Summit", Kind: KindFFA, DurationSec: 45},
			{ID: "tug_of_war", Name: "Tug of War", Kind: KindTeam, DurationSec: 30},
			{ID: "bridge_builders", Name: "Bridge Builders", Kind: KindTeam, DurationSec: 45},
			{ID: "quick_draw", Name: "Quick Draw", Kind: KindDuel, DurationSec: 15},
			{ID: "sumo_ring", Name: "Sumo Ring", Kind: KindDuel, DurationSec: 20},
		},
		Characters: []*Character{
			{ID: "jojo", Name: "Jojo"},
			{ID: "pip", Name: "Pip"},
			{ID: "marlo", Name: "Marlo"},
			{ID: "sunny", Name: "Sunny"},
			{ID: "bolt", Name: "Bolt"},
			{ID: "fern", Name: "Fern"},
			{ID: "koda", Name: "Koda", Price: 200},
			{ID: "ruby", Name: "Ruby", Price: 350},
		},
	}
}

// Default returns the built-in catalog. It panics if the built-in content is invalid.
func Default() *Catalog {
	c, err := New(DefaultContent())
	if err != nil {
		panic(err)
	}
	return c
}
