package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/weighted"
)

func TestItemEffects(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))

	t.Run("coin thief takes what the victim has", func(t *testing.T) {
		env := newTestEnv(t, cat)
		seats := humanSeats(2)
		m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 10)}, func(m *Match) {
			m.Players[1].Coins = 7
			m.Players[0].AddItem("coin_thief")
		})

		require.NoError(t, env.engine.UseItem(m.ID, seats[0].ID, 0, ItemOptions{}))

		m.Mu.Lock()
		defer m.Mu.Unlock()
		assert.Equal(t, 17, m.Players[0].Coins)
		assert.Equal(t, 0, m.Players[1].Coins)
		assert.Equal(t, 1, m.Players[0].Stats.ItemsUsed)
		assert.Equal(t, PhaseDiceRoll, m.Phase)
		used := env.out.ofType(EventItemUsed)
		require.Len(t, used, 1)
		assert.Equal(t, 7, used[0].Payload["amount"])
		assert.Equal(t, seats[1].ID, used[0].Payload["victimId"])
	})

	t.Run("warp swap trades spaces", func(t *testing.T) {
		env := newTestEnv(t, cat)
		seats := humanSeats(2)
		m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 10)}, func(m *Match) {
			m.Players[0].Space = "r1"
			m.Players[1].Space = "r5"
			m.Players[0].AddItem("warp_swap")
		})

		require.NoError(t, env.engine.UseItem(m.ID, seats[0].ID, 0, ItemOptions{}))

		m.Mu.Lock()
		defer m.Mu.Unlock()
		assert.Equal(t, "r5", m.Players[0].Space)
		assert.Equal(t, "r1", m.Players[1].Space)
		assert.Equal(t, PhaseDiceRoll, m.Phase)
	})

	t.Run("star warp lands on the star and offers it", func(t *testing.T) {
		env := newTestEnv(t, cat)
		seats := humanSeats(2)
		m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 30)}, func(m *Match) {
			m.StarSpace = "r2"
			m.Players[0].AddItem("star_warp")
		})
		a := seats[0].ID

		require.NoError(t, env.engine.UseItem(m.ID, a, 0, ItemOptions{}))
		sub := state(m, func(m *Match) *SubEvent { return m.Pending })
		require.NotNil(t, sub)
		assert.Equal(t, SubEventStarOffer, sub.Kind)
		assert.Equal(t, "r2", state(m, func(m *Match) string { return m.Players[0].Space }))

		require.NoError(t, env.engine.BuyStar(m.ID, a))

		m.Mu.Lock()
		defer m.Mu.Unlock()
		assert.Equal(t, 1, m.Players[0].Stars)
		assert.Equal(t, 10, m.Players[0].Coins)
		assert.Equal(t, "r4", m.StarSpace)
		assert.Equal(t, PhaseDiceRoll, m.Phase)
	})

	t.Run("star warp without coins goes straight to the roll", func(t *testing.T) {
		env := newTestEnv(t, cat)
		seats := humanSeats(2)
		m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 5)}, func(m *Match) {
			m.StarSpace = "r4"
			m.Players[0].AddItem("star_warp")
		})

		require.NoError(t, env.engine.UseItem(m.ID, seats[0].ID, 0, ItemOptions{}))

		m.Mu.Lock()
		defer m.Mu.Unlock()
		assert.Nil(t, m.Pending)
		assert.Equal(t, "r4", m.Players[0].Space)
		assert.Equal(t, PhaseDiceRoll, m.Phase)
	})

	for _, tc := range []struct {
		name   string
		finale FinaleModifier
		factor int
	}{
		{"double dice multiplies the face", FinaleNone, 2},
		{"double dice stacks with the finale", FinaleDiceMultiplier, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, cat)
			seats := humanSeats(2)
			m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 0)}, func(m *Match) {
				m.Finale = tc.finale
				m.Players[0].AddItem("double_dice")
			})
			a := seats[0].ID

			require.NoError(t, env.engine.UseItem(m.ID, a, 0, ItemOptions{}))
			require.NoError(t, env.engine.Roll(m.ID, a))

			rolled := env.out.ofType(EventDiceRolled)
			require.Len(t, rolled, 1)
			face := rolled[0].Payload["face"].(int)
			assert.Equal(t, face*tc.factor, rolled[0].Payload["total"])
			m.Mu.Lock()
			defer m.Mu.Unlock()
			require.Len(t, m.History, 1)
			assert.Equal(t, face*tc.factor, m.History[0].Roll)
		})
	}
}

func TestRandomEvents(t *testing.T) {
	board := ringBoard("events", []int{1, 2}, catalog.SpaceStart, catalog.SpaceEvent, catalog.SpaceEvent, catalog.SpaceEvent, catalog.SpaceEvent)
	cat := testCatalog(t, board)
	env := newTestEnv(t, cat)

	fresh := func(t *testing.T, n int) *Match {
		m, err := env.engine.newMatch(models.MatchConfig{BoardID: "events", Seats: humanSeats(n), Settings: testSettings(10, 10)})
		require.NoError(t, err)
		return m
	}

	t.Run("gift pays everyone", func(t *testing.T) {
		m := fresh(t, 3)
		payload := map[string]interface{}{}
		env.engine.applyRandomEvent(m, m.Players[0], catalog.EventGiftAll, payload)
		for _, p := range m.Players {
			assert.Equal(t, 10+giftAllAmount, p.Coins)
		}
		assert.Equal(t, giftAllAmount, payload["amount"])
	})

	t.Run("steal is capped by the victim's balance", func(t *testing.T) {
		m := fresh(t, 2)
		m.Players[0].Coins = 0
		m.Players[1].Coins = 3
		payload := map[string]interface{}{}
		env.engine.applyRandomEvent(m, m.Players[0], catalog.EventSteal, payload)
		assert.Equal(t, 3, m.Players[0].Coins)
		assert.Equal(t, 0, m.Players[1].Coins)
		assert.Equal(t, 3, payload["amount"])
		assert.Equal(t, m.Players[1].ID, payload["victimId"])
	})

	t.Run("shuffle permutes positions", func(t *testing.T) {
		m := fresh(t, 3)
		want := []string{"r1", "r2", "r3"}
		for i, p := range m.Players {
			p.Space = want[i]
		}
		payload := map[string]interface{}{}
		env.engine.applyRandomEvent(m, m.Players[0], catalog.EventShuffle, payload)

		got := make([]string, len(m.Players))
		positions := payload["positions"].(map[string]string)
		for i, p := range m.Players {
			got[i] = p.Space
			assert.Equal(t, p.Space, positions[p.ID.String()])
		}
		assert.ElementsMatch(t, want, got)
	})

	t.Run("teleport never picks the start", func(t *testing.T) {
		m := fresh(t, 2)
		p := m.Players[0]
		seen := map[string]bool{}
		for i := 0; i < 200; i++ {
			payload := map[string]interface{}{}
			env.engine.applyRandomEvent(m, p, catalog.EventTeleport, payload)
			assert.NotEqual(t, "r0", p.Space)
			assert.Equal(t, p.Space, payload["to"])
			seen[p.Space] = true
		}
		assert.Len(t, seen, 4)
	})
}

func TestEventSpaceResolvesConfiguredEvent(t *testing.T) {
	board := ringBoard("gifts", []int{1, 2}, repeat(catalog.SpaceEvent, 6)...)
	for _, sp := range board.Spaces {
		sp.Events = []catalog.RandomEvent{catalog.EventGiftAll}
	}
	cat := testCatalog(t, board)
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	m := env.start(t, models.MatchConfig{BoardID: "gifts", Seats: seats, Settings: testSettings(10, 10)}, nil)

	require.NoError(t, env.engine.Roll(m.ID, seats[0].ID))

	m.Mu.Lock()
	defer m.Mu.Unlock()
	events := env.out.ofType(EventRandomEvent)
	require.Len(t, events, 1)
	assert.Equal(t, catalog.EventGiftAll, events[0].Payload["event"])
	for _, p := range m.Players {
		assert.Equal(t, 10+giftAllAmount, p.Coins)
	}
	assert.Equal(t, 1, m.Players[0].Stats.Landings["event"])
	assert.Equal(t, seats[1].ID, m.current().ID)
}

func TestVersusFollowUpMinigame(t *testing.T) {
	cat := testCatalog(t, ringBoard("versus", []int{2, 4}, repeat(catalog.SpaceVersus, 6)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	id, err := env.engine.StartMatch(models.MatchConfig{BoardID: "versus", Seats: seats, Settings: testSettings(2, 10)})
	require.NoError(t, err)
	m, _ := env.engine.Matches().Get(id)
	a, b := seats[0].ID, seats[1].ID

	require.NoError(t, env.engine.Roll(id, a))
	require.NoError(t, env.engine.Roll(id, b))
	assert.True(t, state(m, func(m *Match) bool { return m.Versus }))
	assert.Len(t, env.out.ofType(EventVersusQueued), 2)

	require.True(t, env.sched.Fire(id, keyIntro))
	require.NoError(t, env.engine.SubmitScore(id, a, 1))
	require.NoError(t, env.engine.SubmitScore(id, b, 2))
	require.True(t, env.sched.Fire(id, keyResults))

	s := state(m, func(m *Match) *MinigameSession { return m.Minigame })
	require.NotNil(t, s)
	assert.True(t, s.Versus)
	assert.Equal(t, ModeFFA, s.Mode)
	assert.Equal(t, versusReward, s.Reward)
	assert.Equal(t, PhaseMinigameIntro, state(m, func(m *Match) Phase { return m.Phase }))
	assert.Equal(t, 1, state(m, func(m *Match) int { return m.Turn }))

	require.True(t, env.sched.Fire(id, keyIntro))
	require.NoError(t, env.engine.SubmitScore(id, a, 1))
	require.NoError(t, env.engine.SubmitScore(id, b, 2))
	require.True(t, env.sched.Fire(id, keyResults))

	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.Equal(t, 2, m.Turn)
	assert.Equal(t, PhaseDiceRoll, m.Phase)
	assert.False(t, m.Versus)
	assert.Len(t, env.out.ofType(EventMinigameIntro), 2)
	assert.Equal(t, 10, m.Players[0].Coins)
	assert.Equal(t, 10+minigameReward+versusReward, m.Players[1].Coins)
}

func TestFinaleIsDrawnOnce(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(6, 0)}, func(m *Match) {
		m.StarPrice = 1000
	})

	playRound := func() {
		for _, s := range seats {
			require.NoError(t, env.engine.Roll(m.ID, s.ID))
		}
		require.True(t, env.sched.Fire(m.ID, keyIntro))
		for _, s := range seats {
			require.NoError(t, env.engine.SubmitScore(m.ID, s.ID, 1))
		}
		require.True(t, env.sched.Fire(m.ID, keyResults))
	}

	playRound()
	drawn := state(m, func(m *Match) FinaleModifier { return m.Finale })
	assert.Equal(t, 2, state(m, func(m *Match) int { return m.Turn }))
	assert.NotEqual(t, FinaleNone, drawn)
	announced := env.out.ofType(EventFinaleModifier)
	require.Len(t, announced, 1)
	assert.Equal(t, drawn, announced[0].Payload["modifier"])
	assert.Equal(t, finaleWindow, announced[0].Payload["turnsLeft"])

	playRound()
	playRound()

	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.Equal(t, 4, m.Turn)
	m.Turn = 2
	env.engine.maybeDrawFinale(m)
	assert.Equal(t, drawn, m.Finale)
	assert.Len(t, env.out.ofType(EventFinaleModifier), 1)
}

func TestOutcomeTablesApplyTheirRows(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)

	tables := map[catalog.SpaceType][]TableEntry{
		catalog.SpaceFortune:   fortuneTable,
		catalog.SpaceHazard:    hazardTable,
		catalog.SpaceEncounter: encounterTable,
	}
	for typ, rows := range tables {
		t.Run(string(typ), func(t *testing.T) {
			m, err := env.engine.newMatch(models.MatchConfig{BoardID: "gain", Seats: humanSeats(3), Settings: testSettings(10, 0)})
			require.NoError(t, err)
			p := m.Players[0]
			byName := map[string]TableEntry{}
			total := 0
			for _, r := range rows {
				byName[r.Name] = r
				total += r.Weight
			}

			const draws = 4000
			counts := map[string]int{}
			for i := 0; i < draws; i++ {
				for _, pl := range m.Players {
					pl.Coins, pl.Stars, pl.Space = 50, 2, "r3"
					pl.Items = pl.Items[:0]
				}
				payload := map[string]interface{}{}
				env.engine.drawOutcome(m, p, typ, payload)
				name, _ := payload["outcome"].(string)
				row, ok := byName[name]
				require.True(t, ok, "unknown outcome %q", name)
				counts[name]++

				switch v := row.Outcome.(type) {
				case CoinDelta:
					assert.Equal(t, 50+v.Amount, p.Coins, name)
				case StarDelta:
					assert.Equal(t, 2+v.Amount, p.Stars, name)
				case StealCoins:
					assert.Equal(t, 50+v.Amount, p.Coins, name)
				case GrantItem:
					assert.Len(t, p.Items, 1, name)
				case Revolution:
					assert.Equal(t, 50, p.Coins, name)
				case TeleportToStart:
					assert.Equal(t, m.Board.Start, p.Space, name)
				}
			}

			for _, r := range rows {
				want := float64(r.Weight) / float64(total)
				got := float64(counts[r.Name]) / draws
				assert.LessOrEqual(t, math.Abs(got-want), 0.03, "%s: got %.3f want %.3f", r.Name, got, want)
			}
		})
	}
}

func TestFortuneBoostDoublesFavourableRows(t *testing.T) {
	plain := outcomeTable(catalog.SpaceFortune, FinaleNone)
	boosted := outcomeTable(catalog.SpaceFortune, FinaleFortuneBoost)
	require.Len(t, boosted, len(fortuneTable))
	for i, r := range fortuneTable {
		want := r.Weight
		if favourable(r.Outcome) {
			want *= 2
		}
		assert.Equal(t, r.Weight, plain[i].Weight, r.Name)
		assert.Equal(t, want, boosted[i].Weight, r.Name)
	}
	assert.Equal(t, weighted.Total(outcomeTable(catalog.SpaceHazard, FinaleNone)),
		weighted.Total(outcomeTable(catalog.SpaceHazard, FinaleFortuneBoost)), "hazards are not boosted")
	assert.Nil(t, outcomeTable(catalog.SpaceGain, FinaleNone))
}

func TestFinaleConvertsSpaces(t *testing.T) {
	m := &Match{}
	assert.Equal(t, catalog.SpaceLoss, effectiveType(m, catalog.SpaceLoss))
	m.Finale = FinaleLossToGain
	assert.Equal(t, catalog.SpaceGain, effectiveType(m, catalog.SpaceLoss))
	m.Finale = FinaleEncounters
	assert.Equal(t, catalog.SpaceEncounter, effectiveType(m, catalog.SpaceEvent))
	assert.Equal(t, catalog.SpaceHazard, effectiveType(m, catalog.SpaceHazard))
}
