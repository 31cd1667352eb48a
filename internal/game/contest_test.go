package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

func TestDuelStakeIsCappedAndConserved(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 30)}, func(m *Match) {
		m.Players[0].Coins = 15
		m.Players[0].AddItem("duel_glove")
	})
	a, b := seats[0].ID, seats[1].ID

	require.NoError(t, env.engine.UseItem(m.ID, a, 0, ItemOptions{Target: b}))
	d := state(m, func(m *Match) *Duel { return m.Duel })
	require.NotNil(t, d)
	assert.Equal(t, 15, d.Stake)
	assert.ErrorIs(t, env.engine.SkipItem(m.ID, a), ErrDuelPending)

	require.NoError(t, env.engine.SubmitScore(m.ID, a, 5))
	require.NoError(t, env.engine.SubmitScore(m.ID, b, 9))

	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.Nil(t, m.Duel)
	assert.Equal(t, 0, m.Players[0].Coins)
	assert.Equal(t, 45, m.Players[1].Coins)
	assert.Equal(t, 45, m.Players[0].Coins+m.Players[1].Coins)
	assert.Equal(t, 1, m.Players[1].Stats.MinigamesWon)
	assert.Equal(t, PhaseDiceRoll, m.Phase)
	resolved := env.out.ofType(EventDuelResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, b, resolved[0].Payload["winnerId"])
}

func TestDuelAgainstBotResolvesOnOneScore(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	seats[1].IsBot = true
	seats[1].Difficulty = models.DifficultyEasy
	m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 30)}, func(m *Match) {
		m.Players[0].AddItem("duel_glove")
	})

	require.NoError(t, env.engine.UseItem(m.ID, seats[0].ID, 0, ItemOptions{}))
	require.NoError(t, env.engine.SubmitScore(m.ID, seats[0].ID, 50))

	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.Nil(t, m.Duel)
	assert.Equal(t, 60, m.Players[0].Coins+m.Players[1].Coins)
	assert.GreaterOrEqual(t, m.Players[0].Coins, 0)
	assert.GreaterOrEqual(t, m.Players[1].Coins, 0)
	assert.Equal(t, PhaseDiceRoll, m.Phase)
}

func TestShopPurchase(t *testing.T) {
	cat := testCatalog(t, ringBoard("shops", []int{1, 2}, repeat(catalog.SpaceShop, 5)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	m := env.start(t, models.MatchConfig{BoardID: "shops", Seats: seats, Settings: testSettings(10, 19)}, nil)
	a := seats[0].ID

	require.NoError(t, env.engine.Roll(m.ID, a))
	sub := state(m, func(m *Match) *SubEvent { return m.Pending })
	require.NotNil(t, sub)
	assert.Equal(t, SubEventShop, sub.Kind)
	assert.Len(t, sub.Offers, shopSlots)
	for _, o := range sub.Offers {
		it, err := cat.Item(o.ItemID)
		require.NoError(t, err)
		assert.Equal(t, 1, it.MinTier)
	}

	assert.ErrorIs(t, env.engine.BuyItem(m.ID, a, "star_warp"), ErrItemNotOffered)
	assert.ErrorIs(t, env.engine.BuyItem(m.ID, seats[1].ID, sub.Offers[0].ItemID), ErrNotYourTurn)
	require.NoError(t, env.engine.BuyItem(m.ID, a, sub.Offers[0].ItemID))

	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.Equal(t, []string{sub.Offers[0].ItemID}, m.Players[0].Items)
	assert.Equal(t, 19-sub.Offers[0].Price, m.Players[0].Coins)
	assert.Nil(t, m.Pending)
	assert.Equal(t, seats[1].ID, m.current().ID)
}

func TestShopClosesOnTimeoutAndFullInventory(t *testing.T) {
	cat := testCatalog(t, ringBoard("shops", []int{1, 2}, repeat(catalog.SpaceShop, 5)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	m := env.start(t, models.MatchConfig{BoardID: "shops", Seats: seats, Settings: testSettings(10, 19)}, func(m *Match) {
		for _, id := range []string{"double_dice", "warp_swap", "custom_dice"} {
			m.Players[1].AddItem(id)
		}
	})

	require.NoError(t, env.engine.Roll(m.ID, seats[0].ID))
	require.True(t, env.sched.Fire(m.ID, keyOffer))
	assert.Equal(t, seats[1].ID, state(m, func(m *Match) uuid.UUID { return m.current().ID }))

	require.NoError(t, env.engine.SkipItem(m.ID, seats[1].ID))
	require.NoError(t, env.engine.Roll(m.ID, seats[1].ID))

	closed := env.out.ofType(EventShopClosed)
	require.Len(t, closed, 2)
	assert.Equal(t, "timeout", closed[0].Payload["reason"])
	assert.Equal(t, "inventory_full", closed[1].Payload["reason"])
	assert.Equal(t, PhaseMinigameIntro, state(m, func(m *Match) Phase { return m.Phase }))
}

func TestGrantItemRespectsInventoryLimit(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	m, err := env.engine.newMatch(models.MatchConfig{BoardID: "gain", Seats: humanSeats(2), Settings: testSettings(10, 10)})
	require.NoError(t, err)
	p := m.Players[0]

	for i := 0; i < models.MaxItems+2; i++ {
		payload := map[string]interface{}{}
		env.engine.applyOutcome(m, p, GrantItem{}, payload)
		if i >= models.MaxItems {
			assert.Equal(t, "inventory_full", payload["reason"])
		}
		assert.LessOrEqual(t, len(p.Items), models.MaxItems)
	}
	assert.Len(t, p.Items, models.MaxItems)
}

func TestRevolutionSplitsEvenly(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	m, err := env.engine.newMatch(models.MatchConfig{BoardID: "gain", Seats: humanSeats(3), Settings: testSettings(10, 0)})
	require.NoError(t, err)
	m.Players[0].Coins = 10
	m.Players[1].Coins = 0
	m.Players[2].Coins = 21

	payload := map[string]interface{}{}
	env.engine.applyOutcome(m, m.Players[1], Revolution{}, payload)
	for _, p := range m.Players {
		assert.Equal(t, 10, p.Coins)
	}
	assert.Equal(t, 10, payload["share"])
}

func TestEncounterReveal(t *testing.T) {
	cat := testCatalog(t, ringBoard("spin", []int{1, 2}, repeat(catalog.SpaceEncounter, 5)...))

	t.Run("reveal finishes the turn", func(t *testing.T) {
		env := newTestEnv(t, cat)
		seats := humanSeats(2)
		m := env.start(t, models.MatchConfig{BoardID: "spin", Seats: seats, Settings: testSettings(10, 10)}, nil)

		require.NoError(t, env.engine.Roll(m.ID, seats[0].ID))
		assert.Equal(t, PhaseSpaceEvent, state(m, func(m *Match) Phase { return m.Phase }))
		require.True(t, env.sched.Fire(m.ID, keyEncounter))

		assert.Len(t, env.out.ofType(EventOutcome), 1)
		assert.Equal(t, seats[1].ID, state(m, func(m *Match) uuid.UUID { return m.current().ID }))
	})

	t.Run("stale reveal after removal is dropped", func(t *testing.T) {
		env := newTestEnv(t, cat)
		seats := humanSeats(2)
		m := env.start(t, models.MatchConfig{BoardID: "spin", Seats: seats, Settings: testSettings(10, 10)}, nil)

		require.NoError(t, env.engine.Roll(m.ID, seats[0].ID))
		before := state(m, func(m *Match) models.Player { return m.Players[0].Clone() })
		require.True(t, env.engine.Matches().Delete(m.ID))
		require.True(t, env.sched.Fire(m.ID, keyEncounter))

		m.Mu.Lock()
		defer m.Mu.Unlock()
		assert.Equal(t, PhaseSpaceEvent, m.Phase)
		assert.Equal(t, before, m.Players[0].Clone())
		assert.Empty(t, env.out.ofType(EventOutcome))
	})
}

func TestMinigameWinners(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	game := &catalog.Minigame{ID: "race", Kind: catalog.KindFFA}

	s := newSession(ModeFFA, game, []uuid.UUID{a, b, c}, nil, 10)
	assert.Empty(t, s.winners(), "nobody wins without input")
	s.submit(a, 5, testNow)
	s.submit(b, 7, testNow)
	s.submit(c, 7, testNow)
	assert.ElementsMatch(t, []uuid.UUID{b, c}, s.winners())
	s.submit(a, 9, testNow)
	assert.Equal(t, []uuid.UUID{a}, s.winners(), "later scores replace earlier ones")

	team := newSession(ModeTeam, game, []uuid.UUID{a, b, c, d}, [][]uuid.UUID{{a, b}, {c, d}}, 10)
	team.submit(a, 3, testNow)
	team.submit(b, 3, testNow)
	team.submit(c, 1, testNow)
	team.submit(d, 5, testNow)
	assert.Empty(t, team.winners(), "level teams share nothing")
	team.submit(d, 6, testNow)
	assert.ElementsMatch(t, []uuid.UUID{c, d}, team.winners())
}

func TestSilentParticipantsNeverWin(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	game := &catalog.Minigame{ID: "race", Kind: catalog.KindFFA}

	s := newSession(ModeFFA, game, []uuid.UUID{a, b, c}, nil, 10)
	s.submit(a, -5, testNow)
	s.submit(b, -3, testNow)
	assert.Equal(t, []uuid.UUID{b}, s.winners())

	team := newSession(ModeTeam, game, []uuid.UUID{a, b, c, d}, [][]uuid.UUID{{a, b}, {c, d}}, 10)
	team.submit(a, -2, testNow)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, team.winners(), "a team with no submissions loses")
	team.submit(c, -1, testNow)
	assert.ElementsMatch(t, []uuid.UUID{c, d}, team.winners(), "silent members add nothing")
}

func TestMinigameCeilingIgnoresSilentPlayers(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(3)
	id, err := env.engine.StartMatch(models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(2, 10)})
	require.NoError(t, err)
	m, _ := env.engine.Matches().Get(id)

	for _, s := range seats {
		require.NoError(t, env.engine.Roll(id, s.ID))
	}
	require.True(t, env.sched.Fire(id, keyIntro))
	require.NoError(t, env.engine.SubmitScore(id, seats[0].ID, -5))
	require.NoError(t, env.engine.SubmitScore(id, seats[1].ID, -3))
	require.True(t, env.sched.Fire(id, keyMinigame))

	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.Equal(t, PhaseMinigameResults, m.Phase)
	assert.Equal(t, []uuid.UUID{seats[1].ID}, m.Minigame.Winners)
	assert.Equal(t, 13+minigameReward, m.Players[1].Coins)
	assert.Equal(t, 13, m.Players[2].Coins)
	assert.Equal(t, 0, m.Players[2].Stats.MinigamesWon)
	assert.Equal(t, 1, m.Players[2].Stats.MinigamesPlayed)
}

func TestDuelCeilingIgnoresSilentPlayer(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))

	run := func(t *testing.T, submitter int) *Match {
		env := newTestEnv(t, cat)
		seats := humanSeats(2)
		m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 30)}, func(m *Match) {
			m.Players[0].Coins = 15
			m.Players[0].AddItem("duel_glove")
		})
		require.NoError(t, env.engine.UseItem(m.ID, seats[0].ID, 0, ItemOptions{Target: seats[1].ID}))
		require.NoError(t, env.engine.SubmitScore(m.ID, seats[submitter].ID, -4))
		require.True(t, env.sched.Fire(m.ID, keyDuel))
		return m
	}

	t.Run("silent target loses to a negative challenger", func(t *testing.T) {
		m := run(t, 0)
		m.Mu.Lock()
		defer m.Mu.Unlock()
		assert.Nil(t, m.Duel)
		assert.Equal(t, 30, m.Players[0].Coins)
		assert.Equal(t, 15, m.Players[1].Coins)
		assert.Equal(t, PhaseDiceRoll, m.Phase)
	})

	t.Run("silent challenger loses to a negative target", func(t *testing.T) {
		m := run(t, 1)
		m.Mu.Lock()
		defer m.Mu.Unlock()
		assert.Equal(t, 0, m.Players[0].Coins)
		assert.Equal(t, 45, m.Players[1].Coins)
		assert.Equal(t, 1, m.Players[1].Stats.MinigamesWon)
	})
}

func TestClassifyTeams(t *testing.T) {
	mk := func(landed ...catalog.SpaceType) *Match {
		m := &Match{rng: rand.New(rand.NewSource(1))}
		for i, l := range landed {
			p := models.NewPlayer(uuid.New(), "p", i)
			p.LastLanded = string(l)
			m.Players = append(m.Players, p)
		}
		return m
	}

	mode, _, _ := classify(mk(catalog.SpaceGain, catalog.SpaceGain, catalog.SpaceShop, catalog.SpaceEvent))
	assert.Equal(t, ModeFFA, mode)

	mode, teams, oneVsMany := classify(mk(catalog.SpaceLoss, catalog.SpaceHazard, catalog.SpaceGain, catalog.SpaceShop))
	assert.Equal(t, ModeTeam, mode)
	assert.Len(t, teams, 2)
	assert.False(t, oneVsMany)

	mode, teams, oneVsMany = classify(mk(catalog.SpaceLoss, catalog.SpaceGain, catalog.SpaceGain))
	assert.Equal(t, ModeTeam, mode)
	assert.Len(t, teams[0], 1)
	assert.True(t, oneVsMany)

	mode, _, _ = classify(mk(catalog.SpaceLoss, catalog.SpaceLoss, catalog.SpaceGain, catalog.SpaceGain, catalog.SpaceGain))
	assert.Equal(t, ModeFFA, mode)
}

func TestMinigameRoundPaysWinner(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	id, err := env.engine.StartMatch(models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(2, 10)})
	require.NoError(t, err)
	m, _ := env.engine.Matches().Get(id)

	require.NoError(t, env.engine.Roll(id, seats[0].ID))
	require.NoError(t, env.engine.Roll(id, seats[1].ID))
	require.True(t, env.sched.Fire(id, keyIntro))
	assert.Equal(t, PhaseMinigame, state(m, func(m *Match) Phase { return m.Phase }))

	assert.ErrorIs(t, env.engine.SubmitScore(id, uuid.New(), 1), ErrNotInMatch)
	require.NoError(t, env.engine.SubmitScore(id, seats[0].ID, 3))
	require.NoError(t, env.engine.SubmitScore(id, seats[1].ID, 8))
	assert.Equal(t, PhaseMinigameResults, state(m, func(m *Match) Phase { return m.Phase }))

	require.True(t, env.sched.Fire(id, keyResults))
	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.Equal(t, 2, m.Turn)
	assert.Equal(t, PhaseDiceRoll, m.Phase)
	assert.Equal(t, 13, m.Players[0].Coins)
	assert.Equal(t, 13+minigameReward, m.Players[1].Coins)
	assert.Equal(t, 1, m.Players[0].Stats.MinigamesPlayed)
}
