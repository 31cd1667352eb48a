package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/catalog"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

func TestPhaseSuccessors(t *testing.T) {
	assert.True(t, canAdvance("", PhaseTurnStart))
	assert.True(t, canAdvance(PhaseTurnEnd, PhaseMinigameIntro))
	assert.True(t, canAdvance(PhaseMinigameResults, PhaseGameEnd))
	assert.False(t, canAdvance(PhaseTurnStart, PhaseDiceRoll))
	assert.False(t, canAdvance(PhaseGameEnd, PhaseTurnStart))
	assert.False(t, canAdvance(PhaseMoving, PhaseTurnEnd))
}

func TestRoundOfGainSpaces(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(4)

	id, err := env.engine.StartMatch(models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(1, 10)})
	require.NoError(t, err)
	m, ok := env.engine.Matches().Get(id)
	require.True(t, ok)

	for _, s := range seats {
		assert.Equal(t, PhaseDiceRoll, state(m, func(m *Match) Phase { return m.Phase }), "empty inventories skip the item phase")
		require.NoError(t, env.engine.Roll(id, s.ID))
	}

	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.Equal(t, PhaseMinigameIntro, m.Phase)
	for _, p := range m.Players {
		assert.Equal(t, 13, p.Coins, p.Name)
		assert.Equal(t, 1, p.Stats.Landings["gain"])
	}
	assert.Len(t, m.History, 4)
	assert.True(t, env.sched.Has(m.ID, keyIntro))
}

func TestLossSpaceClampsAtZero(t *testing.T) {
	cat := testCatalog(t, ringBoard("loss", []int{1, 2}, repeat(catalog.SpaceLoss, 5)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	m := env.start(t, models.MatchConfig{BoardID: "loss", Seats: seats, Settings: testSettings(10, 2)}, nil)

	require.NoError(t, env.engine.Roll(m.ID, seats[0].ID))

	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.Equal(t, 0, m.Players[0].Coins)
	require.Len(t, m.History, 1)
	assert.Equal(t, -2, m.History[0].CoinDelta)
	assert.Equal(t, seats[1].ID, m.current().ID)
}

func TestOutOfTurnActionsAreRejected(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 10)}, nil)
	a, b := seats[0].ID, seats[1].ID

	before, err := env.engine.Snapshot(m.ID, a)
	require.NoError(t, err)

	assert.ErrorIs(t, env.engine.Roll(m.ID, b), ErrNotYourTurn)
	assert.ErrorIs(t, env.engine.Move(m.ID, a, "r1"), ErrWrongPhase)
	assert.ErrorIs(t, env.engine.SkipItem(m.ID, a), ErrWrongPhase)
	assert.ErrorIs(t, env.engine.BuyStar(m.ID, a), ErrNoPendingOffer)
	assert.ErrorIs(t, env.engine.BuyItem(m.ID, a, "double_dice"), ErrNoPendingOffer)
	assert.ErrorIs(t, env.engine.SubmitScore(m.ID, a, 10), ErrNoMinigame)
	assert.ErrorIs(t, env.engine.Roll(m.ID, uuid.New()), ErrNotInMatch)
	assert.ErrorIs(t, env.engine.Roll(uuid.New(), a), ErrMatchNotFound)

	after, err := env.engine.Snapshot(m.ID, a)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCustomDicePassesAndBuysStar(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{2, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 30)}, func(m *Match) {
		m.StarSpace = "r2"
		m.Players[0].AddItem("custom_dice")
	})
	a := seats[0].ID

	assert.Equal(t, PhaseItemUse, state(m, func(m *Match) Phase { return m.Phase }))
	assert.ErrorIs(t, env.engine.UseItem(m.ID, a, 0, ItemOptions{DiceValue: 11}), ErrInvalidDice)
	require.NoError(t, env.engine.UseItem(m.ID, a, 0, ItemOptions{DiceValue: 3}))
	require.NoError(t, env.engine.Roll(m.ID, a))

	sub := state(m, func(m *Match) *SubEvent { return m.Pending })
	require.NotNil(t, sub)
	assert.Equal(t, SubEventStarOffer, sub.Kind)
	assert.Equal(t, 20, sub.Price)
	assert.Equal(t, "r2", state(m, func(m *Match) string { return m.Players[0].Space }))
	assert.ErrorIs(t, env.engine.Roll(m.ID, a), ErrWrongPhase)

	require.NoError(t, env.engine.BuyStar(m.ID, a))

	m.Mu.Lock()
	defer m.Mu.Unlock()
	p := m.Players[0]
	assert.Equal(t, 1, p.Stars)
	assert.Equal(t, 30-20+3, p.Coins)
	assert.Equal(t, "r3", p.Space)
	assert.Empty(t, p.Items)
	assert.Equal(t, "r4", m.StarSpace, "the star leaves for the only other eligible space")
	assert.Nil(t, m.Pending)
	assert.Equal(t, seats[1].ID, m.current().ID)
	assert.False(t, env.sched.Has(m.ID, keyOffer))
}

func TestStarOfferTimesOut(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{1, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 30)}, func(m *Match) {
		m.StarSpace = "r1"
		m.Players[0].AddItem("custom_dice")
	})

	require.NoError(t, env.engine.UseItem(m.ID, seats[0].ID, 0, ItemOptions{DiceValue: 2}))
	require.NoError(t, env.engine.Roll(m.ID, seats[0].ID))
	require.True(t, env.sched.Fire(m.ID, keyOffer))

	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.Equal(t, 0, m.Players[0].Stars)
	assert.Equal(t, 33, m.Players[0].Coins)
	assert.Equal(t, "r1", m.StarSpace)
	assert.Len(t, env.out.ofType(EventStarDeclined), 1)
}

func TestUnaffordableStarIsNotOffered(t *testing.T) {
	cat := testCatalog(t, ringBoard("gain", []int{1, 4}, repeat(catalog.SpaceGain, 6)...))
	env := newTestEnv(t, cat)
	seats := humanSeats(2)
	m := env.start(t, models.MatchConfig{BoardID: "gain", Seats: seats, Settings: testSettings(10, 5)}, func(m *Match) {
		m.StarSpace = "r1"
		m.Players[0].AddItem("custom_dice")
	})

	require.NoError(t, env.engine.UseItem(m.ID, seats[0].ID, 0, ItemOptions{DiceValue: 2}))
	require.NoError(t, env.engine.Roll(m.ID, seats[0].ID))

	m.Mu.Lock()
	defer m.Mu.Unlock()
	assert.Nil(t, m.Pending)
	assert.Equal(t, "r2", m.Players[0].Space)
	declined := env.out.ofType(EventStarDeclined)
	require.Len(t, declined, 1)
	assert.Equal(t, "insufficient_coins", declined[0].Payload["reason"])
}

func TestStarPriceModifiers(t *testing.T) {
	m := &Match{StarPrice: baseStarPrice}
	assert.Equal(t, 20, m.starPriceWith(0))
	assert.Equal(t, 10, m.starPriceWith(10))
	m.Finale = FinaleStarDiscount
	assert.Equal(t, 10, m.starPriceWith(0))
	assert.Equal(t, minStarPrice, m.starPriceWith(10))
}
