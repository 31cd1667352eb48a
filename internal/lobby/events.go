package lobby

// Outbound lobby event types.
const (
	EventLobbyState       = "lobby_state"
	EventMemberJoined     = "member_joined"
	EventMemberLeft       = "member_left"
	EventHostChanged      = "host_changed"
	EventBotAdded         = "bot_added"
	EventBotRemoved       = "bot_removed"
	EventBotUpdated       = "bot_updated"
	EventSettingsUpdated  = "settings_updated"
	EventReadyChanged     = "ready_changed"
	EventCharacterChanged = "character_changed"
	EventChat             = "lobby_chat"
	EventVotingStarted    = "voting_started"
	EventVoteCast         = "vote_cast"
	EventTutorialVote     = "tutorial_vote"
	EventBoardResolved    = "board_resolved"
	EventMatchStarting    = "match_starting"
	EventStartFailed      = "start_failed"
	EventFinished         = "lobby_finished"
	EventLobbyClosed      = "lobby_closed"
)
