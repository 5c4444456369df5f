package model

import "time"

// StageTickMsg advances the generation of attempt Attempt to Next.
type StageTickMsg struct {
	Attempt int
	Next    GenerationStage
}

// ResponseReadyMsg carries the responder result for attempt Attempt.
type ResponseReadyMsg struct {
	Attempt  int
	Response Response
	Err      error
	Elapsed  time.Duration
}

type HistorySavedMsg struct {
	Err error
}

type HistoryLoadedMsg struct {
	ConversationID string
	Messages       []Message
	Err            error
}

type HistoryDeletedMsg struct {
	ConversationID string
	Err            error
}
