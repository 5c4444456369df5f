package ui

import (
	"chatinput/model"
)

type Message = model.Message

// Message type aliases - these are defined in the model package
type stageTickMsg = model.StageTickMsg
type responseReadyMsg = model.ResponseReadyMsg
type historySavedMsg = model.HistorySavedMsg
type historyLoadedMsg = model.HistoryLoadedMsg
type historyDeletedMsg = model.HistoryDeletedMsg

// copiedResetMsg clears the "copied" flag of message ID. Seq guards against
// a reset from an earlier copy clearing a later one.
type copiedResetMsg struct {
	ID  string
	Seq int
}

type toastExpiredMsg struct {
	Seq int
}
