package domain

// Bus actions handled by a tab's automation controller.
const (
	ActionStart               = "start"
	ActionStop                = "stop"
	ActionSetSpeed            = "setSpeed"
	ActionGetCurrentTimestamp = "getCurrentTimestamp"
	ActionJumpToTimestamp     = "jumpToTimestamp"
)

// Bus actions handled by the background coordinator.
const (
	ActionVideoCompleted     = "videoCompleted"
	ActionGetSettings        = "getSettings"
	ActionUpdateSettings     = "updateSettings"
	ActionLogActivity        = "logActivity"
	ActionGetActivity        = "getActivity"
	ActionGetStats           = "getStats"
	ActionGetSummary         = "getSummary"
	ActionGetRecentSummaries = "getRecentSummaries"
	ActionSearchSummaries    = "searchSummaries"
	ActionSaveNote           = "saveNote"
	ActionGetNotes           = "getNotes"
	ActionUpdateNote         = "updateNote"
	ActionDeleteNote         = "deleteNote"
	ActionSearchNotes        = "searchNotes"
	ActionGetNoteStatistics  = "getNoteStatistics"
	ActionExportNotes        = "exportNotes"
	ActionCommand            = "command"
	ActionGetPendingNote     = "getPendingNote"
)

// Notifications. updateProgress and notice travel from controllers to the
// background and on to surfaces; the rest go to surfaces only.
const (
	ActionUpdateProgress = "updateProgress"
	ActionNotice         = "notice"
	ActionStatsUpdated   = "statsUpdated"
	ActionNoteAdded      = "noteAdded"
	ActionNoteDeleted    = "noteDeleted"
	ActionOpenNoteEntry  = "openNoteEntry"
)

// Keyboard commands accepted by the command action.
const (
	CommandToggleAutomation = "toggle-automation"
	CommandTakeNote         = "take-note"
)
