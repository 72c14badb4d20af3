// Package dlg maps between the binary container form of a conversation
// file and the in-memory dialog graph. The container stores nodes in flat
// lists and edges as numeric indices; the graph stores direct references.
// FromContainer resolves indices to references once at load; ToContainer
// recomputes every index from current list positions at save.
package dlg

// FileType is the 4-character container tag for conversation files.
const FileType = "DLG "

// RootStructType marks the top-level struct, following the toolset
// convention. Structs inside a list are typed by their position.
const RootStructType = 0xFFFFFFFF

// Dialog-level labels.
const (
	labelDelayEntry   = "DelayEntry"
	labelDelayReply   = "DelayReply"
	labelNumWords     = "NumWords"
	labelEndScript    = "EndConversation"
	labelAbortScript  = "EndConverAbort"
	labelPreventZoom  = "PreventZoomIn"
	labelEntryList    = "EntryList"
	labelReplyList    = "ReplyList"
	labelStartingList = "StartingList"
)

// Node labels. RepliesList appears under entries, EntriesList under
// replies; the alternation is structural in the file format.
const (
	labelSpeaker      = "Speaker"
	labelAnimation    = "Animation"
	labelAnimLoop     = "AnimLoop"
	labelText         = "Text"
	labelScript       = "Script"
	labelActionParams = "ActionParams"
	labelDelay        = "Delay"
	labelComment      = "Comment"
	labelSound        = "Sound"
	labelQuest        = "Quest"
	labelQuestEntry   = "QuestEntry"
	labelRepliesList  = "RepliesList"
	labelEntriesList  = "EntriesList"
)

// Pointer labels. IsChild set means the edge is a back-reference into
// structure defined elsewhere, not a tree-defining edge.
const (
	labelActive          = "Active"
	labelConditionParams = "ConditionParams"
	labelIndex           = "Index"
	labelIsChild         = "IsChild"
	labelLinkComment     = "LinkComment"
)

// Script parameter pair labels.
const (
	labelParamKey   = "Key"
	labelParamValue = "Value"
)
