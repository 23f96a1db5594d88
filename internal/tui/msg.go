package tui

import (
	"github.com/papapumpkin/palimpsest/internal/reader"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// MsgComputed carries a finished node computation back to the model, which
// commits it if it is still current.
type MsgComputed struct {
	Result reader.Result
}

// MsgNodeState is sent after an operation that commits synchronously, such
// as refresh, retry or engagement.
type MsgNodeState struct {
	State reader.NodeState
	Err   error
}

// MsgStoryChanged is sent when a file in the story directory changes.
type MsgStoryChanged struct {
	Change story.Change
}

// MsgStoryReloaded is sent after the story directory was reparsed.
type MsgStoryReloaded struct {
	State reader.NodeState
	Err   error
}
