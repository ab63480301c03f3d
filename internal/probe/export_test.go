package probe

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// CommandRunner exports commandRunner interface for testing.
type CommandRunner = commandRunner

// ParseParams exports parseParams for testing.
var ParseParams = parseParams

// ChannelCount exports channelCount for testing.
var ChannelCount = channelCount

// InputArg exports inputArg for testing.
var InputArg = inputArg
