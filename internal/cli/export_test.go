package cli

// Export internal functions for testing.

// RunConvert exports runConvert for testing.
var RunConvert = runConvert

// RunProbe exports runProbe for testing.
var RunProbe = runProbe

// RunChaptersList exports runChaptersList for testing.
var RunChaptersList = runChaptersList

// RunChaptersValidate exports runChaptersValidate for testing.
var RunChaptersValidate = runChaptersValidate

// RunChaptersShift exports runChaptersShift for testing.
var RunChaptersShift = runChaptersShift

// RunLocate exports runLocate for testing.
var RunLocate = runLocate

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// ParseBitrate exports parseBitrate for testing.
var ParseBitrate = parseBitrate

// ResolveStart exports resolveStart for testing.
var ResolveStart = resolveStart

// LockOutput exports lockOutput for testing.
var LockOutput = lockOutput

// ConvertOptions exports convertOptions for testing.
type ConvertOptions = convertOptions

// ChapterSource exports chapterSource for testing.
type ChapterSource = chapterSource
