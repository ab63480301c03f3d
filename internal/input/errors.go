package input

import "errors"

// ErrInputNotFound indicates the input path does not exist.
var ErrInputNotFound = errors.New("input not found")

// ErrUnsupportedFileType indicates a file whose extension is not a known audio type.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// ErrNoAudioFiles indicates a directory with no known audio files in it.
var ErrNoAudioFiles = errors.New("no audio files in directory")
