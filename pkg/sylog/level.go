// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package sylog

// messageLevel indicates the level of a given message
type messageLevel int

const (
	FatalLevel   messageLevel = iota - 4
	ErrorLevel                // -3
	WarnLevel                 // -2
	LogLevel                  // -1
	InfoLevel                 // 0, default level
	VerboseLevel              // 1
	DebugLevel                // 2
)

func (l messageLevel) String() string {
	switch l {
	case FatalLevel:
		return "FATAL"
	case ErrorLevel:
		return "ERROR"
	case WarnLevel:
		return "WARNING"
	case LogLevel:
		return "LOG"
	case InfoLevel:
		return "INFO"
	case VerboseLevel:
		return "VERBOSE"
	case DebugLevel:
		return "DEBUG"
	}
	return "?"
}
