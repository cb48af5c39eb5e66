/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logging holds the leveled diagnostic logger used by shmseg and an
// in-memory recorder for the same calls.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"
)

// EnvLevel selects the default level, by name (trace, debug, info, warn,
// error, none) or by number (0 for trace through 5 for none).
const EnvLevel = "SHMSEG_LOG_LEVEL"

const (
	LevelTrace = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelNoPrint
)

var (
	magenta = string([]byte{27, 91, 57, 53, 109}) // Trace
	green   = string([]byte{27, 91, 57, 50, 109}) // Debug
	blue    = string([]byte{27, 91, 57, 52, 109}) // Info
	yellow  = string([]byte{27, 91, 57, 51, 109}) // Warn
	red     = string([]byte{27, 91, 57, 49, 109}) // Error
	reset   = string([]byte{27, 91, 48, 109})

	colors = []string{
		magenta,
		green,
		blue,
		yellow,
		red,
	}

	levelName = []string{
		"Trace",
		"Debug",
		"Info",
		"Warn",
		"Error",
	}

	defaultLevel = LevelWarn
)

func init() {
	if l, ok := ParseLevel(os.Getenv(EnvLevel)); ok {
		defaultLevel = l
	}
}

// ParseLevel accepts a level name or number.
func ParseLevel(s string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "none", "off":
		return LevelNoPrint, true
	}
	if n, err := strconv.Atoi(s); err == nil && n >= LevelTrace && n <= LevelNoPrint {
		return n, true
	}
	return 0, false
}

// Logger writes colored, caller-annotated lines to out.
type Logger struct {
	name      string
	out       io.Writer
	callDepth int
	level     atomic.Int32
	color     bool
}

// New returns a Logger at the process default level. A nil out means
// os.Stdout.
func New(name string, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	l := &Logger{
		name:      name,
		out:       out,
		callDepth: 4,
		color:     true,
	}
	l.level.Store(int32(defaultLevel))
	return l
}

// SetLevel changes the level; values above LevelNoPrint are ignored.
func (l *Logger) SetLevel(level int) {
	if level >= LevelTrace && level <= LevelNoPrint {
		l.level.Store(int32(level))
	}
}

// Level returns the current level.
func (l *Logger) Level() int {
	return int(l.level.Load())
}

// DisableColor drops the ANSI escapes, for output that is not a terminal.
func (l *Logger) DisableColor() *Logger {
	l.color = false
	return l
}

func (l *Logger) Errorf(format string, a ...any) { l.logf(LevelError, format, a...) }
func (l *Logger) Warnf(format string, a ...any)  { l.logf(LevelWarn, format, a...) }
func (l *Logger) Infof(format string, a ...any)  { l.logf(LevelInfo, format, a...) }
func (l *Logger) Debugf(format string, a ...any) { l.logf(LevelDebug, format, a...) }
func (l *Logger) Tracef(format string, a ...any) { l.logf(LevelTrace, format, a...) }

func (l *Logger) logf(level int, format string, a ...any) {
	if int(l.level.Load()) > level {
		return
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	l.writePrefix(buf, level)
	_, _ = fmt.Fprintf(buf, format, a...)
	if l.color {
		_, _ = buf.WriteString(reset)
	}
	_ = buf.WriteByte('\n')
	if _, err := l.out.Write(buf.B); err != nil {
		fmt.Fprintf(os.Stderr, "logger write failed: %v\n", err)
	}
}

func (l *Logger) writePrefix(buf *bytebufferpool.ByteBuffer, level int) {
	if l.color {
		_, _ = buf.WriteString(colors[level])
	}
	_, _ = buf.WriteString(levelName[level])
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(time.Now().Format("2006-01-02 15:04:05.999999"))
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(l.location())
	_ = buf.WriteByte(' ')
	if l.name != "" {
		_, _ = buf.WriteString(l.name)
		_ = buf.WriteByte(' ')
	}
}

func (l *Logger) location() string {
	_, file, line, ok := runtime.Caller(l.callDepth)
	if !ok {
		file = "???"
		line = 0
	}
	file = filepath.Base(file)
	return file + ":" + strconv.Itoa(line)
}
