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

package segment

import (
	"io"

	"go.uber.org/zap"

	"github.com/srediag/shmseg/internal/logging"
)

// Logger receives human-readable diagnostics naming the segment and the
// step involved. It never influences control flow or results.
//
// *zap.SugaredLogger satisfies Logger.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// NewStdLogger returns the built-in leveled logger writing to w (os.Stdout
// when nil). Its level defaults to Warn and follows SHMSEG_LOG_LEVEL.
func NewStdLogger(w io.Writer) Logger {
	return logging.New("shmseg", w)
}

// NewZapLogger adapts a zap logger.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l.Sugar()
}
