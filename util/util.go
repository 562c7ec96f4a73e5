/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package util has a few small things shared by every other package,
// mostly the logging switch.
package util

import (
	"sync"

	"go.uber.org/zap"
)

// Logging is a clumsy switch that affects what Logf does.
//
// If Logging is true, then Logf writes to the shared logger at debug
// level.  Warnings and errors go through Logger() regardless.
var Logging = false

var (
	mu     sync.RWMutex
	logger = zap.NewNop().Sugar()
)

// Logger returns the shared logger.  Until SetLogger is called, the
// logger discards everything.
func Logger() *zap.SugaredLogger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	return l
}

// SetLogger replaces the shared logger.  A nil logger restores the
// no-op logger.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	if l == nil {
		logger = zap.NewNop().Sugar()
	} else {
		logger = l.Sugar()
	}
	mu.Unlock()
}

// NewLogger builds a production logger, or a development logger when
// verbose is true.  Verbose also turns on Logging.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		Logging = true
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Logf is a silly utility function that logs at debug level if
// Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	Logger().Debugf(format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) {
	Logger().Warnf(format, args...)
}
