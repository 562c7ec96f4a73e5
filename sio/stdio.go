/* Copyright 2019 Comcast Cable Communications Management, LLC
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

package sio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/crew"
)

// Stdio is a fairly simple Sink that writes each event as a line of
// JSON.
type Stdio struct {
	// Out defaults to os.Stdout.
	Out io.Writer

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// Tags prefixes each line with the event's condition.
	Tags bool

	// PadTags adds some padding to tags.
	PadTags bool

	sync.Mutex
}

// NewStdio creates a new Stdio that writes to os.Stdout.
func NewStdio() *Stdio {
	return &Stdio{
		Out: os.Stdout,
	}
}

func (s *Stdio) printf(tag, format string, args ...interface{}) {
	if s.PadTags {
		tag = fmt.Sprintf("% 10s", tag)
	}
	if s.Tags {
		format = tag + " " + format
	}
	if s.Timestamps {
		ts := fmt.Sprintf("%-31s", time.Now().UTC().Format(time.RFC3339Nano))
		format = ts + " " + format
	}

	fmt.Fprintf(s.Out, format, args...)
}

func (s *Stdio) Emit(ctx context.Context, e *crew.Event) error {
	js, err := json.Marshal(e)
	if err != nil {
		return err
	}
	s.Lock()
	s.printf(e.Cond, "%s\n", js)
	s.Unlock()
	return nil
}

// Close does nothing.
func (s *Stdio) Close() error {
	return nil
}
