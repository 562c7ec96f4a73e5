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

// Package sio sends a crew's transition events out of the process.
package sio

import (
	"context"
	"errors"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/crew"
)

// Sink receives a run's transition events.
//
// A Sink is a crew.Emitter.
type Sink interface {
	Emit(ctx context.Context, e *crew.Event) error

	// Close releases the Sink's connections.
	Close() error
}

// Multi sends each event to all of its Sinks in order.
type Multi []Sink

func (ss Multi) Emit(ctx context.Context, e *crew.Event) error {
	for _, s := range ss {
		if err := s.Emit(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all of the Sinks and returns their errors joined.
func (ss Multi) Close() error {
	var errs []error
	for _, s := range ss {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
