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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jsccast/yaml"
	"github.com/spf13/cobra"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/crew"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/sio"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/storage"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/storage/bolt"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/storage/sqlite"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/tools/expect"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

type runOptions struct {
	run    string
	days   int
	seed   int64
	shards int
	limit  int

	bolt   string
	sqlite string

	quiet      bool
	timestamps bool
	state      string

	ws   string
	mqtt sio.MQTTOptions
}

func newRunCmd(o *options) *cobra.Command {
	ro := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the model over its population",
		Long: `Runs the model and writes each transition as a line of JSON.
Transitions can also go to an MQTT broker or a WebSocket server, and
each day's transitions can be stored in a bbolt or SQLite database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return ro.exec(ctx, o, cmd)
		},
	}
	f := cmd.Flags()
	f.StringVar(&ro.run, "run", "run", "run id")
	f.IntVar(&ro.days, "days", 0, "days to run (default is the model's)")
	f.Int64Var(&ro.seed, "seed", 0, "random seed (default is the model's)")
	f.IntVar(&ro.shards, "shards", 1, "goroutines deciding transitions")
	f.IntVar(&ro.limit, "limit", crew.DefaultLimit, "rounds per hour and set_state depth")
	f.StringVar(&ro.bolt, "bolt", "", "bbolt database filename")
	f.StringVar(&ro.sqlite, "sqlite", "", "SQLite database filename")
	f.BoolVar(&ro.quiet, "quiet", false, "don't write transitions to stdout")
	f.BoolVar(&ro.timestamps, "timestamps", false, "timestamp each line of output")
	f.StringVar(&ro.state, "state", "", "filename for the final machine state as JSON")
	f.StringVar(&ro.ws, "ws", "", "WebSocket URL for transitions")
	f.StringVar(&ro.mqtt.Broker, "mqtt", "", "MQTT broker URL for transitions")
	f.StringVar(&ro.mqtt.Topic, "mqtt-topic", "fred", "MQTT topic prefix with optional :QOS")
	f.StringVar(&ro.mqtt.ClientId, "mqtt-client", "fredrules", "MQTT client id")
	f.StringVar(&ro.mqtt.UserName, "mqtt-user", "", "MQTT user name")
	f.StringVar(&ro.mqtt.Password, "mqtt-password", "", "MQTT password")
	f.BoolVar(&ro.mqtt.Insecure, "mqtt-insecure", false, "skip TLS verification")
	f.BoolVar(&ro.mqtt.Retain, "mqtt-retain", false, "retain published transitions")
	f.DurationVar(&ro.mqtt.KeepAlive, "mqtt-keepalive", 30*time.Second, "MQTT keep-alive")
	f.DurationVar(&ro.mqtt.PubTimeout, "mqtt-timeout", 10*time.Second, "MQTT publish timeout")
	return cmd
}

func (ro *runOptions) storage() (storage.Storage, error) {
	switch {
	case ro.bolt != "" && ro.sqlite != "":
		return nil, errors.New("use --bolt or --sqlite but not both")
	case ro.bolt != "":
		return bolt.NewStorage(ro.bolt)
	case ro.sqlite != "":
		return sqlite.NewStorage(ro.sqlite)
	}
	return &storage.NoopStorage{}, nil
}

func (ro *runOptions) sinks(ctx context.Context, cmd *cobra.Command) (sio.Multi, error) {
	var ss sio.Multi
	if !ro.quiet {
		s := sio.NewStdio()
		s.Out = cmd.OutOrStdout()
		s.Timestamps = ro.timestamps
		ss = append(ss, s)
	}
	if ro.mqtt.Broker != "" {
		m := sio.NewMQTT(&ro.mqtt)
		if err := m.Start(ctx); err != nil {
			return nil, errors.Join(err, ss.Close())
		}
		ss = append(ss, m)
	}
	if ro.ws != "" {
		w := sio.NewWebSocket(ro.ws)
		if err := w.Start(ctx); err != nil {
			return nil, errors.Join(err, ss.Close())
		}
		ss = append(ss, w)
	}
	return ss, nil
}

func (ro *runOptions) exec(ctx context.Context, o *options, cmd *cobra.Command) (err error) {
	p, err := o.load(ctx, true)
	if err != nil {
		return err
	}
	w, err := p.World()
	if err != nil {
		return err
	}

	seed, days := ro.seed, ro.days
	if seed == 0 {
		seed = p.Model.Seed
	}
	if days <= 0 {
		days = p.Model.Days
	}

	st, err := ro.storage()
	if err != nil {
		return err
	}
	if err := st.Open(ctx); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, st.Close(context.Background()))
	}()

	sinks, err := ro.sinks(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, sinks.Close())
	}()

	c := crew.New(ro.run, p, w, seed)
	c.Shards = ro.shards
	c.Limit = ro.limit
	c.Storage = st
	c.Emitter = sinks

	if err := c.Init(ctx); err != nil {
		return err
	}
	util.Logger().Infof("run %s: %s for %d days with seed %d", ro.run, p.Model.Name, days, seed)
	if err := c.Run(ctx, days); err != nil {
		return err
	}

	for _, h := range p.Histories {
		util.Logger().Infof("run %s: %s census %v", ro.run, h.Name, c.Census(h.Cond))
	}

	if ro.state != "" {
		js := sio.NewJSONStore()
		js.StateOutputFilename = ro.state
		js.Update(c)
		if err := js.WriteState(ctx); err != nil {
			return err
		}
	}
	return nil
}

func newExpectCmd(o *options) *cobra.Command {
	var shards int
	cmd := &cobra.Command{
		Use:   "expect SESSION",
		Short: "Run the model against a session of expectations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.load(cmd.Context(), true)
			if err != nil {
				return err
			}
			bs, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var s *expect.Session
			if err := yaml.Unmarshal(bs, &s); err != nil {
				return err
			}
			if 0 < shards {
				s.Shards = shards
			}
			if err := s.Run(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d steps passed\n", len(s.Steps))
			return nil
		},
	}
	cmd.Flags().IntVar(&shards, "shards", 0, "goroutines deciding transitions")
	return cmd
}
