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
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/crew"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

// MQTTOptions follow mosquitto_pub's command line args where they
// can.
type MQTTOptions struct {
	Broker    string
	ClientId  string
	UserName  string
	Password  string
	KeepAlive time.Duration
	Reconnect bool
	Clean     bool
	Insecure  bool

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint

	// Topic is the prefix of every topic, optionally with a QoS
	// as in "fred/runs:1".
	Topic string

	Retain bool

	// PubTimeout bounds the wait for each publish.
	PubTimeout time.Duration
}

// MQTT is a Sink that publishes each event as JSON to
// PREFIX/RUN/CONDITION.
type MQTT struct {
	Client     mqtt.Client
	Prefix     string
	QoS        byte
	Retain     bool
	Quiesce    uint
	PubTimeout time.Duration
}

// NewMQTT makes the client but doesn't connect.  See Start.
func NewMQTT(o *MQTTOptions) *MQTT {
	mqtt.ERROR = zap.NewStdLog(util.Logger().Desugar())

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientId)
	if 0 < o.KeepAlive {
		opts.SetKeepAlive(o.KeepAlive)
	}
	opts.SetUsername(o.UserName)
	opts.SetPassword(o.Password)
	opts.SetAutoReconnect(o.Reconnect)
	opts.SetCleanSession(o.Clean)
	opts.SetTLSConfig(&tls.Config{
		InsecureSkipVerify: o.Insecure,
	})
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		util.Warnf("MQTT connection lost: %s", err)
	}

	prefix, qos := parseTopic(o.Topic)
	if prefix == "" {
		prefix = "fred"
	}
	timeout := o.PubTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &MQTT{
		Client:     mqtt.NewClient(opts),
		Prefix:     prefix,
		QoS:        qos,
		Retain:     o.Retain,
		Quiesce:    o.Quiesce,
		PubTimeout: timeout,
	}
}

// Start creates the MQTT session.
func (m *MQTT) Start(ctx context.Context) error {
	util.Logf("Attempting to connect to broker")
	if token := m.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	util.Logf("Connected to broker")
	return nil
}

// Topic is the topic for the event.
func (m *MQTT) Topic(e *crew.Event) string {
	return m.Prefix + "/" + e.Run + "/" + e.Cond
}

func (m *MQTT) Emit(ctx context.Context, e *crew.Event) error {
	js, err := json.Marshal(e)
	if err != nil {
		return err
	}
	token := m.Client.Publish(m.Topic(e), m.QoS, m.Retain, js)
	if !token.WaitTimeout(m.PubTimeout) {
		return fmt.Errorf("publish to %s timed out", m.Topic(e))
	}
	return token.Error()
}

// Close terminates the MQTT session.
func (m *MQTT) Close() error {
	util.Logf("Disconnecting")
	if m.Client.IsConnected() {
		m.Client.Disconnect(m.Quiesce)
	}
	return nil
}
