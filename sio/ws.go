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
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/crew"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

// WebSocket is a Sink that sends each event as a JSON text message to
// a WebSocket server.
type WebSocket struct {
	URL string

	sync.Mutex
	conn *websocket.Conn
}

func NewWebSocket(u string) *WebSocket {
	return &WebSocket{
		URL: u,
	}
}

// Start creates the WebSocket session.
func (c *WebSocket) Start(ctx context.Context) error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return err
	}

	util.Logf("wsconnect %s", u)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *WebSocket) Emit(ctx context.Context, e *crew.Event) error {
	js, err := json.Marshal(e)
	if err != nil {
		return err
	}
	c.Lock()
	defer c.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, js)
}

// Close says goodbye to the server and closes the connection.
func (c *WebSocket) Close() error {
	c.Lock()
	defer c.Unlock()
	if c.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		util.Warnf("WebSocket close: %s", err)
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
