// Package network implements the peer synchronization protocol. Peers
// hold persistent websocket connections, push their full chain on
// connect and after mining, and share transactions as they arrive.
package network

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hashvale/ledger/foundation/ledger/database"
	"github.com/hashvale/ledger/foundation/ledger/peer"
)

// EventHandler defines a function that is called when events occur in
// the processing of peer messages.
type EventHandler func(v string, args ...any)

// Ledger interface represents the ledger operations the synchronizer
// feeds with peer state.
type Ledger interface {
	Chain() []database.Block
	ReplaceChain(candidate []database.Block) error
	SubmitNodeTransaction(tx database.Tx) error
}

// =============================================================================

// conn represents one peer connection and its lifecycle status.
type conn struct {
	host    string
	ws      *websocket.Conn
	writeMu sync.Mutex

	status peer.Status
}

// write sends one frame on the connection. Writes are serialized per
// connection since broadcasts and the accept path can overlap.
func (c *conn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// =============================================================================

// Synchronizer maintains the set of live peer connections and moves
// chain and transaction state between the ledger and the network.
type Synchronizer struct {
	ledger    Ledger
	host      string
	evHandler EventHandler

	mu    sync.RWMutex
	conns map[string]*conn
}

// NewSynchronizer constructs a synchronizer for the specified ledger.
func NewSynchronizer(ledger Ledger, host string, evHandler EventHandler) *Synchronizer {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Synchronizer{
		ledger:    ledger,
		host:      host,
		evHandler: ev,
		conns:     make(map[string]*conn),
	}
}

// Shutdown closes every peer connection.
func (s *Synchronizer) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for host, c := range s.conns {
		c.status = peer.StatusDisconnected
		c.ws.Close()
		delete(s.conns, host)
	}
}

// =============================================================================

// Connect dials the peer endpoint of the specified host and runs the
// connection in its own goroutine. On success the current chain is sent
// to the new peer before anything else.
func (s *Synchronizer) Connect(pr peer.Peer) error {
	s.evHandler("network: Connect: dialing peer[%s]", pr.Host)

	c := conn{host: pr.Host, status: peer.StatusConnecting}

	u := url.URL{Scheme: "ws", Host: pr.Host, Path: "/v1/peer"}
	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		c.status = peer.StatusDisconnected
		return fmt.Errorf("dialing peer %s: %w", pr.Host, err)
	}
	c.ws = ws

	s.register(&c)

	go s.runConn(&c)

	return nil
}

// HandleConn runs an inbound peer connection accepted by the hosting
// HTTP layer. The call blocks until the peer disconnects.
func (s *Synchronizer) HandleConn(ws *websocket.Conn) {
	c := conn{
		host:   ws.RemoteAddr().String(),
		ws:     ws,
		status: peer.StatusConnecting,
	}

	s.register(&c)
	s.runConn(&c)
}

// ConnectedPeers returns the hosts of the currently connected peers.
func (s *Synchronizer) ConnectedPeers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hosts := make([]string, 0, len(s.conns))
	for host := range s.conns {
		hosts = append(hosts, host)
	}

	return hosts
}

// =============================================================================

// BroadcastChain sends the full current chain to every connected peer.
// A failure to reach one peer never prevents sending to the others, and
// no acknowledgement is awaited.
func (s *Synchronizer) BroadcastChain() {
	data, err := EncodeChain(s.ledger.Chain())
	if err != nil {
		s.evHandler("network: BroadcastChain: ERROR: %s", err)
		return
	}

	for _, c := range s.connected() {
		if err := c.write(data); err != nil {
			s.evHandler("network: BroadcastChain: peer[%s]: WARNING: %s", c.host, err)
		}
	}
}

// BroadcastTransaction sends the transaction to every connected peer
// with the same isolation guarantee as BroadcastChain.
func (s *Synchronizer) BroadcastTransaction(tx database.Tx) {
	data, err := EncodeTransaction(tx)
	if err != nil {
		s.evHandler("network: BroadcastTransaction: ERROR: %s", err)
		return
	}

	for _, c := range s.connected() {
		if err := c.write(data); err != nil {
			s.evHandler("network: BroadcastTransaction: peer[%s]: WARNING: %s", c.host, err)
		}
	}
}

// =============================================================================

// runConn completes the connection handshake by pushing the current
// chain and then consumes inbound messages until the peer goes away.
func (s *Synchronizer) runConn(c *conn) {
	defer s.drop(c)

	data, err := EncodeChain(s.ledger.Chain())
	if err != nil {
		s.evHandler("network: runConn: peer[%s]: ERROR: %s", c.host, err)
		return
	}
	if err := c.write(data); err != nil {
		s.evHandler("network: runConn: peer[%s]: send chain: WARNING: %s", c.host, err)
		return
	}

	s.evHandler("network: runConn: peer[%s]: connected", c.host)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			s.evHandler("network: runConn: peer[%s]: disconnected: %s", c.host, err)
			return
		}

		s.dispatch(c, data)
	}
}

// dispatch decodes one inbound message and feeds it to the ledger.
// Malformed or rejected payloads are dropped locally, the peer is never
// answered.
func (s *Synchronizer) dispatch(c *conn, data []byte) {
	msg, err := DecodeMessage(data)
	if err != nil {
		s.evHandler("network: dispatch: peer[%s]: dropped message: %s", c.host, err)
		return
	}

	switch msg.Type {
	case TypeChain:
		if err := s.ledger.ReplaceChain(msg.Chain); err != nil {
			s.evHandler("network: dispatch: peer[%s]: chain rejected: %s", c.host, err)
		}

	case TypeTransaction:
		if err := s.ledger.SubmitNodeTransaction(msg.Transaction); err != nil {
			s.evHandler("network: dispatch: peer[%s]: transaction dropped: %s", c.host, err)
		}
	}
}

// register moves the connection to the connected status and adds it to
// the live set.
func (s *Synchronizer) register(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.status = peer.StatusConnected
	s.conns[c.host] = c
}

// drop closes the connection and removes it from the live set. There is
// no reconnect.
func (s *Synchronizer) drop(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.status = peer.StatusDisconnected
	c.ws.Close()
	delete(s.conns, c.host)
}

// connected returns a snapshot of the live connections.
func (s *Synchronizer) connected() []*conn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}

	return conns
}
