// Package providers holds dataengine.Provider implementations.
// WebsocketProvider covers any venue whose feed emits {symbol, price} JSON
// frames: it owns the connect/ping-loop/read-loop/reconnect machinery,
// buffering each frame as a generic tick until the engine's next Poll.
package providers

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/quantframe/pkg/dataengine"
	"github.com/web3guy0/quantframe/pkg/decimal"
)

const (
	reconnectDelay = 5 * time.Second
	pingInterval   = 30 * time.Second
	maxBuffered    = 10000
)

// wireMessage is the generic {symbol, price} frame this provider expects.
type wireMessage struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
	Size   string `json:"size"`
}

// WebsocketProvider implements dataengine.Provider over a single JSON
// websocket feed.
type WebsocketProvider struct {
	mu sync.Mutex

	name      string
	url       string
	conn      *websocket.Conn
	connected bool
	running   bool
	stopCh    chan struct{}

	subscribed []string
	buffer     []dataengine.Tick
}

// NewWebsocketProvider creates a provider named name, dialing url on
// Connect.
func NewWebsocketProvider(name, url string) *WebsocketProvider {
	return &WebsocketProvider{name: name, url: url}
}

func (p *WebsocketProvider) Name() string { return p.name }

// IsConnected reports whether the underlying websocket is up.
func (p *WebsocketProvider) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Connect starts the reconnect loop in the background. The first dial
// happens on the loop goroutine, so a venue being down does not block the
// engine's startup.
func (p *WebsocketProvider) Connect() error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	go p.connectionLoop()
	log.Info().Str("provider", p.name).Msg("websocket data provider started")
	return nil
}

// Disconnect closes the connection and unblocks the connection loop.
func (p *WebsocketProvider) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
	if p.conn != nil {
		p.conn.Close()
	}
	p.connected = false
}

// Subscribe sends a subscribe frame for symbol, queuing it if not yet
// connected so it is replayed on the next connect. The kind is accepted for
// interface completeness; this feed multiplexes everything onto one stream.
func (p *WebsocketProvider) Subscribe(symbol string, _ dataengine.Kind) error {
	p.mu.Lock()
	p.subscribed = append(p.subscribed, symbol)
	conn := p.conn
	p.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.WriteJSON(map[string]any{"type": "subscribe", "symbol": symbol})
}

// Unsubscribe sends an unsubscribe frame and forgets the symbol.
func (p *WebsocketProvider) Unsubscribe(symbol string) error {
	p.mu.Lock()
	kept := p.subscribed[:0]
	for _, s := range p.subscribed {
		if s != symbol {
			kept = append(kept, s)
		}
	}
	p.subscribed = kept
	conn := p.conn
	p.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.WriteJSON(map[string]any{"type": "unsubscribe", "symbol": symbol})
}

// Poll hands over everything buffered since the last call.
func (p *WebsocketProvider) Poll() []dataengine.Tick {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.buffer
	p.buffer = nil
	return out
}

func (p *WebsocketProvider) connectionLoop() {
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		if err := p.connect(); err != nil {
			log.Error().Err(err).Str("provider", p.name).Msg("connection failed, retrying")
			time.Sleep(reconnectDelay)
			continue
		}

		p.readLoop()
		time.Sleep(reconnectDelay)
	}
}

func (p *WebsocketProvider) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(p.url, nil)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.conn = conn
	p.connected = true
	subs := append([]string(nil), p.subscribed...)
	p.mu.Unlock()

	for _, s := range subs {
		_ = conn.WriteJSON(map[string]any{"type": "subscribe", "symbol": s})
	}

	go p.pingLoop()
	return nil
}

func (p *WebsocketProvider) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.mu.Lock()
			conn, connected := p.conn, p.connected
			p.mu.Unlock()
			if connected && conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

func (p *WebsocketProvider) readLoop() {
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		p.mu.Lock()
		conn := p.conn
		p.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Warn().Err(err).Str("provider", p.name).Msg("read error")
			p.mu.Lock()
			p.connected = false
			p.mu.Unlock()
			return
		}

		p.handle(data)
	}
}

func (p *WebsocketProvider) handle(data []byte) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	price, err := decimal.Parse(msg.Price)
	if err != nil {
		return
	}
	size := decimal.Zero
	if msg.Size != "" {
		if s, err := decimal.Parse(msg.Size); err == nil {
			size = s
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buffer) >= maxBuffered {
		log.Warn().Str("provider", p.name).Msg("tick buffer full, dropping update")
		return
	}
	p.buffer = append(p.buffer, dataengine.Tick{Symbol: msg.Symbol, Price: price, Size: size, Timestamp: time.Now()})
}

var _ dataengine.Provider = (*WebsocketProvider)(nil)
