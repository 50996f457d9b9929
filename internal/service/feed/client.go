package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"CarbonDesk/internal/domain/models"
	drepo "CarbonDesk/internal/domain/repository"
	applogger "CarbonDesk/pkg/logger"
)

// Client streams registry price updates over a WebSocket.
//
// Frames:
//
//	-> {"type":"subscribe","asset_id":"mangrove"}
//	<- {"type":"sample","data":[{"asset_id":"mangrove","ts":1704067200000,"price":21.4,"volume":1200}]}
type Client struct {
	url            string
	token          string
	assets         []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	bufferSize     int
	l              *applogger.Logger

	mu        sync.Mutex // guards conn and writes
	conn      *websocket.Conn
	connected bool
}

type Option func(*Client)

func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func WithReconnectDelay(d time.Duration) Option {
	return func(c *Client) { c.reconnectDelay = d }
}

func WithPingInterval(d time.Duration) Option {
	return func(c *Client) { c.pingInterval = d }
}

func WithBufferSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

func New(url string, assets []string, opts ...Option) *Client {
	c := &Client{
		url:            url,
		assets:         assets,
		reconnectDelay: 5 * time.Second,
		pingInterval:   30 * time.Second,
		bufferSize:     1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

func (c *Client) Connect(ctx context.Context) error {
	hdr := http.Header{}
	if c.token != "" {
		hdr.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, hdr)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	if c.l != nil {
		c.l.Info("feed connected", applogger.String("url", c.url))
	}
	return nil
}

func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return errors.New("feed not connected")
	}
	for _, a := range c.assets {
		if err := c.conn.WriteJSON(map[string]string{"type": "subscribe", "asset_id": a}); err != nil {
			return fmt.Errorf("subscribe %s: %w", a, err)
		}
	}
	if c.l != nil {
		c.l.Info("feed subscribed", applogger.Strings("assets", c.assets))
	}
	return nil
}

type wireSample struct {
	AssetID string  `json:"asset_id"`
	TS      int64   `json:"ts"` // ms
	Price   float64 `json:"price"`
	Volume  float64 `json:"volume"`
}

type wireMessage struct {
	Type string       `json:"type"`
	Data []wireSample `json:"data"`
}

// Read streams samples until ctx ends or the connection fails. A full buffer blocks
// the reader rather than dropping samples, since a gap would corrupt the series.
func (c *Client) Read(ctx context.Context) (<-chan *models.AssetSample, <-chan error) {
	out := make(chan *models.AssetSample, c.bufferSize)
	errs := make(chan error, 1)

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		errs <- errors.New("feed not connected")
		close(out)
		close(errs)
		return out, errs
	}

	pingCtx, stopPing := context.WithCancel(ctx)
	go c.ping(pingCtx)

	go func() {
		defer close(errs)
		defer close(out)
		defer stopPing()
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("feed read: %w", err)
				}
				return
			}
			var m wireMessage
			if err := json.Unmarshal(b, &m); err != nil || m.Type != "sample" {
				continue
			}
			for _, d := range m.Data {
				s := &models.AssetSample{
					AssetID: d.AssetID,
					Sample:  models.Sample{Timestamp: time.UnixMilli(d.TS).UTC(), Price: d.Price, Volume: d.Volume},
				}
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	// unblock ReadMessage on cancellation
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()
	return out, errs
}

func (c *Client) ping(ctx context.Context) {
	if c.pingInterval <= 0 {
		return
	}
	t := time.NewTicker(c.pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.mu.Lock()
			if c.conn != nil {
				_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
			c.mu.Unlock()
		}
	}
}

// Reconnect closes the current connection, waits the reconnect delay, then dials and subscribes again.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-time.After(c.reconnectDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

var _ drepo.MarketStream = (*Client)(nil)
