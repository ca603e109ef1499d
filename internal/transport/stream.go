package transport

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lk2023060901/querydesk-go/internal/json"
	"github.com/lk2023060901/querydesk-go/pkg/log"
	"github.com/lk2023060901/querydesk-go/pkg/metrics"
	"github.com/lk2023060901/querydesk-go/pkg/serde"
	"github.com/lk2023060901/querydesk-go/pkg/util/conc"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

// StreamConfig 描述 WebSocket 订阅的基础配置。
type StreamConfig struct {
	SendQueueSize int
	RecvQueueSize int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PongTimeout 为等待对端任意帧（含 pong）的最长时间，为 0 时使用 ReadTimeout。
	// 每收到一个 pong，读超时顺延 PongTimeout。
	PongTimeout time.Duration
	// PingInterval 为发送 ping 的周期，为 0 时取读等待时间的 9/10；读等待时间也为 0 时不发送 ping。
	PingInterval time.Duration

	// OnError 在各阶段出错时被调用，可为空。
	OnError func(stage Stage, err error)
}

const pingWriteWait = 5 * time.Second

func defaultStreamConfig() StreamConfig {
	return StreamConfig{
		SendQueueSize: 64,
		RecvQueueSize: 256,
	}
}

// readWait 返回单次读操作的等待时间，为 0 表示不设读超时。
func (cfg StreamConfig) readWait() time.Duration {
	if cfg.PongTimeout > 0 {
		return cfg.PongTimeout
	}
	return cfg.ReadTimeout
}

func (cfg StreamConfig) pingInterval() time.Duration {
	if cfg.PingInterval > 0 {
		return cfg.PingInterval
	}
	return cfg.readWait() * 9 / 10
}

// Stream 是一条到后端的 WebSocket 订阅，每条文本或二进制消息解码为一个 Resource。
type Stream struct {
	conn *websocket.Conn
	cfg  StreamConfig
	path string
	reg  *serde.Registry

	ctx    context.Context
	cancel context.CancelFunc

	sendChan chan []byte
	recvChan chan *Resource

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// Subscribe 建立到 path 的 WebSocket 订阅，http(s) 基地址对应 ws(s)。
func (c *Client) Subscribe(ctx context.Context, path string) (*Stream, error) {
	u, err := url.Parse(c.resolve(path))
	if err != nil {
		return nil, merr.WrapErrParameterInvalidMsg("invalid stream path %q", path)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	cfg := c.opt.stream
	def := defaultStreamConfig()
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = def.SendQueueSize
	}
	if cfg.RecvQueueSize <= 0 {
		cfg.RecvQueueSize = def.RecvQueueSize
	}

	header := http.Header{}
	for k, vs := range c.opt.header {
		header[k] = append([]string(nil), vs...)
	}

	type result struct {
		conn *websocket.Conn
		err  error
	}
	resCh := make(chan result, 1)
	_ = conc.Go(func() (struct{}, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
		resCh <- result{conn: conn, err: err}
		return struct{}{}, nil
	})

	select {
	case <-ctx.Done():
		_ = conc.Go(func() (struct{}, error) {
			if res := <-resCh; res.conn != nil {
				_ = res.conn.Close()
			}
			return struct{}{}, nil
		})
		return nil, ctx.Err()
	case res := <-resCh:
		if res.err != nil {
			if cfg.OnError != nil {
				cfg.OnError(StageDial, res.err)
			}
			return nil, merr.WrapErrTransportRequest("GET", path, res.err)
		}
		return newStream(ctx, res.conn, cfg, path, c.opt.registry), nil
	}
}

func newStream(ctx context.Context, conn *websocket.Conn, cfg StreamConfig, path string, reg *serde.Registry) *Stream {
	sctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		conn:     conn,
		cfg:      cfg,
		path:     path,
		reg:      reg,
		ctx:      sctx,
		cancel:   cancel,
		sendChan: make(chan []byte, cfg.SendQueueSize),
		recvChan: make(chan *Resource, cfg.RecvQueueSize),
	}
	if wait := cfg.readWait(); wait > 0 {
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wait))
		})
	}
	_ = conc.Go(func() (struct{}, error) {
		s.recvLoop()
		return struct{}{}, nil
	})
	_ = conc.Go(func() (struct{}, error) {
		s.sendLoop()
		return struct{}{}, nil
	})
	_ = conc.Go(func() (struct{}, error) {
		<-sctx.Done()
		s.close(nil)
		return struct{}{}, nil
	})
	return s
}

// Recv 返回消息通道，订阅结束后通道被关闭，原因通过 Err 获取。
func (s *Stream) Recv() <-chan *Resource {
	return s.recvChan
}

// Err 返回订阅结束的原因，主动关闭时为 nil。
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Send 序列化 v 并排入发送队列。
func (s *Stream) Send(ctx context.Context, v any) error {
	var (
		data []byte
		err  error
	)
	switch x := v.(type) {
	case []byte:
		data = x
	case map[string]any, []any:
		data, err = json.Marshal(x)
	default:
		data, err = serde.Marshal(s.reg, v)
	}
	if err != nil {
		s.onError(StageEncode, err)
		return err
	}

	if s.ctx.Err() != nil {
		return merr.WrapErrTransportClosed(s.path)
	}
	select {
	case <-s.ctx.Done():
		return merr.WrapErrTransportClosed(s.path)
	case <-ctx.Done():
		return ctx.Err()
	case s.sendChan <- data:
		return nil
	}
}

func (s *Stream) Close() error {
	return s.close(nil)
}

func (s *Stream) onError(stage Stage, err error) {
	log.Ctx(s.ctx).RatedWarn(1, "stream error",
		zap.String("path", s.path), zap.String("stage", string(stage)), zap.Error(err))
	if s.cfg.OnError != nil {
		s.cfg.OnError(stage, err)
	}
}

func (s *Stream) close(cause error) error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = cause
		s.mu.Unlock()
		s.cancel()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}

// recvLoop 持续读取消息并解码为 Resource，是 recvChan 唯一的写入方。
func (s *Stream) recvLoop() {
	defer close(s.recvChan)

	for {
		if wait := s.cfg.readWait(); wait > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
				s.onError(StageRecvRaw, err)
				s.close(merr.WrapErrTransportClosed(s.path, err.Error()))
				return
			}
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.close(nil)
				return
			}
			s.onError(StageRecvRaw, err)
			s.close(merr.WrapErrTransportClosed(s.path, err.Error()))
			return
		}

		body, err := json.UnmarshalAny(data)
		if err != nil {
			metrics.TransportStreamMessages.WithLabelValues(metrics.FailLabel).Inc()
			s.onError(StageDecode, err)
			continue
		}
		metrics.TransportStreamMessages.WithLabelValues(metrics.SuccessLabel).Inc()

		select {
		case <-s.ctx.Done():
			return
		case s.recvChan <- newResource(s.reg, s.path, http.StatusOK, nil, body):
		}
	}
}

// sendLoop 从 sendChan 读取已编码的消息写入连接，并按 PingInterval 发送 ping。
func (s *Stream) sendLoop() {
	var ping <-chan time.Time
	if interval := s.cfg.pingInterval(); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ping:
			wait := s.cfg.WriteTimeout
			if wait <= 0 {
				wait = pingWriteWait
			}
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wait)); err != nil {
				s.onError(StageSend, err)
				s.close(merr.WrapErrTransportClosed(s.path, err.Error()))
				return
			}
		case data := <-s.sendChan:
			if s.cfg.WriteTimeout > 0 {
				if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
					s.onError(StageSend, err)
					s.close(merr.WrapErrTransportClosed(s.path, err.Error()))
					return
				}
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.onError(StageSend, err)
				s.close(merr.WrapErrTransportClosed(s.path, err.Error()))
				return
			}
		}
	}
}
