package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-fanout/internal/realtime"
	"github.com/d60-Lab/timeline-fanout/internal/service"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamScope 解析 stream 参数；"user" 是当前账号 home 的别名。
// home/list 只允许其所有者订阅。
func (h *Handler) streamScope(c *gin.Context) (timeline.Scope, error) {
	raw := c.Query("stream")
	viewer := viewerID(c)
	if raw == "user" {
		if viewer == 0 {
			return "", service.ErrForbidden
		}
		return timeline.Home(viewer), nil
	}
	scope, err := timeline.ParseScope(raw)
	if err != nil {
		return "", err
	}
	id, _ := scope.Owner()
	switch scope.Kind() {
	case "home":
		if id != viewer {
			return "", service.ErrForbidden
		}
	case "list":
		if viewer == 0 {
			return "", service.ErrForbidden
		}
		if _, err := h.relService.GetList(c.Request.Context(), viewer, id); err != nil {
			return "", err
		}
	}
	return scope, nil
}

// Streaming 通过 websocket 转发某个时间线的实时事件
// @Summary 实时事件流
// @Tags 时间线
// @Param X-Account-Id header string false "当前账号（home/list 必填）"
// @Param stream query string true "时间线，如 user、public:local、hashtag:go、list:1"
// @Success 101
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/streaming [get]
func (h *Handler) Streaming(c *gin.Context) {
	scope, err := h.streamScope(c)
	if err != nil {
		fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("streaming: upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	ready := make(chan struct{})
	go readPump(conn, cancel)
	go h.keepAlive(ctx, conn, scope, ready)

	err = h.subscriber.Stream(ctx, []timeline.Scope{scope}, ready, func(ev realtime.Received) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(ev)
	})
	if err != nil && ctx.Err() == nil {
		logger.Warn("streaming: closed", zap.String("scope", scope.String()), zap.Error(err))
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// readPump 只消费控制帧；连接断开时取消订阅
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("streaming: read", zap.Error(err))
			}
			return
		}
	}
}

// keepAlive 订阅确认后标记在线，之后发送 ping 并定期刷新标记
func (h *Handler) keepAlive(ctx context.Context, conn *websocket.Conn, scope timeline.Scope, ready <-chan struct{}) {
	select {
	case <-ctx.Done():
		return
	case <-ready:
	}
	mark := func() {
		if err := h.marker.MarkSubscribed(ctx, scope, h.markTTL); err != nil && ctx.Err() == nil {
			logger.Warn("streaming: mark subscribed", zap.String("scope", scope.String()), zap.Error(err))
		}
	}
	mark()
	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()
	marks := time.NewTicker(h.markTTL / 2)
	defer marks.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-marks.C:
			mark()
		case <-pings.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
