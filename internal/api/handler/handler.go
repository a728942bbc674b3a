package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-fanout/internal/feed"
	"github.com/d60-Lab/timeline-fanout/internal/realtime"
	"github.com/d60-Lab/timeline-fanout/internal/repository"
	"github.com/d60-Lab/timeline-fanout/internal/service"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/pkg/logger"
	"github.com/d60-Lab/timeline-fanout/pkg/response"
)

// ViewerHeader 上游网关认证后填入的账号 ID
const ViewerHeader = "X-Account-Id"

const viewerKey = "viewer_id"

// Marker 记录实时连接的存活，供只推给在线读者的事件使用
type Marker interface {
	MarkSubscribed(ctx context.Context, scope timeline.Scope, ttl time.Duration) error
}

type Handler struct {
	feed        *feed.Feed
	statusSvc   *service.StatusService
	relService  service.RelationshipService
	reactionSvc *service.ReactionService
	accountSvc  *service.AccountService
	subscriber  *realtime.Subscriber
	marker      Marker
	markTTL     time.Duration
}

func New(
	f *feed.Feed,
	statusSvc *service.StatusService,
	relService service.RelationshipService,
	reactionSvc *service.ReactionService,
	accountSvc *service.AccountService,
	subscriber *realtime.Subscriber,
	marker Marker,
	markTTL time.Duration,
) *Handler {
	if markTTL <= 0 {
		markTTL = time.Minute
	}
	return &Handler{
		feed:        f,
		statusSvc:   statusSvc,
		relService:  relService,
		reactionSvc: reactionSvc,
		accountSvc:  accountSvc,
		subscriber:  subscriber,
		marker:      marker,
		markTTL:     markTTL,
	}
}

// Viewer 解析 X-Account-Id；缺失时视为匿名，格式错误直接拒绝
func Viewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ViewerHeader)
		if raw == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Unauthorized(c, "invalid "+ViewerHeader)
			c.Abort()
			return
		}
		c.Set(viewerKey, id)
		c.Next()
	}
}

// RequireViewer 拒绝匿名请求
func RequireViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if viewerID(c) == 0 {
			response.Unauthorized(c, "missing "+ViewerHeader)
			c.Abort()
			return
		}
		c.Next()
	}
}

func viewerID(c *gin.Context) int64 {
	return c.GetInt64(viewerKey)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func parseIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseInt(r, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// fail 把领域错误映射为 HTTP 状态码
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrFollowSelf),
		errors.Is(err, service.ErrInvalidVisibility),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrNotReacted):
		response.Unprocessable(c, err.Error())
	case errors.Is(err, timeline.ErrInvalidScope):
		response.BadRequest(c, err.Error())
	case errors.Is(err, timeline.ErrUnavailable):
		response.ServiceUnavailable(c, err.Error())
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.InternalError(c, err)
	}
}
