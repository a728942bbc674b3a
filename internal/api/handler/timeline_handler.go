package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-fanout/internal/feed"
	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/timeline"
	"github.com/d60-Lab/timeline-fanout/pkg/logger"
	"github.com/d60-Lab/timeline-fanout/pkg/response"
)

type timelineQuery struct {
	feed.Cursor
	Limit        int      `form:"limit" binding:"omitempty,min=1"`
	Visibilities []string `form:"visibilities[]" binding:"omitempty,dive,visibility"`
	Local        bool     `form:"local"`
	Remote       bool     `form:"remote"`
	OnlyMedia    bool     `form:"only_media"`
}

func (q timelineQuery) visibilities() []model.Visibility {
	res := make([]model.Visibility, len(q.Visibilities))
	for i, v := range q.Visibilities {
		res[i] = model.Visibility(v)
	}
	return res
}

func (q timelineQuery) media(s timeline.Scope) timeline.Scope {
	if q.OnlyMedia {
		return s.Media()
	}
	return s
}

func (h *Handler) page(c *gin.Context, scope timeline.Scope, q timelineQuery) {
	p, err := h.feed.Get(c.Request.Context(), scope, q.Limit, q.Cursor, q.visibilities())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, p)
}

// Home 读取自己的主页时间线
// @Summary 主页时间线
// @Tags 时间线
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param limit query int false "条数" default(20)
// @Param max_id query string false "早于该 ID"
// @Param since_id query string false "晚于该 ID"
// @Param min_id query string false "紧邻该 ID 之后"
// @Param visibilities[] query []string false "只保留这些可见性"
// @Success 200 {object} response.Response{data=feed.Page}
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/timelines/home [get]
func (h *Handler) Home(c *gin.Context) {
	var q timelineQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id := viewerID(c)
	if err := h.accountSvc.Touch(c.Request.Context(), id); err != nil {
		logger.Warn("touch account failed", zap.Int64("account_id", id), zap.Error(err))
	}
	h.page(c, timeline.Home(id), q)
}

// List 读取自己某个列表的时间线
// @Summary 列表时间线
// @Tags 时间线
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param id path string true "列表ID"
// @Param limit query int false "条数" default(20)
// @Param max_id query string false "早于该 ID"
// @Param since_id query string false "晚于该 ID"
// @Param min_id query string false "紧邻该 ID 之后"
// @Success 200 {object} response.Response{data=feed.Page}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/timelines/list/{id} [get]
func (h *Handler) List(c *gin.Context) {
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q timelineQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if _, err := h.relService.GetList(c.Request.Context(), viewerID(c), listID); err != nil {
		fail(c, err)
		return
	}
	h.page(c, timeline.List(listID), q)
}

// Public 公共时间线
// @Summary 公共时间线
// @Tags 时间线
// @Produce json
// @Param local query bool false "只看本站"
// @Param remote query bool false "只看外站"
// @Param domain query string false "只看某个外站域名"
// @Param only_media query bool false "只看带媒体的内容"
// @Param limit query int false "条数" default(20)
// @Param max_id query string false "早于该 ID"
// @Param since_id query string false "晚于该 ID"
// @Param min_id query string false "紧邻该 ID 之后"
// @Success 200 {object} response.Response{data=feed.Page}
// @Router /api/v1/timelines/public [get]
func (h *Handler) Public(c *gin.Context) {
	var q timelineQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	scope := timeline.Public()
	switch {
	case c.Query("domain") != "":
		scope = timeline.PublicDomain(c.Query("domain"))
	case q.Local && q.Remote:
		response.BadRequest(c, "local and remote are exclusive")
		return
	case q.Local:
		scope = timeline.PublicLocal()
	case q.Remote:
		scope = timeline.PublicRemote()
	}
	h.page(c, q.media(scope), q)
}

// Tag 话题时间线
// @Summary 话题时间线
// @Tags 时间线
// @Produce json
// @Param tag path string true "话题"
// @Param local query bool false "只看本站"
// @Param only_media query bool false "只看带媒体的内容"
// @Param limit query int false "条数" default(20)
// @Param max_id query string false "早于该 ID"
// @Success 200 {object} response.Response{data=feed.Page}
// @Router /api/v1/timelines/tag/{tag} [get]
func (h *Handler) Tag(c *gin.Context) {
	var q timelineQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	tag := model.NormalizeTag(c.Param("tag"))
	if tag == "" {
		response.BadRequest(c, "invalid tag")
		return
	}
	scope := timeline.Hashtag(tag)
	if q.Local {
		scope = timeline.HashtagLocal(tag)
	}
	h.page(c, q.media(scope), q)
}

// Group 群组时间线
// @Summary 群组时间线
// @Tags 时间线
// @Produce json
// @Param id path string true "群组账号ID"
// @Param only_media query bool false "只看带媒体的内容"
// @Param limit query int false "条数" default(20)
// @Param max_id query string false "早于该 ID"
// @Success 200 {object} response.Response{data=feed.Page}
// @Router /api/v1/timelines/group/{id} [get]
func (h *Handler) Group(c *gin.Context) {
	groupID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var q timelineQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.page(c, q.media(timeline.Group(groupID)), q)
}
