package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/timeline-fanout/internal/model"
	"github.com/d60-Lab/timeline-fanout/internal/service"
	"github.com/d60-Lab/timeline-fanout/pkg/response"
)

type createStatusRequest struct {
	Text         string   `json:"text" binding:"max=5000"`
	Visibility   string   `json:"visibility" binding:"omitempty,visibility"`
	Media        bool     `json:"media"`
	Tags         []string `json:"tags" binding:"max=20"`
	Mentions     []string `json:"mentions" binding:"max=50"`
	ExpiresIn    int      `json:"expires_in" binding:"omitempty,min=60"` // 秒
	ExpireAction string   `json:"expire_action" binding:"omitempty,oneof=mark delete"`
}

// CreateStatus 发布内容（异步扇出）
// @Summary 发布内容
// @Tags 内容
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param request body createStatusRequest true "内容"
// @Success 202 {object} response.Response{data=model.StatusSummary}
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/statuses [post]
func (h *Handler) CreateStatus(c *gin.Context) {
	var req createStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	mentions, err := parseIDs(req.Mentions)
	if err != nil {
		response.BadRequest(c, "invalid mentions")
		return
	}
	in := service.CreateStatus{
		AccountID:    viewerID(c),
		Text:         req.Text,
		Visibility:   model.Visibility(req.Visibility),
		HasMedia:     req.Media,
		Tags:         req.Tags,
		Mentions:     mentions,
		ExpireAction: model.ExpireAction(req.ExpireAction),
	}
	if req.ExpiresIn > 0 {
		at := time.Now().Add(time.Duration(req.ExpiresIn) * time.Second)
		in.ExpiresAt = &at
	}
	st, err := h.statusSvc.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	response.Accepted(c, st.Summary())
}

// Reblog 转发
// @Summary 转发内容
// @Tags 内容
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param id path string true "内容ID"
// @Success 202 {object} response.Response{data=model.StatusSummary}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/statuses/{id}/reblog [post]
func (h *Handler) Reblog(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.statusSvc.Reblog(c.Request.Context(), viewerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Accepted(c, st.Summary())
}

// DeleteStatus 删除内容；时间线中的条目异步撤回
// @Summary 删除内容
// @Tags 内容
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param id path string true "内容ID"
// @Success 202 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/statuses/{id} [delete]
func (h *Handler) DeleteStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.statusSvc.Delete(c.Request.Context(), viewerID(c), id); err != nil {
		fail(c, err)
		return
	}
	response.Accepted(c, nil)
}

func reactionIdentity(c *gin.Context) (model.ReactionIdentity, bool) {
	id := model.ReactionIdentity{Name: c.Param("emoji"), Domain: c.Query("domain")}
	if raw := c.Query("custom_emoji_id"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid custom_emoji_id")
			return id, false
		}
		id.CustomEmojiID = n
	}
	return id, true
}

func (h *Handler) changeReaction(c *gin.Context, added bool) {
	statusID, ok := pathID(c, "id")
	if !ok {
		return
	}
	identity, ok := reactionIdentity(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	viewer := viewerID(c)
	if err := h.reactionSvc.Change(ctx, statusID, identity, viewer, added); err != nil {
		fail(c, err)
		return
	}
	aggs, err := h.reactionSvc.Aggregates(ctx, statusID, viewer)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, aggs)
}

// AddReaction 添加表情回应，重复添加无副作用
// @Summary 添加表情回应
// @Tags 表情回应
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param id path string true "内容ID"
// @Param emoji path string true "表情名"
// @Param custom_emoji_id query string false "自定义表情ID"
// @Param domain query string false "自定义表情来源域"
// @Success 200 {object} response.Response{data=[]model.ReactionAggregate}
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/statuses/{id}/emoji_reactions/{emoji} [put]
func (h *Handler) AddReaction(c *gin.Context) { h.changeReaction(c, true) }

// RemoveReaction 撤销表情回应
// @Summary 撤销表情回应
// @Tags 表情回应
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param id path string true "内容ID"
// @Param emoji path string true "表情名"
// @Param custom_emoji_id query string false "自定义表情ID"
// @Success 200 {object} response.Response{data=[]model.ReactionAggregate}
// @Failure 422 {object} response.Response
// @Router /api/v1/statuses/{id}/emoji_reactions/{emoji} [delete]
func (h *Handler) RemoveReaction(c *gin.Context) { h.changeReaction(c, false) }

// ListReactions 内容上的回应统计
// @Summary 表情回应统计
// @Tags 表情回应
// @Produce json
// @Param id path string true "内容ID"
// @Success 200 {object} response.Response{data=[]model.ReactionAggregate}
// @Failure 404 {object} response.Response
// @Router /api/v1/statuses/{id}/emoji_reactions [get]
func (h *Handler) ListReactions(c *gin.Context) {
	statusID, ok := pathID(c, "id")
	if !ok {
		return
	}
	aggs, err := h.reactionSvc.Aggregates(c.Request.Context(), statusID, viewerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, aggs)
}
