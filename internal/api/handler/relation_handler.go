package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/timeline-fanout/internal/service"
	"github.com/d60-Lab/timeline-fanout/pkg/response"
)

type followRequest struct {
	TargetID    int64 `json:"target_id,string" binding:"required"`
	ShowReblogs *bool `json:"show_reblogs"`
	Notify      bool  `json:"notify"`
	Delivery    *bool `json:"delivery"`
}

type unfollowRequest struct {
	TargetID int64 `json:"target_id,string" binding:"required"`
}

type subscribeRequest struct {
	TargetID    int64 `json:"target_id,string" binding:"required"`
	ListID      int64 `json:"list_id,string"`
	ShowReblogs bool  `json:"show_reblogs"`
	MediaOnly   bool  `json:"media_only"`
}

type unsubscribeRequest struct {
	TargetID int64 `json:"target_id,string" binding:"required"`
	ListID   int64 `json:"list_id,string"`
}

func orTrue(b *bool) bool { return b == nil || *b }

// Follow 建立关注，回填异步完成
// @Summary 关注账号
// @Tags 关系链
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param request body followRequest true "关注信息"
// @Success 202 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/relations/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	opts := service.FollowOptions{
		ShowReblogs: orTrue(req.ShowReblogs),
		Notify:      req.Notify,
		Delivery:    orTrue(req.Delivery),
	}
	if err := h.relService.Follow(c.Request.Context(), viewerID(c), req.TargetID, opts); err != nil {
		fail(c, err)
		return
	}
	response.Accepted(c, nil)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param request body unfollowRequest true "取消关注信息"
// @Success 202 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/relations/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	var req unfollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.relService.Unfollow(c.Request.Context(), viewerID(c), req.TargetID); err != nil {
		fail(c, err)
		return
	}
	response.Accepted(c, nil)
}

// Subscribe 订阅账号（不关注也能收到其公开内容），可投递到列表
// @Summary 订阅账号
// @Tags 关系链
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param request body subscribeRequest true "订阅信息"
// @Success 202 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	opts := service.SubscribeOptions{ListID: req.ListID, ShowReblogs: req.ShowReblogs, MediaOnly: req.MediaOnly}
	if err := h.relService.Subscribe(c.Request.Context(), viewerID(c), req.TargetID, opts); err != nil {
		fail(c, err)
		return
	}
	response.Accepted(c, nil)
}

// Unsubscribe 取消订阅
// @Summary 取消订阅
// @Tags 关系链
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param request body unsubscribeRequest true "取消订阅信息"
// @Success 202 {object} response.Response
// @Router /api/v1/relations/unsubscribe [post]
func (h *Handler) Unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.relService.Unsubscribe(c.Request.Context(), viewerID(c), req.TargetID, req.ListID); err != nil {
		fail(c, err)
		return
	}
	response.Accepted(c, nil)
}

func idStrings(ids []int64) []string {
	res := make([]string, len(ids))
	for i, id := range ids {
		res[i] = strconv.FormatInt(id, 10)
	}
	return res
}

// ListFollowing 查询某账号关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Param user_id path string true "账号ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.relService.ListFollowing(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": idStrings(list)})
}

// ListFans 查询某账号的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param user_id path string true "账号ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/fans [get]
func (h *Handler) ListFans(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.relService.ListFollowers(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": idStrings(list)})
}

type createListRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

type listAccountsRequest struct {
	AccountIDs []string `json:"account_ids" binding:"required,min=1,max=100"`
}

// CreateList 新建列表
// @Summary 新建列表
// @Tags 列表
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param request body createListRequest true "列表"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/lists [post]
func (h *Handler) CreateList(c *gin.Context) {
	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	l, err := h.relService.CreateList(c.Request.Context(), viewerID(c), req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"id": strconv.FormatInt(l.ID, 10), "title": l.Title})
}

// AddListAccounts 向列表添加成员，成员已有内容异步回填
// @Summary 添加列表成员
// @Tags 列表
// @Accept json
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param id path string true "列表ID"
// @Param request body listAccountsRequest true "成员"
// @Success 202 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/lists/{id}/accounts [post]
func (h *Handler) AddListAccounts(c *gin.Context) {
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req listAccountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ids, err := parseIDs(req.AccountIDs)
	if err != nil {
		response.BadRequest(c, "invalid account_ids")
		return
	}
	for _, id := range ids {
		if err := h.relService.AddToList(c.Request.Context(), viewerID(c), listID, id); err != nil {
			fail(c, err)
			return
		}
	}
	response.Accepted(c, nil)
}

// RemoveListAccounts 移除列表成员
// @Summary 移除列表成员
// @Tags 列表
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param id path string true "列表ID"
// @Param account_ids[] query []string true "成员ID"
// @Success 202 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/lists/{id}/accounts [delete]
func (h *Handler) RemoveListAccounts(c *gin.Context) {
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ids, err := parseIDs(c.QueryArray("account_ids[]"))
	if err != nil || len(ids) == 0 {
		response.BadRequest(c, "invalid account_ids[]")
		return
	}
	for _, id := range ids {
		if err := h.relService.RemoveFromList(c.Request.Context(), viewerID(c), listID, id); err != nil {
			fail(c, err)
			return
		}
	}
	response.Accepted(c, nil)
}

// DeleteList 删除列表，其时间线异步清空
// @Summary 删除列表
// @Tags 列表
// @Produce json
// @Param X-Account-Id header string true "当前账号"
// @Param id path string true "列表ID"
// @Success 202 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/lists/{id} [delete]
func (h *Handler) DeleteList(c *gin.Context) {
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.relService.DeleteList(c.Request.Context(), viewerID(c), listID); err != nil {
		fail(c, err)
		return
	}
	response.Accepted(c, nil)
}

type registerRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Domain   string `json:"domain" binding:"omitempty,fqdn"`
	Group    bool   `json:"group"`
}

// Register 登记账号（本站或已知的外站账号）
// @Summary 登记账号
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body registerRequest true "账号"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Router /api/v1/accounts [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	a, err := h.accountSvc.Register(c.Request.Context(), req.Username, req.Domain, req.Group)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"id": strconv.FormatInt(a.ID, 10), "username": a.Username, "domain": a.Domain, "group": a.Group})
}
