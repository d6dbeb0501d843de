package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"oncall-scheduler/internal/dto"
	"oncall-scheduler/internal/service"
	"oncall-scheduler/pkg/response"
)

// SwapHandler 换班模块 HTTP 处理器
type SwapHandler struct {
	swapSvc service.SwapService
}

// NewSwapHandler 创建 SwapHandler
func NewSwapHandler(swapSvc service.SwapService) *SwapHandler {
	return &SwapHandler{swapSvc: swapSvc}
}

// Create 发起换班申请
// POST /api/v1/swap-requests
func (h *SwapHandler) Create(c *gin.Context) {
	var req dto.CreateSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	requesterID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.swapSvc.Create(c.Request.Context(), &req, requesterID)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.Created(c, result)
}

// Accept 接受换班申请
// POST /api/v1/swap-requests/:id/accept
func (h *SwapHandler) Accept(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "换班申请ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.swapSvc.Accept(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, result)
}

// Reject 拒绝换班申请
// POST /api/v1/swap-requests/:id/reject
func (h *SwapHandler) Reject(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "换班申请ID不能为空")
		return
	}

	var req dto.RejectSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.swapSvc.Reject(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, result)
}

// ListSent 我发出的换班申请
// GET /api/v1/swap-requests/sent
func (h *SwapHandler) ListSent(c *gin.Context) {
	var req dto.SwapRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.swapSvc.ListSent(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListReceived 我收到的换班申请
// GET /api/v1/swap-requests/received
func (h *SwapHandler) ListReceived(c *gin.Context) {
	var req dto.SwapRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.swapSvc.ListReceived(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// handleSwapError 统一处理换班模块业务错误
func (h *SwapHandler) handleSwapError(c *gin.Context, err error) {
	var invalidErr *service.InvalidSwapError
	switch {
	case errors.As(err, &invalidErr):
		response.BadRequest(c, 16001, invalidErr.Error())
	case errors.Is(err, service.ErrSwapForbidden):
		response.Forbidden(c, 16002, "无权操作该换班申请")
	case errors.Is(err, service.ErrSwapInvalidState):
		response.BadRequest(c, 16003, "换班申请已处理，不可重复操作")
	case errors.Is(err, service.ErrSwapConflict):
		response.Conflict(c, 16009, "时段分配已变更，请刷新后重试")
	case errors.Is(err, service.ErrSwapNotFound):
		response.NotFound(c, 16004, "换班申请不存在")
	default:
		response.InternalError(c)
	}
}
