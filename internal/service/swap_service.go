package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"oncall-scheduler/internal/dto"
	"oncall-scheduler/internal/model"
	"oncall-scheduler/internal/repository"
	pkgerrors "oncall-scheduler/pkg/errors"
)

// ── 换班模块业务错误 ──

var (
	ErrSwapNotFound     = errors.New("换班申请不存在")
	ErrSwapForbidden    = errors.New("无权操作该换班申请")
	ErrSwapInvalidState = errors.New("换班申请已处理，不可重复操作")
	ErrSwapConflict     = errors.New("时段分配已变更，请刷新后重试")
)

// InvalidSwapError 换班申请不满足业务规则
type InvalidSwapError struct {
	Reason string
}

func (e *InvalidSwapError) Error() string {
	return fmt.Sprintf("换班申请不合法: %s", e.Reason)
}

// SwapService 换班业务接口
type SwapService interface {
	// 发起换班申请（pending）
	Create(ctx context.Context, req *dto.CreateSwapRequest, requesterID string) (*dto.SwapRequestResponse, error)
	// 接受换班申请：仅响应人可操作，原子交换两个时段的值班人
	Accept(ctx context.Context, swapID, callerID string) (*dto.SwapRequestResponse, error)
	// 拒绝换班申请：仅响应人可操作
	Reject(ctx context.Context, swapID string, req *dto.RejectSwapRequest, callerID string) (*dto.SwapRequestResponse, error)
	// 我发出的申请
	ListSent(ctx context.Context, userID string, req *dto.SwapRequestListRequest) ([]dto.SwapRequestResponse, int64, error)
	// 我收到的申请
	ListReceived(ctx context.Context, userID string, req *dto.SwapRequestListRequest) ([]dto.SwapRequestResponse, int64, error)
}

type swapService struct {
	repo   *repository.Repository
	locker *teamLocker
	logger *zap.Logger
}

// NewSwapService 创建 SwapService 实例
func NewSwapService(repo *repository.Repository, locker *teamLocker, logger *zap.Logger) SwapService {
	return &swapService{repo: repo, locker: locker, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Create — 发起换班申请
// ════════════════════════════════════════════════════════════

func (s *swapService) Create(ctx context.Context, req *dto.CreateSwapRequest, requesterID string) (*dto.SwapRequestResponse, error) {
	if req.RequesterSlotID == req.ResponderSlotID {
		return nil, &InvalidSwapError{Reason: "不能和自己的同一时段互换"}
	}

	reqSlot, err := s.getSlot(ctx, req.RequesterSlotID)
	if err != nil {
		return nil, err
	}
	respSlot, err := s.getSlot(ctx, req.ResponderSlotID)
	if err != nil {
		return nil, err
	}

	// 申请人必须是己方时段的值班人
	if reqSlot.AssignedMemberID == nil || *reqSlot.AssignedMemberID != requesterID {
		return nil, ErrSwapForbidden
	}
	if respSlot.AssignedMemberID == nil {
		return nil, &InvalidSwapError{Reason: "对方时段未分配值班人"}
	}
	responderID := *respSlot.AssignedMemberID
	if responderID == requesterID {
		return nil, &InvalidSwapError{Reason: "不能与自己换班"}
	}

	// 同一排班表（同团队同周）内才可互换
	if reqSlot.ScheduleID != respSlot.ScheduleID {
		return nil, &InvalidSwapError{Reason: "只能在同团队同一周的排班内换班"}
	}
	if reqSlot.IsBreak || respSlot.IsBreak {
		return nil, &InvalidSwapError{Reason: "休息时段不可换班"}
	}

	schedule, err := s.repo.Schedule.GetByID(ctx, reqSlot.ScheduleID)
	if err != nil {
		s.logger.Error("查询排班表失败", zap.Error(err))
		return nil, err
	}
	if schedule.Status != model.ScheduleStatusPublished {
		return nil, &InvalidSwapError{Reason: "排班表未发布，不可换班"}
	}

	now := time.Now()
	if !reqSlot.StartDatetime.After(now) || !respSlot.StartDatetime.After(now) {
		return nil, &InvalidSwapError{Reason: "只能交换尚未开始的时段"}
	}

	// 截止时间：较早时段开始前 24 小时
	earliest := reqSlot.StartDatetime
	if respSlot.StartDatetime.Before(earliest) {
		earliest = respSlot.StartDatetime
	}
	deadline := earliest.Add(-24 * time.Hour)
	if now.After(deadline) {
		return nil, &InvalidSwapError{Reason: "已超过换班截止时间（时段开始前 24 小时）"}
	}

	// 任一时段已有待处理申请则不可再发起
	for _, slotID := range []string{req.RequesterSlotID, req.ResponderSlotID} {
		exists, err := s.repo.SwapRequest.PendingExistsForSlot(ctx, slotID)
		if err != nil {
			s.logger.Error("查询待处理申请失败", zap.Error(err))
			return nil, err
		}
		if exists {
			return nil, &InvalidSwapError{Reason: "时段上已有待处理的换班申请"}
		}
	}

	swap := &model.SwapRequest{
		RequesterID:     requesterID,
		ResponderID:     responderID,
		RequesterSlotID: req.RequesterSlotID,
		ResponderSlotID: req.ResponderSlotID,
		Status:          model.SwapStatusPending,
		Deadline:        deadline,
	}
	swap.CreatedBy = &requesterID
	swap.UpdatedBy = &requesterID
	if err := s.repo.SwapRequest.Create(ctx, swap); err != nil {
		s.logger.Error("创建换班申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("换班申请已创建",
		zap.String("swap_request_id", swap.SwapRequestID),
		zap.String("requester_id", requesterID),
		zap.String("responder_id", responderID))

	return s.buildSwapResponse(ctx, swap), nil
}

// ════════════════════════════════════════════════════════════
// Accept — 接受并执行交换
// ════════════════════════════════════════════════════════════

func (s *swapService) Accept(ctx context.Context, swapID, callerID string) (*dto.SwapRequestResponse, error) {
	swap, err := s.repo.SwapRequest.GetByID(ctx, swapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotFound
		}
		s.logger.Error("查询换班申请失败", zap.Error(err))
		return nil, err
	}
	if swap.ResponderID != callerID {
		return nil, ErrSwapForbidden
	}
	if swap.IsTerminal() {
		return nil, ErrSwapInvalidState
	}

	// 时段被删除（排班表重新生成等）→ 申请进入终态 rejected
	reqSlot, err := s.repo.TimeSlot.GetByID(ctx, swap.RequesterSlotID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询时段失败", zap.Error(err))
		return nil, err
	}
	respSlot, derr := s.repo.TimeSlot.GetByID(ctx, swap.ResponderSlotID)
	if derr != nil && !errors.Is(derr, gorm.ErrRecordNotFound) {
		s.logger.Error("查询时段失败", zap.Error(derr))
		return nil, derr
	}
	if reqSlot == nil || respSlot == nil {
		if err := s.terminate(ctx, swap, model.SwapStatusRejected, "槽位已不存在", callerID); err != nil {
			return nil, err
		}
		return nil, ErrSwapInvalidState
	}

	if time.Now().After(swap.Deadline) {
		return nil, &InvalidSwapError{Reason: "已超过换班截止时间"}
	}

	unlock := s.locker.Lock(reqSlot.ScheduleID)
	defer unlock()

	// 分配关系在申请期间被变更 → Conflict，申请保持 pending
	if reqSlot.AssignedMemberID == nil || *reqSlot.AssignedMemberID != swap.RequesterID ||
		respSlot.AssignedMemberID == nil || *respSlot.AssignedMemberID != swap.ResponderID {
		return nil, ErrSwapConflict
	}

	requesterID, responderID := swap.RequesterID, swap.ResponderID
	reqSlot.AssignedMemberID = &responderID
	reqSlot.UpdatedBy = &callerID
	respSlot.AssignedMemberID = &requesterID
	respSlot.UpdatedBy = &callerID

	if err := s.repo.TimeSlot.SwapAssignments(ctx, reqSlot, respSlot); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrSwapConflict
		}
		s.logger.Error("交换时段失败", zap.Error(err))
		return nil, err
	}

	if err := s.terminate(ctx, swap, model.SwapStatusAccepted, "", callerID); err != nil {
		return nil, err
	}

	s.logger.Info("换班申请已接受",
		zap.String("swap_request_id", swap.SwapRequestID),
		zap.String("requester_slot_id", swap.RequesterSlotID),
		zap.String("responder_slot_id", swap.ResponderSlotID))

	return s.buildSwapResponse(ctx, swap), nil
}

// ════════════════════════════════════════════════════════════
// Reject — 拒绝申请
// ════════════════════════════════════════════════════════════

func (s *swapService) Reject(ctx context.Context, swapID string, req *dto.RejectSwapRequest, callerID string) (*dto.SwapRequestResponse, error) {
	swap, err := s.repo.SwapRequest.GetByID(ctx, swapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotFound
		}
		s.logger.Error("查询换班申请失败", zap.Error(err))
		return nil, err
	}
	if swap.ResponderID != callerID {
		return nil, ErrSwapForbidden
	}
	if swap.IsTerminal() {
		return nil, ErrSwapInvalidState
	}

	if err := s.terminate(ctx, swap, model.SwapStatusRejected, req.Reason, callerID); err != nil {
		return nil, err
	}

	s.logger.Info("换班申请已拒绝",
		zap.String("swap_request_id", swap.SwapRequestID),
		zap.String("responder_id", callerID))

	return s.buildSwapResponse(ctx, swap), nil
}

// ════════════════════════════════════════════════════════════
// ListSent / ListReceived
// ════════════════════════════════════════════════════════════

func (s *swapService) ListSent(ctx context.Context, userID string, req *dto.SwapRequestListRequest) ([]dto.SwapRequestResponse, int64, error) {
	swaps, total, err := s.repo.SwapRequest.ListByRequester(ctx, userID, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询换班申请列表失败", zap.Error(err))
		return nil, 0, err
	}
	return s.buildSwapResponses(ctx, swaps), total, nil
}

func (s *swapService) ListReceived(ctx context.Context, userID string, req *dto.SwapRequestListRequest) ([]dto.SwapRequestResponse, int64, error) {
	swaps, total, err := s.repo.SwapRequest.ListByResponder(ctx, userID, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询换班申请列表失败", zap.Error(err))
		return nil, 0, err
	}
	return s.buildSwapResponses(ctx, swaps), total, nil
}

// ════════════════════════════════════════════════════════════
// 内部辅助方法
// ════════════════════════════════════════════════════════════

func (s *swapService) getSlot(ctx context.Context, slotID string) (*model.TimeSlot, error) {
	slot, err := s.repo.TimeSlot.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &InvalidSwapError{Reason: "时段不存在"}
		}
		s.logger.Error("查询时段失败", zap.Error(err))
		return nil, err
	}
	return slot, nil
}

// terminate 将申请置为终态并记录处理时间
func (s *swapService) terminate(ctx context.Context, swap *model.SwapRequest, status, reason, callerID string) error {
	now := time.Now()
	swap.Status = status
	swap.RejectionReason = reason
	swap.ProcessedAt = &now
	swap.UpdatedBy = &callerID
	if err := s.repo.SwapRequest.Update(ctx, swap); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrSwapConflict
		}
		s.logger.Error("更新换班申请状态失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *swapService) buildSwapResponses(ctx context.Context, swaps []model.SwapRequest) []dto.SwapRequestResponse {
	result := make([]dto.SwapRequestResponse, 0, len(swaps))
	for i := range swaps {
		result = append(result, *s.buildSwapResponse(ctx, &swaps[i]))
	}
	return result
}

// buildSwapResponse 构建换班申请响应（时段已删除时省略对应字段）
func (s *swapService) buildSwapResponse(ctx context.Context, swap *model.SwapRequest) *dto.SwapRequestResponse {
	resp := &dto.SwapRequestResponse{
		ID:              swap.SwapRequestID,
		Status:          swap.Status,
		RejectionReason: swap.RejectionReason,
		Deadline:        swap.Deadline.Format("2006-01-02T15:04:05Z07:00"),
		CreatedAt:       swap.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if swap.ProcessedAt != nil {
		t := swap.ProcessedAt.Format("2006-01-02T15:04:05Z")
		resp.ProcessedAt = &t
	}

	resp.Requester = &dto.MemberBrief{ID: swap.RequesterID}
	if swap.Requester != nil {
		resp.Requester.Name = swap.Requester.Name
		resp.Requester.Email = swap.Requester.Email
	}
	resp.Responder = &dto.MemberBrief{ID: swap.ResponderID}
	if swap.Responder != nil {
		resp.Responder.Name = swap.Responder.Name
		resp.Responder.Email = swap.Responder.Email
	}

	now := time.Now()
	if slot, err := s.repo.TimeSlot.GetByID(ctx, swap.RequesterSlotID); err == nil {
		v := toTimeSlotResponse(slot, &model.Schedule{Status: model.ScheduleStatusPublished}, "", now, nil)
		resp.RequesterSlot = &v
	}
	if slot, err := s.repo.TimeSlot.GetByID(ctx, swap.ResponderSlotID); err == nil {
		v := toTimeSlotResponse(slot, &model.Schedule{Status: model.ScheduleStatusPublished}, "", now, nil)
		resp.ResponderSlot = &v
	}
	return resp
}
