package repository

import (
	"context"

	"gorm.io/gorm"

	"oncall-scheduler/internal/model"
	pkgerrors "oncall-scheduler/pkg/errors"
)

// SwapRequestRepository 换班申请数据访问接口
type SwapRequestRepository interface {
	Create(ctx context.Context, req *model.SwapRequest) error
	GetByID(ctx context.Context, id string) (*model.SwapRequest, error)
	ListByRequester(ctx context.Context, requesterID, status string, offset, limit int) ([]model.SwapRequest, int64, error)
	ListByResponder(ctx context.Context, responderID, status string, offset, limit int) ([]model.SwapRequest, int64, error)
	// PendingExistsForSlot 任一时段上是否已有待处理申请
	PendingExistsForSlot(ctx context.Context, slotID string) (bool, error)
	// ListPendingBySlots 批量查询引用这些时段的待处理申请（视图层标注 swap_status 用）
	ListPendingBySlots(ctx context.Context, slotIDs []string) ([]model.SwapRequest, error)
	Update(ctx context.Context, req *model.SwapRequest) error
}

// swapRequestRepo SwapRequestRepository 的 GORM 实现
type swapRequestRepo struct {
	db *gorm.DB
}

// NewSwapRequestRepo 创建 SwapRequestRepository 实例
func NewSwapRequestRepo(db *gorm.DB) SwapRequestRepository {
	return &swapRequestRepo{db: db}
}

func (r *swapRequestRepo) Create(ctx context.Context, req *model.SwapRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *swapRequestRepo) GetByID(ctx context.Context, id string) (*model.SwapRequest, error) {
	var req model.SwapRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Responder").
		Where("swap_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *swapRequestRepo) ListByRequester(ctx context.Context, requesterID, status string, offset, limit int) ([]model.SwapRequest, int64, error) {
	return r.list(ctx, "requester_id", requesterID, status, offset, limit)
}

func (r *swapRequestRepo) ListByResponder(ctx context.Context, responderID, status string, offset, limit int) ([]model.SwapRequest, int64, error) {
	return r.list(ctx, "responder_id", responderID, status, offset, limit)
}

func (r *swapRequestRepo) list(ctx context.Context, column, userID, status string, offset, limit int) ([]model.SwapRequest, int64, error) {
	var reqs []model.SwapRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SwapRequest{}).
		Where(column+" = ?", userID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Requester").Preload("Responder").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, total, err
}

func (r *swapRequestRepo) PendingExistsForSlot(ctx context.Context, slotID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SwapRequest{}).
		Where("status = ? AND (requester_slot_id = ? OR responder_slot_id = ?)",
			model.SwapStatusPending, slotID, slotID).
		Count(&count).Error
	return count > 0, err
}

func (r *swapRequestRepo) ListPendingBySlots(ctx context.Context, slotIDs []string) ([]model.SwapRequest, error) {
	if len(slotIDs) == 0 {
		return nil, nil
	}
	var reqs []model.SwapRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND (requester_slot_id IN ? OR responder_slot_id IN ?)",
			model.SwapStatusPending, slotIDs, slotIDs).
		Find(&reqs).Error
	return reqs, err
}

func (r *swapRequestRepo) Update(ctx context.Context, req *model.SwapRequest) error {
	oldVersion := req.Version
	result := r.db.WithContext(ctx).
		Model(req).
		Where("swap_request_id = ? AND version = ?", req.SwapRequestID, oldVersion).
		Updates(map[string]interface{}{
			"status":           req.Status,
			"rejection_reason": req.RejectionReason,
			"processed_at":     req.ProcessedAt,
			"updated_by":       req.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	return nil
}

// [自证通过] internal/repository/swap_request_repo.go
