package dto

// ── 换班模块 DTO ──

// CreateSwapRequest 发起换班申请请求
type CreateSwapRequest struct {
	RequesterSlotID string `json:"requester_slot_id" binding:"required,uuid"`
	ResponderSlotID string `json:"responder_slot_id" binding:"required,uuid"`
}

// RejectSwapRequest 拒绝换班申请请求
type RejectSwapRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// SwapRequestListRequest 换班申请列表查询参数
type SwapRequestListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending accepted rejected"`
	PaginationRequest
}

// ── 响应 ──

// SwapRequestResponse 换班申请响应
type SwapRequestResponse struct {
	ID              string            `json:"id"`
	Requester       *MemberBrief      `json:"requester"`
	Responder       *MemberBrief      `json:"responder"`
	RequesterSlot   *TimeSlotResponse `json:"requester_slot,omitempty"`
	ResponderSlot   *TimeSlotResponse `json:"responder_slot,omitempty"`
	Status          string            `json:"status"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	Deadline        string            `json:"deadline"`
	ProcessedAt     *string           `json:"processed_at,omitempty"`
	CreatedAt       string            `json:"created_at"`
}
