package order

import (
	"fmt"

	apperrors "github.com/xiebiao/bookorder/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrInvalidTransition 非法的状态转换
	ErrInvalidTransition = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "订单状态不允许此操作")

	// ErrForbidden 无权修改该订单
	ErrForbidden = apperrors.New(apperrors.ErrCodeForbidden, "无权操作此订单")

	// ErrUnknownStatus 无法识别的订单状态
	ErrUnknownStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "未知的订单状态")

	// ErrUnknownDelivery 无法识别的配送方式
	ErrUnknownDelivery = apperrors.New(apperrors.ErrCodeInvalidParams, "未知的配送方式")

	// ErrInvalidOrderItems 订单明细不合法
	ErrInvalidOrderItems = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不能为空")

	// ErrInvalidQuantity 购买数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")

	// ErrInvalidRecipient 收件人信息不完整
	ErrInvalidRecipient = apperrors.New(apperrors.ErrCodeInvalidParams, "收件人邮箱不能为空")

	// ErrStaleOrder 订单已被其他请求修改
	ErrStaleOrder = apperrors.New(apperrors.ErrCodeConflict, "订单已被修改,请重试")
)

// InvalidTransitionError 非法状态转换,携带源状态与目标状态
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("unable to mark %s order as %s", e.From, e.To)
}

// Unwrap 支持errors.Is(err, ErrInvalidTransition)
func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition.WithDetails(map[string]any{
		"from": e.From.String(),
		"to":   e.To.String(),
	})
}
