package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/bookorder/internal/application/order"
	"github.com/xiebiao/bookorder/internal/domain/order"
	"github.com/xiebiao/bookorder/internal/interface/http/dto"
	"github.com/xiebiao/bookorder/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookorder/pkg/errors"
	"github.com/xiebiao/bookorder/pkg/response"
)

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	placeOrder   *apporder.PlaceOrderUseCase
	updateStatus *apporder.UpdateStatusUseCase
	queryOrder   *apporder.QueryOrderUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	placeOrder *apporder.PlaceOrderUseCase,
	updateStatus *apporder.UpdateStatusUseCase,
	queryOrder *apporder.QueryOrderUseCase,
) *OrderHandler {
	return &OrderHandler{
		placeOrder:   placeOrder,
		updateStatus: updateStatus,
		queryOrder:   queryOrder,
	}
}

// PlaceOrder 下单
// @Summary      下单
// @Description  锁定图书、校验库存、创建订单并扣减库存,全部在一个事务内完成
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PlaceOrderRequest true "订单信息"
// @Success      201 {object} response.Response{data=dto.PlaceOrderResponse} "下单成功"
// @Failure      400 {object} response.Response "参数错误或库存不足"
// @Failure      401 {object} response.Response "未登录"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBindError.WithDetails(map[string]any{"reason": err.Error()}))
		return
	}

	delivery, err := order.ParseDelivery(req.Delivery)
	if err != nil {
		response.Error(c, err)
		return
	}

	// 2. 转换为应用层请求
	items := make([]apporder.PlaceOrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = apporder.PlaceOrderItem{BookID: item.BookID, Quantity: item.Quantity}
	}

	// 3. 调用下单用例
	result, err := h.placeOrder.Execute(c.Request.Context(), apporder.PlaceOrderRequest{
		Recipient: order.Recipient{
			Name:    req.Recipient.Name,
			Phone:   req.Recipient.Phone,
			Street:  req.Recipient.Street,
			City:    req.Recipient.City,
			ZipCode: req.Recipient.ZipCode,
			Email:   req.Recipient.Email,
		},
		Items:    items,
		Delivery: delivery,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, &dto.PlaceOrderResponse{
		OrderID:   result.OrderID,
		Status:    result.Status,
		CreatedAt: result.CreatedAt,
	})
}

// ListOrders 查询全部订单
// @Summary      订单列表
// @Description  管理员查看全部订单及价格明细,按创建时间倒序
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]apporder.OrderView}
// @Failure      401 {object} response.Response "未登录"
// @Failure      403 {object} response.Response "无权限"
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	views, err := h.queryOrder.ListOrders(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, views)
}

// GetOrder 查询订单详情
// @Summary      订单详情
// @Description  订单收件人本人或管理员可以查看,包含实时计算的价格明细;无权查看时与订单不存在一样返回404
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.OrderView}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	view, err := h.queryOrder.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	// 非本人按不存在处理,不暴露订单是否存在
	actor, _ := middleware.GetActor(c)
	if !actor.IsAdmin() && !actor.Owns(view.Recipient.Email) {
		response.Error(c, order.ErrOrderNotFound)
		return
	}
	response.Success(c, view)
}

// UpdateStatus 修改订单状态
// @Summary      修改订单状态
// @Description  支付、发货、取消等;取消未支付订单会归还库存。收件人本人或管理员可以操作
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Param        request body dto.UpdateStatusRequest true "目标状态"
// @Success      200 {object} response.Response{data=dto.UpdateStatusResponse}
// @Failure      400 {object} response.Response "状态不允许此操作"
// @Failure      403 {object} response.Response "无权操作"
// @Failure      404 {object} response.Response "订单不存在"
// @Failure      409 {object} response.Response "订单已被修改"
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBindError.WithDetails(map[string]any{"reason": err.Error()}))
		return
	}
	target, err := order.ParseStatus(req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	actor, _ := middleware.GetActor(c)
	result, err := h.updateStatus.Execute(c.Request.Context(), apporder.UpdateStatusRequest{
		OrderID: id,
		Status:  target,
		Actor:   actor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.UpdateStatusResponse{
		OrderID:  result.OrderID,
		Status:   result.Status,
		Released: result.Released,
	})
}

// DeleteOrder 删除订单
// @Summary      删除订单
// @Description  管理员直接删除订单,不经过状态机,不归还库存
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response
// @Failure      403 {object} response.Response "无权限"
// @Router       /orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	if err := h.queryOrder.DeleteOrder(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// orderID 解析路径中的订单ID,失败时已写入响应
func orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperrors.ErrInvalidParams.WithDetails(map[string]any{"id": c.Param("id")}))
		return 0, false
	}
	return uint(id), true
}
