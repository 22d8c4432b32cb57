package dto

import "time"

// PlaceOrderRequest HTTP下单请求
// 数量和明细的合法性由下单用例统一校验
type PlaceOrderRequest struct {
	Recipient RecipientRequest   `json:"recipient" binding:"required"`
	Items     []OrderItemRequest `json:"items"`
	Delivery  string             `json:"delivery" binding:"omitempty,oneof=COURIER SELF_PICKUP courier self_pickup" example:"COURIER"`
}

// RecipientRequest 收件人信息
type RecipientRequest struct {
	Name    string `json:"name" binding:"required,max=100" example:"Jan Kowalski"`
	Phone   string `json:"phone" binding:"max=30" example:"123456789"`
	Street  string `json:"street" binding:"max=200" example:"Main 1"`
	City    string `json:"city" binding:"max=100" example:"Warsaw"`
	ZipCode string `json:"zip_code" binding:"max=20" example:"00-001"`
	Email   string `json:"email" binding:"required,email,max=100" example:"jan@example.org"`
}

// OrderItemRequest 下单明细
type OrderItemRequest struct {
	BookID   uint `json:"book_id" binding:"required" example:"1"`
	Quantity int  `json:"quantity" example:"2"`
}

// PlaceOrderResponse HTTP下单响应
type PlaceOrderResponse struct {
	OrderID   uint      `json:"order_id" example:"1"`
	Status    string    `json:"status" example:"NEW"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// UpdateStatusRequest HTTP修改订单状态请求,状态名不区分大小写
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"PAID"`
}

// UpdateStatusResponse HTTP修改订单状态响应
type UpdateStatusResponse struct {
	OrderID  uint   `json:"order_id" example:"1"`
	Status   string `json:"status" example:"CANCELED"`
	Released int    `json:"released" example:"2"` // 归还的库存数量
}
