package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Delivery 配送方式
type Delivery string

const (
	DeliveryCourier    Delivery = "COURIER"     // 快递
	DeliverySelfPickup Delivery = "SELF_PICKUP" // 自提
)

// ParseDelivery 解析配送方式,空字符串默认快递
func ParseDelivery(name string) (Delivery, error) {
	switch Delivery(strings.ToUpper(strings.TrimSpace(name))) {
	case "", DeliveryCourier:
		return DeliveryCourier, nil
	case DeliverySelfPickup:
		return DeliverySelfPickup, nil
	default:
		return "", ErrUnknownDelivery.WithDetails(map[string]any{"delivery": name})
	}
}

// Recipient 收件人快照
// ID指向去重后的收件人记录,订单始终持有下单时的一份拷贝
type Recipient struct {
	ID      uint
	Name    string
	Phone   string
	Street  string
	City    string
	ZipCode string
	Email   string
}

// Order 订单实体(聚合根)
type Order struct {
	ID        uint
	Status    Status
	Recipient Recipient
	Items     []OrderItem // 创建后不再变化
	Delivery  Delivery
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem 订单明细项
// UnitPrice是下单时的单价快照
type OrderItem struct {
	ID        uint
	OrderID   uint
	BookID    uint
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal 明细小计
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrder 创建新订单,初始状态为NEW
func NewOrder(recipient Recipient, items []OrderItem, delivery Delivery, now time.Time) *Order {
	if delivery == "" {
		delivery = DeliveryCourier
	}
	return &Order{
		Status:    StatusNew,
		Recipient: recipient,
		Items:     items,
		Delivery:  delivery,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateStatus 按状态转换表修改状态
// 返回值release表示调用方需要归还库存;非法转换时订单保持不变
func (o *Order) UpdateStatus(target Status, now time.Time) (release bool, err error) {
	t, err := NextStatus(o.Status, target)
	if err != nil {
		return false, err
	}
	o.Status = t.Status
	o.UpdatedAt = now
	return t.Release, nil
}

// CanBeManagedBy 管理员或订单收件人本人可以修改订单状态
func (o *Order) CanBeManagedBy(actor Actor) bool {
	return actor.IsAdmin() || actor.Owns(o.Recipient.Email)
}

// IsAbandonable 下单时间早于截止时间的新订单可以被放弃
func (o *Order) IsAbandonable(cutoff time.Time) bool {
	return o.Status == StatusNew && !o.CreatedAt.After(cutoff)
}
