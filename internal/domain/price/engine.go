// Package price 订单价格计算:商品总价、配送费、折扣与应付金额
package price

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookorder/internal/domain/order"
)

// Line 参与计价的一行明细
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal 单价×数量
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Input 折扣策略的输入
type Input struct {
	Lines         []Line
	ItemsPrice    decimal.Decimal
	DeliveryPrice decimal.Decimal
}

// AppliedDiscount 某个策略给出的折扣
type AppliedDiscount struct {
	Name   string
	Amount decimal.Decimal
}

// Breakdown 价格明细
// FinalPrice = ItemsPrice + DeliveryPrice - Discount
type Breakdown struct {
	ItemsPrice    decimal.Decimal
	DeliveryPrice decimal.Decimal
	Discount      decimal.Decimal
	FinalPrice    decimal.Decimal
	Discounts     []AppliedDiscount
}

// DeliveryFees 各配送方式的运费
type DeliveryFees map[order.Delivery]decimal.Decimal

// DefaultDeliveryFees 快递9.90,自提免费
func DefaultDeliveryFees() DeliveryFees {
	return DeliveryFees{
		order.DeliveryCourier:    decimal.RequireFromString("9.90"),
		order.DeliverySelfPickup: decimal.Zero,
	}
}

// Engine 价格计算器,无状态,可并发使用
type Engine struct {
	fees       DeliveryFees
	strategies []DiscountStrategy
}

// NewEngine 创建价格计算器,策略按给定顺序执行,结果累加
func NewEngine(fees DeliveryFees, strategies ...DiscountStrategy) *Engine {
	return &Engine{fees: fees, strategies: strategies}
}

// Calculate 计算一组明细的价格
func (e *Engine) Calculate(lines []Line, delivery order.Delivery) Breakdown {
	items := decimal.Zero
	for _, l := range lines {
		items = items.Add(l.Subtotal())
	}

	deliveryPrice := decimal.Zero
	if len(lines) > 0 {
		deliveryPrice = e.fees[delivery]
	}

	in := Input{Lines: lines, ItemsPrice: items, DeliveryPrice: deliveryPrice}

	discount := decimal.Zero
	var applied []AppliedDiscount
	for _, s := range e.strategies {
		d := s.Discount(in)
		if !d.IsPositive() {
			continue
		}
		discount = discount.Add(d)
		applied = append(applied, AppliedDiscount{Name: s.Name(), Amount: d})
	}

	// 折扣不能超过商品总价+运费
	gross := items.Add(deliveryPrice)
	if discount.GreaterThan(gross) {
		discount = gross
	}

	return Breakdown{
		ItemsPrice:    items,
		DeliveryPrice: deliveryPrice,
		Discount:      discount,
		FinalPrice:    gross.Sub(discount),
		Discounts:     applied,
	}
}

// ForOrder 按订单的价格快照计算
func (e *Engine) ForOrder(o *order.Order) Breakdown {
	lines := make([]Line, len(o.Items))
	for i, item := range o.Items {
		lines[i] = Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	return e.Calculate(lines, o.Delivery)
}
