package price

import (
	"github.com/shopspring/decimal"
)

// DiscountStrategy 折扣策略
// 返回的折扣为非负数,0表示不适用
type DiscountStrategy interface {
	Name() string
	Discount(in Input) decimal.Decimal
}

// FreeDeliveryStrategy 商品总价达到门槛免运费
type FreeDeliveryStrategy struct {
	Threshold decimal.Decimal
}

func (s FreeDeliveryStrategy) Name() string { return "free_delivery" }

func (s FreeDeliveryStrategy) Discount(in Input) decimal.Decimal {
	if in.ItemsPrice.GreaterThanOrEqual(s.Threshold) {
		return in.DeliveryPrice
	}
	return decimal.Zero
}

// CheapestBookStrategy 按商品总价给最便宜的一本书打折
// 达到FreeThreshold免单一本,否则达到HalfPriceThreshold半价一本
type CheapestBookStrategy struct {
	FreeThreshold      decimal.Decimal
	HalfPriceThreshold decimal.Decimal
}

func (s CheapestBookStrategy) Name() string { return "cheapest_book" }

func (s CheapestBookStrategy) Discount(in Input) decimal.Decimal {
	cheapest, ok := cheapestUnitPrice(in.Lines)
	if !ok {
		return decimal.Zero
	}
	switch {
	case in.ItemsPrice.GreaterThanOrEqual(s.FreeThreshold):
		return cheapest
	case in.ItemsPrice.GreaterThanOrEqual(s.HalfPriceThreshold):
		// 四舍五入到分
		return cheapest.Div(decimal.NewFromInt(2)).Round(2)
	default:
		return decimal.Zero
	}
}

func cheapestUnitPrice(lines []Line) (decimal.Decimal, bool) {
	var (
		lowest decimal.Decimal
		found  bool
	)
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if !found || l.UnitPrice.LessThan(lowest) {
			lowest = l.UnitPrice
			found = true
		}
	}
	return lowest, found
}

// DefaultStrategies 满100免运费,满200最便宜的书半价,满400最便宜的书免费
func DefaultStrategies() []DiscountStrategy {
	return []DiscountStrategy{
		FreeDeliveryStrategy{Threshold: decimal.NewFromInt(100)},
		CheapestBookStrategy{
			FreeThreshold:      decimal.NewFromInt(400),
			HalfPriceThreshold: decimal.NewFromInt(200),
		},
	}
}
