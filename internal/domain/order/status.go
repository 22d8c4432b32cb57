package order

import (
	"strings"
)

// Status 订单状态
type Status int

const (
	StatusNew       Status = 1 // 新建,等待支付
	StatusPaid      Status = 2 // 已支付
	StatusCanceled  Status = 3 // 已取消
	StatusAbandoned Status = 4 // 超时未支付,已放弃
	StatusShipped   Status = 5 // 已发货
)

// AllStatuses 全部状态,按数值排序
var AllStatuses = []Status{StatusNew, StatusPaid, StatusCanceled, StatusAbandoned, StatusShipped}

var statusNames = map[Status]string{
	StatusNew:       "NEW",
	StatusPaid:      "PAID",
	StatusCanceled:  "CANCELED",
	StatusAbandoned: "ABANDONED",
	StatusShipped:   "SHIPPED",
}

// String 实现Stringer接口
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsValid 是否为已定义的状态
func (s Status) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus 解析状态名(忽略大小写和首尾空白)
func ParseStatus(name string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	for status, n := range statusNames {
		if n == normalized {
			return status, nil
		}
	}
	return 0, ErrUnknownStatus.WithDetails(map[string]any{"status": name})
}

// Transition 一次合法的状态转换
// Release为true表示该转换会撤销订单,需要把订单占用的库存归还
type Transition struct {
	Status  Status
	Release bool
}

// transitions 状态转换表,未列出的(from, to)组合一律非法
var transitions = map[Status]map[Status]Transition{
	StatusNew: {
		StatusPaid:      {Status: StatusPaid},
		StatusCanceled:  {Status: StatusCanceled, Release: true},
		StatusAbandoned: {Status: StatusAbandoned, Release: true},
	},
	StatusPaid: {
		StatusShipped: {Status: StatusShipped},
	},
}

// NextStatus 查询从from到to的转换
// 非法转换返回*InvalidTransitionError,不修改任何状态
func NextStatus(from, to Status) (Transition, error) {
	if t, ok := transitions[from][to]; ok {
		return t, nil
	}
	return Transition{}, &InvalidTransitionError{From: from, To: to}
}

// IsFinal 终态不允许任何转换
func (s Status) IsFinal() bool {
	return len(transitions[s]) == 0
}
