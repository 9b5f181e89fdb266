package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

// ErrInvalidMoney 金额格式非法
var ErrInvalidMoney = errors.New("invalid money value")

// Money 统一金额类型（保留 2 位小数，全程十进制运算）
type Money struct {
	decimal.Decimal
}

// ZeroMoney 返回零金额
func ZeroMoney() Money {
	return Money{Decimal: decimal.Zero}
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(moneyScale)}
}

// NewMoneyFromInt 从整数金额创建
func NewMoneyFromInt(amount int64) Money {
	return Money{Decimal: decimal.NewFromInt(amount)}
}

// HasMoneyScale 判断金额是否不超过 2 位小数
func HasMoneyScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(moneyScale))
}

// ParseMoney 解析字符串金额，超过 2 位小数视为非法
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil || !HasMoneyScale(d) {
		return Money{}, ErrInvalidMoney
	}
	return NewMoneyFromDecimal(d), nil
}

// MarshalJSON 统一输出 2 位小数的字符串
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Decimal.Round(moneyScale).StringFixed(moneyScale))
}

// UnmarshalJSON 解析金额（字符串或数字），数字按字面量精确解析，不做舍入
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !HasMoneyScale(d) {
		return ErrInvalidMoney
	}
	m.Decimal = d
	return nil
}

// Value 用于数据库写入
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(moneyScale).Value()
}

// Scan 用于数据库读取
func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(moneyScale)
	return nil
}

// String 返回 2 位小数格式
func (m Money) String() string {
	return m.Decimal.Round(moneyScale).StringFixed(moneyScale)
}
