package game

import "fmt"

// PlayerAccount 玩家快照
// 等级与余额在每次调用时读取，引擎不缓存
type PlayerAccount interface {
	Level() int
	Currency() int
	Keys() int
	// Spend 扣除入场消耗，余额不足时返回 ErrInsufficientFunds 且不扣除任何资源
	Spend(currency, keys int) error
}

// Wallet 内存中的玩家账户
type Wallet struct {
	PlayerLevel int `yaml:"level"`
	Balance     int `yaml:"currency"`
	KeyBalance  int `yaml:"keys"`
}

// NewWallet 创建玩家账户
func NewWallet(level, currency, keys int) *Wallet {
	return &Wallet{PlayerLevel: level, Balance: currency, KeyBalance: keys}
}

func (w *Wallet) Level() int    { return w.PlayerLevel }
func (w *Wallet) Currency() int { return w.Balance }
func (w *Wallet) Keys() int     { return w.KeyBalance }

// Spend 扣除金币和钥匙
func (w *Wallet) Spend(currency, keys int) error {
	if currency < 0 || keys < 0 {
		return fmt.Errorf("spend amounts cannot be negative")
	}
	if w.Balance < currency {
		return fmt.Errorf("%w: need %d currency, have %d", ErrInsufficientFunds, currency, w.Balance)
	}
	if w.KeyBalance < keys {
		return fmt.Errorf("%w: need %d keys, have %d", ErrInsufficientFunds, keys, w.KeyBalance)
	}
	w.Balance -= currency
	w.KeyBalance -= keys
	return nil
}
