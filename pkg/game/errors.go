package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/decker502/dungeonrun/pkg/types"
)

// 命令失败（调用顺序错误等），均不会修改进度状态
var (
	ErrGateRejected        = errors.New("entry rejected")
	ErrNoActiveRun         = errors.New("no active run")
	ErrNoCurrentRoom       = errors.New("active run has no current room")
	ErrUnknownBranch       = errors.New("unknown branch")
	ErrBranchAlreadyChosen = errors.New("a different branch was already chosen for this floor")
	ErrUnknownRank         = errors.New("unknown rank")
	ErrInvalidFloor        = errors.New("floor number out of range")
	ErrInsufficientFunds   = errors.New("insufficient funds")
)

// GateError 入场检查失败
type GateError struct {
	Rank   types.RankID
	Code   GateCode
	Reason string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("cannot enter rank %s: %s", e.Rank, e.Reason)
}

func (e *GateError) Unwrap() error {
	return ErrGateRejected
}

// BranchError 选择了当前层不存在的分支
type BranchError struct {
	FloorNumber int
	BranchID    string
	Valid       []string
}

func (e *BranchError) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("floor %d has no branches, got %q", e.FloorNumber, e.BranchID)
	}
	return fmt.Sprintf("floor %d has no branch %q (valid: %s)", e.FloorNumber, e.BranchID, strings.Join(e.Valid, ", "))
}

func (e *BranchError) Unwrap() error {
	return ErrUnknownBranch
}
