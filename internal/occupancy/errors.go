package occupancy

import (
	"errors"
	"fmt"
)

// ErrAmbiguousTarget 调用方未指明房屋且档案持有多个 membership 时返回
// 协调器不做猜测，由调用方消歧后重试
var ErrAmbiguousTarget = errors.New("ambiguous flat target: profile holds multiple memberships")

// ErrCrossSociety 档案与房屋分属不同小区；跨小区 membership 被禁止
var ErrCrossSociety = errors.New("flat and profile belong to different societies")

// PartialWriteError membership 边的双侧写入非事务，某一侧失败时携带
// 足够的细节（哪一侧、哪条记录）供重试或人工对账
type PartialWriteError struct {
	Side      string // "flat" 或 "profile"
	FlatID    string
	ProfileID string
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("occupancy %s-side write failed (flat=%s profile=%s): %v",
		e.Side, e.FlatID, e.ProfileID, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }
