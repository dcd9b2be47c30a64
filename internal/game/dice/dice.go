// Package dice 实现抽字母的骰子：从 20 个字母的池子里不重复地抽取，
// 池子抽空后自动重新装满。
package dice

import (
	"math/rand/v2"
	"slices"
)

// Values 可抽取的字母表。Q、U、V、X、Y、Z 太难组词，不参与。
var Values = []string{
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J",
	"K", "L", "M", "N", "O", "P", "R", "S", "T", "W",
}

// Dice 字母骰子。非并发安全，由会话引擎的锁保护。
type Dice struct {
	rng       *rand.Rand
	available []string // 还没抽过的字母
	value     string   // 当前字母，未抽取时为空
}

// New 创建满池骰子
func New() *Dice {
	seed := [32]byte{}
	for i := range seed {
		seed[i] = byte(rand.IntN(256))
	}
	return NewWithRand(rand.New(rand.NewChaCha8(seed)))
}

// NewWithRand 用指定随机源创建骰子（测试注入固定种子）
func NewWithRand(rng *rand.Rand) *Dice {
	return &Dice{
		rng:       rng,
		available: slices.Clone(Values),
	}
}

// Roll 抽一个字母。池子已空时先重新装满；抽到的字母移出池子，
// 同一轮池子内不会重复。
func (d *Dice) Roll() string {
	if len(d.available) == 0 {
		d.available = slices.Clone(Values)
	}

	if len(d.available) == 1 {
		d.value = d.available[0]
		d.available = d.available[:0]
		return d.value
	}

	i := d.rng.IntN(len(d.available))
	d.value = d.available[i]
	d.available = slices.Delete(d.available, i, i+1)
	return d.value
}

// Reroll 把当前字母放回池子后重抽
func (d *Dice) Reroll() string {
	d.putBack()
	return d.Roll()
}

// ResetRoll 把当前字母放回池子且不重抽
func (d *Dice) ResetRoll() {
	d.putBack()
	d.value = ""
}

func (d *Dice) putBack() {
	if d.value == "" {
		return
	}
	d.available = append(d.available, d.value)
}

// Value 当前字母，未抽取时为空
func (d *Dice) Value() string {
	return d.value
}

// Remaining 池子里剩余的字母数
func (d *Dice) Remaining() int {
	return len(d.available)
}
