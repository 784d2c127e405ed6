// Package clock 抽象时间源，业务代码通过它获取当前时间和创建定时器，
// 测试中可替换为手动推进的 Fake。
package clock

import "time"

type Clock interface {
	Now() time.Time
	// AfterFunc 在 d 之后于独立的 goroutine 中执行 f
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer 可取消的定时器，Stop 在定时器尚未触发时返回 true
type Timer interface {
	Stop() bool
}

type realClock struct{}

func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
