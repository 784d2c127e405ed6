package system

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	closes []func()
	mu     sync.Mutex
	once   sync.Once
)

// RegisterClose 注册退出钩子，按注册的逆序执行
func RegisterClose(f func()) {
	mu.Lock()
	defer mu.Unlock()
	closes = append(closes, f)
}

// WaitSignal 监听退出信号，收到后执行钩子并退出进程
func WaitSignal() {
	once.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		go func() {
			<-ch
			RunCloses()
			os.Exit(0)
		}()
	})
}

func RunCloses() {
	mu.Lock()
	fs := closes
	closes = nil
	mu.Unlock()

	for i := len(fs) - 1; i >= 0; i-- {
		fs[i]()
	}
}
