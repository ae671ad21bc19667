package sequel

import (
	"sync"
)

// PreExecuteHandler 在命令发给数据库之前调用
type PreExecuteHandler func(cmd *Command)

// PostExecuteHandler 在命令成功执行之后调用
type PostExecuteHandler func(cmd *Command)

// UnhandledExceptionHandler 在命令执行失败时调用, 错误仍然会返回给调用者
type UnhandledExceptionHandler func(err error, cmd *Command)

// EventHandlers 只能追加, 不能删除.
// 分发时遍历的是注册表的快照, 所以注册和分发可以并发进行.
// 处理函数 panic 时, 剩下的处理函数不再调用, panic 继续向上传播.
type EventHandlers struct {
	mu        sync.RWMutex
	pre       []PreExecuteHandler
	post      []PostExecuteHandler
	unhandled []UnhandledExceptionHandler
}

// DefaultEventHandlers 是进程级别的注册表, 没有指定 DBWithEventHandlers 的 DB 都用它
var DefaultEventHandlers = NewEventHandlers()

func NewEventHandlers() *EventHandlers {
	return &EventHandlers{}
}

func (h *EventHandlers) RegisterPreExecute(fn PreExecuteHandler) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pre = append(h.pre, fn)
}

func (h *EventHandlers) RegisterPostExecute(fn PostExecuteHandler) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.post = append(h.post, fn)
}

func (h *EventHandlers) RegisterUnhandledException(fn UnhandledExceptionHandler) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unhandled = append(h.unhandled, fn)
}

func (h *EventHandlers) preExecute(cmd *Command) {
	h.mu.RLock()
	fns := h.pre
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(cmd)
	}
}

func (h *EventHandlers) postExecute(cmd *Command) {
	h.mu.RLock()
	fns := h.post
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(cmd)
	}
}

func (h *EventHandlers) unhandledException(err error, cmd *Command) {
	h.mu.RLock()
	fns := h.unhandled
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(err, cmd)
	}
}

func RegisterPreExecute(fn PreExecuteHandler) {
	DefaultEventHandlers.RegisterPreExecute(fn)
}

func RegisterPostExecute(fn PostExecuteHandler) {
	DefaultEventHandlers.RegisterPostExecute(fn)
}

func RegisterUnhandledException(fn UnhandledExceptionHandler) {
	DefaultEventHandlers.RegisterUnhandledException(fn)
}
