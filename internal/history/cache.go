package history

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/querydesk-go/internal/model"
	"github.com/lk2023060901/querydesk-go/pkg/log"
	"github.com/lk2023060901/querydesk-go/pkg/metrics"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

// Cache 在内存中维护查询历史状态，并在每次变更时同步写入 Store。
//
// store 为 nil 时 Cache 只在内存中工作。
type Cache struct {
	log.Binder

	mu        sync.RWMutex
	state     State
	store     *Store
	listeners []func(State)
}

func NewCache(store *Store, limit int) *Cache {
	return &Cache{state: NewState(limit), store: store}
}

// State 返回当前状态快照。
func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Subscribe 注册状态变更回调，回调在 Dispatch 持有的锁之外执行。
func (c *Cache) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Load 从 Store 读取全部记录并以 Loaded 替换当前状态。
func (c *Cache) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	entries, err := c.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	return c.apply(ctx, Loaded{Entries: entries})
}

// Dispatch 先持久化再更新内存状态，持久化失败时状态保持不变。
func (c *Cache) Dispatch(ctx context.Context, action Action) error {
	if err := c.persist(action); err != nil {
		metrics.HistoryActions.WithLabelValues(action.Name(), metrics.FailLabel).Inc()
		c.Logger().Warn("persist history action failed", zap.String("action", action.Name()), zap.Error(err))
		return err
	}
	return c.apply(ctx, action)
}

func (c *Cache) apply(ctx context.Context, action Action) error {
	c.mu.Lock()
	next, err := Reduce(c.state, action)
	if err != nil {
		c.mu.Unlock()
		metrics.HistoryActions.WithLabelValues(action.Name(), metrics.FailLabel).Inc()
		return err
	}
	prev := c.state
	c.state = next
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()

	c.evict(prev, next, action)

	metrics.HistoryActions.WithLabelValues(action.Name(), metrics.SuccessLabel).Inc()
	metrics.HistoryEntries.Set(float64(next.Len()))
	log.Ctx(ctx).Debug("history updated", zap.String("action", action.Name()), zap.Int("entries", next.Len()))
	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

// evict 删除不再出现在新状态中的记录文件：超出容量被挤出的记录，
// 以及 Loaded 替换状态时被丢弃的旧记录。
func (c *Cache) evict(prev, next State, action Action) {
	if c.store == nil {
		return
	}
	candidates := prev.entries
	switch a := action.(type) {
	case Appended:
		if next.limit <= 0 {
			return
		}
		candidates = append(candidates[:len(candidates):len(candidates)], a.Entry)
	case Loaded:
		candidates = append(candidates[:len(candidates):len(candidates)], a.Entries...)
	case Removed, Cleared:
		return
	default:
		if next.limit <= 0 {
			return
		}
	}
	for _, e := range candidates {
		if e == nil {
			continue
		}
		if _, ok := next.index[e.ID]; ok {
			continue
		}
		if err := c.store.Delete(e.ID); err != nil && !errors.Is(err, merr.ErrHistoryEntryNotFound) {
			c.Logger().Warn("evict history entry failed", zap.String("id", e.ID), zap.Error(err))
		}
	}
}

func (c *Cache) persist(action Action) error {
	if c.store == nil {
		return nil
	}
	switch a := action.(type) {
	case Appended:
		return c.putAll(a.Entry)
	case Updated:
		if a.Entry != nil {
			if _, ok := c.State().Get(a.Entry.ID); !ok {
				return nil
			}
		}
		return c.putAll(a.Entry)
	case Removed:
		if _, ok := c.State().Get(a.ID); !ok {
			return nil
		}
		return c.store.Delete(a.ID)
	case Cleared:
		return c.store.Clear()
	case Loaded:
		return c.putAll(a.Entries...)
	}
	return nil
}

func (c *Cache) putAll(entries ...*model.HistoryEntry) error {
	for _, e := range entries {
		if e == nil {
			continue
		}
		if err := c.store.Put(e); err != nil {
			return err
		}
	}
	return nil
}
