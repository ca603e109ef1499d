package history

import (
	"sort"

	"github.com/samber/lo"

	"github.com/lk2023060901/querydesk-go/internal/model"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

// Action 为作用于 State 的变更。
type Action interface {
	Name() string
}

// Loaded 用一批记录替换全部状态，通常来自存储或后端首屏加载。
type Loaded struct {
	Entries []*model.HistoryEntry
}

// Appended 插入一条新记录，ID 已存在时按 Updated 处理。
type Appended struct {
	Entry *model.HistoryEntry
}

// Updated 替换一条已有记录，例如查询从 running 变为 success。
type Updated struct {
	Entry *model.HistoryEntry
}

type Removed struct {
	ID string
}

type Cleared struct{}

func (Loaded) Name() string   { return "loaded" }
func (Appended) Name() string { return "appended" }
func (Updated) Name() string  { return "updated" }
func (Removed) Name() string  { return "removed" }
func (Cleared) Name() string  { return "cleared" }

// State 为查询历史的不可变快照，记录按 StartedAt 由新到旧排列。
type State struct {
	limit   int
	entries []*model.HistoryEntry
	index   map[string]int
}

// NewState 创建空状态，limit > 0 时只保留最新的 limit 条记录。
func NewState(limit int) State {
	return State{limit: limit, index: map[string]int{}}
}

func (s State) Len() int {
	return len(s.entries)
}

func (s State) Limit() int {
	return s.limit
}

// Entries 返回记录切片的副本。
func (s State) Entries() []*model.HistoryEntry {
	return append([]*model.HistoryEntry(nil), s.entries...)
}

func (s State) Get(id string) (*model.HistoryEntry, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.entries[i], true
}

// Window 返回 [offset, offset+limit) 区间内的记录，用于虚拟列表按需渲染。
func (s State) Window(offset, limit int) []*model.HistoryEntry {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s.entries) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(s.entries) {
		end = len(s.entries)
	}
	return append([]*model.HistoryEntry(nil), s.entries[offset:end]...)
}

// newer 判断 a 是否应排在 b 之前。
func newer(a, b *model.HistoryEntry) bool {
	if !a.StartedAt.Equal(b.StartedAt) {
		return a.StartedAt.After(b.StartedAt)
	}
	return a.ID > b.ID
}

func build(limit int, entries []*model.HistoryEntry) State {
	sort.SliceStable(entries, func(i, j int) bool { return newer(entries[i], entries[j]) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.ID] = i
	}
	return State{limit: limit, entries: entries, index: index}
}

// Reduce 返回应用 action 后的新状态，s 本身不被修改。
func Reduce(s State, action Action) (State, error) {
	switch a := action.(type) {
	case Loaded:
		entries := lo.UniqBy(lo.Filter(a.Entries, func(e *model.HistoryEntry, _ int) bool { return e != nil }),
			func(e *model.HistoryEntry) string { return e.ID })
		return build(s.limit, entries), nil
	case Appended:
		if a.Entry == nil {
			return s, merr.WrapErrParameterMissing("entry")
		}
		entries := lo.Filter(s.entries, func(e *model.HistoryEntry, _ int) bool { return e.ID != a.Entry.ID })
		return build(s.limit, append(entries, a.Entry)), nil
	case Updated:
		if a.Entry == nil {
			return s, merr.WrapErrParameterMissing("entry")
		}
		if _, ok := s.index[a.Entry.ID]; !ok {
			return s, merr.WrapErrHistoryEntryNotFound(a.Entry.ID)
		}
		entries := lo.Map(s.entries, func(e *model.HistoryEntry, _ int) *model.HistoryEntry {
			if e.ID == a.Entry.ID {
				return a.Entry
			}
			return e
		})
		return build(s.limit, entries), nil
	case Removed:
		if _, ok := s.index[a.ID]; !ok {
			return s, merr.WrapErrHistoryEntryNotFound(a.ID)
		}
		entries := lo.Filter(s.entries, func(e *model.HistoryEntry, _ int) bool { return e.ID != a.ID })
		return build(s.limit, entries), nil
	case Cleared:
		return NewState(s.limit), nil
	}
	return s, merr.WrapErrOperationNotSupported(action.Name())
}
