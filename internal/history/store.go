package history

import (
	"context"
	"io/fs"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"

	"github.com/lk2023060901/querydesk-go/internal/compressor"
	"github.com/lk2023060901/querydesk-go/internal/crypto"
	"github.com/lk2023060901/querydesk-go/internal/model"
	"github.com/lk2023060901/querydesk-go/internal/serializer"
	"github.com/lk2023060901/querydesk-go/pkg/log"
	"github.com/lk2023060901/querydesk-go/pkg/serde"
	"github.com/lk2023060901/querydesk-go/pkg/util/conc"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

// StoreOptions 为 Store 的构造参数。
type StoreOptions struct {
	// BasePath 为记录文件所在目录。
	BasePath string
	// CacheSizeMax 为 diskv 内存缓存上限（字节），0 表示不缓存。
	CacheSizeMax uint64
	Serializer   serializer.Serializer
	Compressor   compressor.Compressor
	// Encryptor 为空时不加密，记录 ID 作为关联数据参与签名。
	Encryptor crypto.Encryptor
	Registry  *serde.Registry
	// Workers 为 LoadAll 并发解码的协程数，0 表示使用默认协程池。
	Workers int
}

// Store 将历史记录逐条持久化到本地目录，每条记录一个文件。
//
// 写入链路为 serde 序列化 -> Serializer 编码 -> Compressor 压缩 -> Encryptor 加密，读取反之。
type Store struct {
	disk       *diskv.Diskv
	serializer serializer.Serializer
	compressor compressor.Compressor
	encryptor  crypto.Encryptor
	registry   *serde.Registry
	workers    int
}

func NewStore(opts StoreOptions) (*Store, error) {
	if opts.BasePath == "" {
		return nil, merr.WrapErrParameterMissing("history.path")
	}
	if opts.Serializer == nil {
		opts.Serializer = serializer.JSONSerializer{}
	}
	if opts.Compressor == nil {
		opts.Compressor = compressor.NopCompressor{}
	}
	if opts.Encryptor == nil {
		opts.Encryptor = crypto.NopEncryptor{}
	}
	if opts.Registry == nil {
		opts.Registry = serde.Default
	}
	disk := diskv.New(diskv.Options{
		BasePath:     opts.BasePath,
		CacheSizeMax: opts.CacheSizeMax,
		Transform:    func(string) []string { return []string{} },
	})
	return &Store{
		disk:       disk,
		serializer: opts.Serializer,
		compressor: opts.Compressor,
		encryptor:  opts.Encryptor,
		registry:   opts.Registry,
		workers:    opts.Workers,
	}, nil
}

// fileKey 将记录 ID 转为可作为文件名的键。
func fileKey(id string) string {
	return url.PathEscape(id)
}

func (s *Store) encode(entry *model.HistoryEntry) ([]byte, error) {
	v, err := serde.Encode(s.registry, entry)
	if err != nil {
		return nil, err
	}
	data, err := s.serializer.Marshal(v)
	if err != nil {
		return nil, err
	}
	packed, err := s.compressor.Compress(nil, data)
	if err != nil {
		return nil, err
	}
	return s.encryptor.Seal(packed, []byte(entry.ID))
}

func (s *Store) decode(key string, raw []byte) (*model.HistoryEntry, error) {
	packed, err := s.encryptor.Open(raw, []byte(key))
	if err != nil {
		return nil, err
	}
	data, err := s.compressor.Decompress(nil, packed)
	if err != nil {
		return nil, err
	}
	var v any
	if err := s.serializer.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return serde.Decode[model.HistoryEntry](s.registry, v, key)
}

func (s *Store) Put(entry *model.HistoryEntry) error {
	if entry == nil {
		return merr.WrapErrParameterMissing("entry")
	}
	data, err := s.encode(entry)
	if err != nil {
		return merr.WrapErrHistoryStoreFailed(entry.ID, err)
	}
	if err := s.disk.Write(fileKey(entry.ID), data); err != nil {
		return merr.WrapErrHistoryStoreFailed(entry.ID, err)
	}
	return nil
}

func (s *Store) Get(id string) (*model.HistoryEntry, error) {
	raw, err := s.disk.Read(fileKey(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, merr.WrapErrHistoryEntryNotFound(id)
	}
	if err != nil {
		return nil, merr.WrapErrHistoryStoreFailed(id, err)
	}
	entry, err := s.decode(id, raw)
	if err != nil {
		return nil, merr.WrapErrHistoryStoreFailed(id, err)
	}
	return entry, nil
}

func (s *Store) Delete(id string) error {
	err := s.disk.Erase(fileKey(id))
	if errors.Is(err, fs.ErrNotExist) {
		return merr.WrapErrHistoryEntryNotFound(id)
	}
	if err != nil {
		return merr.WrapErrHistoryStoreFailed(id, err)
	}
	return nil
}

func (s *Store) Clear() error {
	if err := s.disk.EraseAll(); err != nil {
		return merr.WrapErrHistoryStoreFailed(s.disk.BasePath, err)
	}
	return nil
}

// LoadAll 并发读取目录下全部记录，无法解码的文件记录告警后跳过。
func (s *Store) LoadAll(ctx context.Context) ([]*model.HistoryEntry, error) {
	var pool *conc.Pool[*model.HistoryEntry]
	if s.workers > 0 {
		pool = conc.NewPool[*model.HistoryEntry](s.workers, conc.WithName("history-load"))
	} else {
		pool = conc.NewDefaultPool[*model.HistoryEntry](conc.WithName("history-load"))
	}
	defer pool.Release()

	futures := make([]*conc.Future[*model.HistoryEntry], 0)
	for key := range s.disk.Keys(ctx.Done()) {
		key := key
		futures = append(futures, pool.Submit(func() (*model.HistoryEntry, error) {
			id, err := url.PathUnescape(key)
			if err != nil {
				return nil, err
			}
			raw, err := s.disk.Read(key)
			if err != nil {
				return nil, err
			}
			return s.decode(id, raw)
		}))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]*model.HistoryEntry, 0, len(futures))
	for _, f := range futures {
		entry, err := f.Await()
		if err != nil {
			log.Ctx(ctx).Warn("skip unreadable history entry", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
