package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

const badgerKeyPrefix = "imported:"

// BadgerImportedRepo хранит импортированные миры во встроенной BadgerDB.
// Значения - JSON, сжатый zstd.
type BadgerImportedRepo struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu      sync.RWMutex
	isReady bool
}

// NewBadgerImportedRepo открывает базу в path. Пустой path - база в памяти.
func NewBadgerImportedRepo(path string) (*BadgerImportedRepo, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &BadgerImportedRepo{db: db, encoder: enc, decoder: dec, isReady: true}, nil
}

func (r *BadgerImportedRepo) ready() error {
	if !r.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	return nil
}

func (r *BadgerImportedRepo) encode(w ImportedWorld) ([]byte, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации мира %q: %w", w.Name, err)
	}
	return r.encoder.EncodeAll(data, nil), nil
}

func (r *BadgerImportedRepo) decode(val []byte) (ImportedWorld, error) {
	var w ImportedWorld
	data, err := r.decoder.DecodeAll(val, nil)
	if err != nil {
		return w, fmt.Errorf("ошибка распаковки: %w", err)
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("ошибка десериализации: %w", err)
	}
	return w, nil
}

func (r *BadgerImportedRepo) Save(ctx context.Context, w ImportedWorld) error {
	if err := validate(w); err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := r.encode(stamp(w))
	if err != nil {
		return err
	}
	key := []byte(badgerKeyPrefix + w.Name)
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, value)
	})
}

func (r *BadgerImportedRepo) Get(ctx context.Context, name string) (ImportedWorld, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.ready(); err != nil {
		return ImportedWorld{}, err
	}
	if err := ctx.Err(); err != nil {
		return ImportedWorld{}, err
	}

	var w ImportedWorld
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var derr error
			w, derr = r.decode(val)
			return derr
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ImportedWorld{}, ErrNotFound
	}
	if err != nil {
		return ImportedWorld{}, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return w, nil
}

func (r *BadgerImportedRepo) List(ctx context.Context) ([]ImportedWorld, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []ImportedWorld
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(badgerKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				w, err := r.decode(val)
				if err != nil {
					return err
				}
				out = append(out, w)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", err)
	}
	sortByImport(out)
	return out, nil
}

func (r *BadgerImportedRepo) Delete(ctx context.Context, name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(badgerKeyPrefix + name)
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// Close закрывает базу
func (r *BadgerImportedRepo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isReady {
		return nil
	}
	r.isReady = false
	r.encoder.Close()
	r.decoder.Close()
	return r.db.Close()
}
