package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/rcliao/pawscribe/internal/model"
)

const slotPrefix = "slot/"

// BadgerSlots implements SlotStore on BadgerDB. Each slot is one JSON value
// under "slot/<name>".
type BadgerSlots struct {
	db *badger.DB
}

// NewBadgerSlots opens or creates a BadgerDB directory. An empty dir keeps
// everything in memory.
func NewBadgerSlots(dir string) (*BadgerSlots, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open slot db: %w", err)
	}
	return &BadgerSlots{db: db}, nil
}

func slotKey(name string) []byte { return []byte(slotPrefix + name) }

func (b *BadgerSlots) GetSlot(ctx context.Context, name string) (string, bool, error) {
	slot, err := b.slot(name)
	if errors.Is(err, ErrSlotNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return slot.Value, true, nil
}

func (b *BadgerSlots) slot(name string) (*model.Slot, error) {
	var slot model.Slot
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(slotKey(name))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%s: %w", name, ErrSlotNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &slot)
		})
	})
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (b *BadgerSlots) SetSlot(ctx context.Context, name, value string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		slot := model.Slot{Name: name, Value: value, Version: 1, UpdatedAt: time.Now().UTC()}

		item, err := txn.Get(slotKey(name))
		if err == nil {
			var prev model.Slot
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &prev)
			}); err != nil {
				return fmt.Errorf("unmarshal slot %s: %w", name, err)
			}
			slot.Version = prev.Version + 1
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		data, err := json.Marshal(slot)
		if err != nil {
			return fmt.Errorf("marshal slot %s: %w", name, err)
		}
		return txn.Set(slotKey(name), data)
	})
}

func (b *BadgerSlots) ListSlots(ctx context.Context) ([]model.Slot, error) {
	var slots []model.Slot
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10
		opts.Prefix = []byte(slotPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var slot model.Slot
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &slot)
			}); err != nil {
				return fmt.Errorf("unmarshal %s: %w", it.Item().Key(), err)
			}
			slots = append(slots, slot)
		}
		return nil
	})
	return slots, err
}

func (b *BadgerSlots) RmSlot(ctx context.Context, name string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(slotKey(name)); err == badger.ErrKeyNotFound {
			return fmt.Errorf("%s: %w", name, ErrSlotNotFound)
		} else if err != nil {
			return err
		}
		return txn.Delete(slotKey(name))
	})
}

// Close closes the BadgerDB instance.
func (b *BadgerSlots) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
