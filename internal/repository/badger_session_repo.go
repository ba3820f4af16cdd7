package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"partyroom/internal/model"
)

const badgerSessionPrefix = "session/"

type badgerSessionRepo struct {
	db *badger.DB
}

// NewBadgerSessionRepo stores sessions in an embedded Badger database
func NewBadgerSessionRepo(db *badger.DB) SessionRepo {
	return &badgerSessionRepo{db: db}
}

func (r *badgerSessionRepo) key(code string) []byte {
	return []byte(badgerSessionPrefix + code)
}

func (r *badgerSessionRepo) Create(_ context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(r.key(session.Code))
		if err == nil {
			return ErrCodeTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(r.key(session.Code), data)
	})
}

func (r *badgerSessionRepo) GetByCode(_ context.Context, code string) (*model.Session, error) {
	var session *model.Session
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(r.key(code))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			session = &model.Session{}
			return json.Unmarshal(val, session)
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *badgerSessionRepo) Update(_ context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(r.key(session.Code), data)
	})
}

func (r *badgerSessionRepo) Delete(_ context.Context, code string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(r.key(code))
	})
}

func (r *badgerSessionRepo) List(_ context.Context) ([]*model.Session, error) {
	var sessions []*model.Session
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerSessionPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var s model.Session
				if err := json.Unmarshal(val, &s); err != nil {
					return err
				}
				sessions = append(sessions, &s)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return sessions, err
}

func (r *badgerSessionRepo) DeleteAll(ctx context.Context) (int64, error) {
	sessions, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := r.db.DropPrefix([]byte(badgerSessionPrefix)); err != nil {
		return 0, err
	}
	return int64(len(sessions)), nil
}
