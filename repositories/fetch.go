//go:generate go run go.uber.org/mock/mockgen -source=fetch.go -destination=../mocks/mock_fetch_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fake-fetch/domain"
	"fake-fetch/errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	FetchPrefix      = "fetch:"
	fetchIndexPrefix = "idx:fetch:"
)

type IFetchRepository interface {
	StoreFetch(record domain.FetchRecord) error
	GetFetch(id uuid.UUID) (domain.FetchRecord, error)
	ListFetches(limit *int, cursor *string) ([]domain.FetchRecord, *string, error)
}

type FetchRepository struct {
	db           *badger.DB
	log          *slog.Logger
	limitFetches *int
}

func NewFetchRepository(db *badger.DB, log *slog.Logger, limitFetches *int) FetchRepository {
	return FetchRepository{db: db, log: log, limitFetches: limitFetches}
}

// StoreFetch persists a settled fetch.
// The key is "fetch:{settled_at_padded}:{uuid}" so a prefix scan walks the journal
// in settlement order, the uuid breaking ties within the same nanosecond.
// A secondary key "idx:fetch:{uuid}" points back to it for lookups by id.
func (r FetchRepository) StoreFetch(record domain.FetchRecord) error {
	key := fetchKey(record)
	value, err := ToFetchStruct(record)
	if err != nil {
		return err
	}
	bytes, err := proto.Marshal(value)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(fetchIndexPrefix+record.ID.String()), []byte(key))
	})
}

func (r FetchRepository) GetFetch(id uuid.UUID) (domain.FetchRecord, error) {
	var raw []byte
	err := r.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get([]byte(fetchIndexPrefix + id.String()))
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.FetchRecord{}, fmt.Errorf("%w: %s", errors.ErrRecordNotFound, id)
	}
	if err != nil {
		return domain.FetchRecord{}, err
	}
	return DecodeFetchRecord(raw)
}

// ListFetches walks the journal newest first.
// It stops after limit records, falling back to the repository limit when limit is nil.
// The returned cursor resumes right after the last record read, it is nil once nothing was read.
func (r FetchRepository) ListFetches(limit *int, cursor *string) ([]domain.FetchRecord, *string, error) {
	if limit == nil {
		limit = r.limitFetches
	}
	var rawRecords [][]byte
	var lastKey string
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(FetchPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Past the newest possible key, then walk backwards
			seekKey = append([]byte(FetchPrefix), []byte("9999999999999999999")...)
		default:
			seekKey = append([]byte(FetchPrefix), []byte(*cursor)...)
		}
		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit != nil && len(rawRecords) == *limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d fetches reached", *limit))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			rawRecords = append(rawRecords, value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	records := make([]domain.FetchRecord, 0, len(rawRecords))
	for _, raw := range rawRecords {
		record, err := DecodeFetchRecord(raw)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return records, nil, nil
	}
	return records, &lastKey, nil
}

func fetchKey(record domain.FetchRecord) string {
	return fmt.Sprintf("%s%019d:%s", FetchPrefix, record.SettledAt.UnixNano(), record.ID)
}

// ToFetchStruct encodes a record as a protobuf Struct, shared by the journal and the gRPC surface.
func ToFetchStruct(record domain.FetchRecord) (*structpb.Struct, error) {
	fields := map[string]any{
		"id":           record.ID.String(),
		"delay":        record.Delay.String(),
		"state":        string(record.State),
		"error":        record.Error,
		"requested_at": record.RequestedAt.UTC().Format(time.RFC3339Nano),
		"settled_at":   record.SettledAt.UTC().Format(time.RFC3339Nano),
	}
	if record.Items != nil {
		fields["items"] = lo.Map(record.Items, func(item string, _ int) any { return item })
	}
	return structpb.NewStruct(fields)
}

// DecodeFetchRecord reads a journal value back into a record.
func DecodeFetchRecord(raw []byte) (domain.FetchRecord, error) {
	var value structpb.Struct
	if err := proto.Unmarshal(raw, &value); err != nil {
		return domain.FetchRecord{}, err
	}
	return FromFetchStruct(&value)
}

func FromFetchStruct(value *structpb.Struct) (domain.FetchRecord, error) {
	fields := value.GetFields()

	id, err := uuid.Parse(fields["id"].GetStringValue())
	if err != nil {
		return domain.FetchRecord{}, err
	}
	delay, err := time.ParseDuration(fields["delay"].GetStringValue())
	if err != nil {
		return domain.FetchRecord{}, err
	}
	requestedAt, err := time.Parse(time.RFC3339Nano, fields["requested_at"].GetStringValue())
	if err != nil {
		return domain.FetchRecord{}, err
	}
	settledAt, err := time.Parse(time.RFC3339Nano, fields["settled_at"].GetStringValue())
	if err != nil {
		return domain.FetchRecord{}, err
	}

	record := domain.FetchRecord{
		ID:          id,
		Delay:       delay,
		State:       domain.ToFetchState(fields["state"].GetStringValue()),
		Error:       fields["error"].GetStringValue(),
		RequestedAt: requestedAt.UTC(),
		SettledAt:   settledAt.UTC(),
	}
	if items, ok := fields["items"]; ok {
		record.Items = lo.Map(items.GetListValue().GetValues(), func(item *structpb.Value, _ int) string {
			return item.GetStringValue()
		})
	}
	return record, nil
}
