// Package memstore implements storage.Store in a purely in-memory manner.
// Data does not survive a restart; it is intended for tests and for trying
// the app out without a database.
package memstore

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/plugins/storage"
)

// New returns a store that provides transient, in-memory storage.
func New() storage.Store {
	return &store{
		data: map[string]map[string][]byte{},
	}
}

type store struct {
	// data[tableName][entityID] = JSON
	data map[string]map[string][]byte
	mu   sync.RWMutex
}

func (s *store) Create(ctx context.Context, models ...storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Marshal and check for conflicts before writing anything, so a failure
	// part way through doesn't leave earlier models behind.
	values := make([][]byte, len(models))
	for i, m := range models {
		n := storage.Name(m)
		if s.data[n] != nil && s.data[n][m.PK()] != nil {
			return errors.Mark(storage.ErrAlreadyExists, 0)
		}
		value, err := json.Marshal(m)
		if err != nil {
			return errors.Mark(storage.ErrInvalidModel, 0).Append(err.Error())
		}
		values[i] = value
	}

	for i, m := range models {
		s.put(m, values[i])
	}
	return nil
}

func (s *store) Read(ctx context.Context, id string, model storage.Model) error {
	if err := storage.ValidateReceiver(model); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.get(storage.Name(model), id)
	if !ok {
		return errors.Mark(storage.ErrNotFound, 0)
	}
	return errors.MaybeWrap(json.Unmarshal(value, model), 0)
}

func (s *store) Update(ctx context.Context, models ...storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make([][]byte, len(models))
	for i, m := range models {
		value, err := json.Marshal(m)
		if err != nil {
			return errors.Mark(storage.ErrInvalidModel, 0).Append(err.Error())
		}
		if _, ok := s.get(storage.Name(m), m.PK()); !ok {
			return errors.Mark(storage.ErrNotFound, 0)
		}
		values[i] = value
	}

	for i, m := range models {
		s.put(m, values[i])
	}
	return nil
}

func (s *store) Upsert(ctx context.Context, models ...storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make([][]byte, len(models))
	for i, m := range models {
		value, err := json.Marshal(m)
		if err != nil {
			return errors.Mark(storage.ErrInvalidModel, 0).Append(err.Error())
		}
		values[i] = value
	}

	for i, m := range models {
		s.put(m, values[i])
	}
	return nil
}

func (s *store) Delete(ctx context.Context, model storage.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := storage.Name(model)
	id := model.PK()
	if _, ok := s.get(n, id); !ok {
		return errors.Mark(storage.ErrNotFound, 0)
	}
	delete(s.data[n], id)
	return nil
}

// List always performs a full scan of all items.
func (s *store) List(ctx context.Context, models any, filter storage.Model) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	modelsVal := reflect.ValueOf(models)
	if modelsVal.Kind() != reflect.Ptr || modelsVal.Elem().Kind() != reflect.Slice {
		return errors.Mark(storage.ErrSliceRequired, 0)
	}

	sliceVal := modelsVal.Elem()
	elemType := sliceVal.Type().Elem()
	if elemType != reflect.TypeOf(filter) {
		return errors.Mark(storage.ErrTypeMismatch, 0)
	}

	n := storage.Name(filter)
	if s.data[n] == nil {
		return nil
	}

	// Return models sorted by primary key.
	pks := make([]string, 0, len(s.data[n]))
	for pk := range s.data[n] {
		pks = append(pks, pk)
	}
	sort.Strings(pks)

	filterValue := reflect.ValueOf(filter)

	for _, pk := range pks {
		newElemPtr := reflect.New(elemType)
		newElem := newElemPtr.Elem()
		if err := json.Unmarshal(s.data[n][pk], newElemPtr.Interface()); err != nil {
			return errors.Mark(storage.ErrInvalidModel, 0).Append(err.Error())
		}
		// Skip if any non-zero field in filter differs from the corresponding
		// field in the model.
		skip := false
		for i := 0; i < newElem.NumField(); i++ {
			if shouldFilter(filterValue.Field(i)) {
				fieldVal := newElem.Field(i).Interface()
				testVal := filterValue.Field(i).Interface()
				if !reflect.DeepEqual(fieldVal, testVal) {
					skip = true
					break
				}
			}
		}
		if !skip {
			sliceVal.Set(reflect.Append(sliceVal, newElem))
		}
	}

	return nil
}

func (s *store) Exists(ctx context.Context, id string, model storage.Model) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.get(storage.Name(model), id)
	return ok, nil
}

// put writes a marshaled model. Callers must hold the write lock.
func (s *store) put(m storage.Model, value []byte) {
	n := storage.Name(m)
	if s.data[n] == nil {
		s.data[n] = map[string][]byte{}
	}
	s.data[n][m.PK()] = value
}

// get fetches raw bytes. Callers must hold at least the read lock.
func (s *store) get(table, id string) ([]byte, bool) {
	if s.data[table] == nil {
		return nil, false
	}
	value, ok := s.data[table][id]
	return value, ok
}

// shouldFilter returns true for non-zero values and non-nil pointers.
func shouldFilter(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return !v.IsNil()
	default:
		return !reflect.DeepEqual(v.Interface(), reflect.Zero(v.Type()).Interface())
	}
}
