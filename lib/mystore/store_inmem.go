package mystore

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// inMemoryTransactionKey is bound to one store, so a transaction on one
// store never skips the locking of another.
type inMemoryTransactionKey struct {
	owner any
}

type InMemoryStore[T any] struct {
	sync.Mutex
	Items map[string]T
}

func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		Items: make(map[string]T),
	}, func() {}, nil
}

func (s *InMemoryStore[T]) inTransaction(c context.Context) bool {
	return c.Value(inMemoryTransactionKey{owner: s}) != nil
}

func (s *InMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	if s.inTransaction(c) {
		return f(c)
	}

	// Start transaction
	s.Lock()
	defer s.Unlock()

	snapshot := maps.Clone(s.Items)

	ctx := context.WithValue(c, inMemoryTransactionKey{owner: s}, true)

	err := f(ctx)
	if err != nil {
		// Rollback
		s.Items = snapshot
		return err
	}

	return nil
}

func (s *InMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	s.Items[uid] = value

	return nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	result, exists := s.Items[uid]

	return result, exists, nil
}

func (s *InMemoryStore[T]) Delete(c context.Context, uid string) error {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	delete(s.Items, uid)

	return nil
}

func (s *InMemoryStore[T]) List(c context.Context) ([]T, error) {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	return s.sortedItems(), nil
}

func (s *InMemoryStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	result := []T{}
	for _, item := range s.sortedItems() {
		match, err := matches(item, filters)
		if err != nil {
			return nil, err
		}
		if match {
			result = append(result, item)
		}
	}

	if orderByField == "" {
		return result, nil
	}

	descending := strings.HasPrefix(orderByField, "-")
	fieldName := strings.TrimPrefix(orderByField, "-")

	var sortErr error
	sort.SliceStable(result, func(i, j int) bool {
		a, err := fieldOf(result[i], fieldName)
		if err != nil {
			sortErr = err
			return false
		}
		b, err := fieldOf(result[j], fieldName)
		if err != nil {
			sortErr = err
			return false
		}
		if descending {
			return less(b, a)
		}
		return less(a, b)
	})
	if sortErr != nil {
		return nil, sortErr
	}

	return result, nil
}

// sortedItems returns the items ordered on uid so results are stable.
func (s *InMemoryStore[T]) sortedItems() []T {
	keys := slices.Sorted(maps.Keys(s.Items))
	result := make([]T, 0, len(keys))
	for _, k := range keys {
		result = append(result, s.Items[k])
	}
	return result
}

func matches(item any, filters []Filter) (bool, error) {
	for _, f := range filters {
		value, err := fieldOf(item, f.Field)
		if err != nil {
			return false, err
		}
		equal := reflect.DeepEqual(value.Interface(), f.Value)
		switch f.Compare {
		case "=", "==":
			if !equal {
				return false, nil
			}
		case "!=":
			if equal {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported comparison '%s' on field %s", f.Compare, f.Field)
		}
	}
	return true, nil
}

func fieldOf(item any, fieldName string) (reflect.Value, error) {
	v := reflect.Indirect(reflect.ValueOf(item))
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("cannot select field %s on %s", fieldName, v.Kind())
	}
	field := v.FieldByName(fieldName)
	if !field.IsValid() {
		return reflect.Value{}, fmt.Errorf("unknown field %s on %s", fieldName, v.Type().Name())
	}
	return field, nil
}

func less(a, b reflect.Value) bool {
	if ta, ok := a.Interface().(time.Time); ok {
		return ta.Before(b.Interface().(time.Time))
	}
	switch a.Kind() {
	case reflect.String:
		return a.String() < b.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() < b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return a.Uint() < b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() < b.Float()
	case reflect.Bool:
		return !a.Bool() && b.Bool()
	default:
		return false
	}
}
