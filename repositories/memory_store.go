package repositories

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/HSouheill/marketplace_backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memDoc struct {
	version uint64
	raw     []byte
	doc     bson.M // decoded from raw, never mutated
}

type docKey struct {
	collection string
	id         string
}

// MemoryStore is an in-process Store with optimistic concurrency. A transaction records the
// version of every document it reads and buffers its writes; commit fails with a transient
// error when any of those documents changed in the meantime. Used by tests and STORE_DRIVER=memory.
type MemoryStore struct {
	mu      sync.RWMutex
	colls   map[string]map[string]memDoc
	version uint64

	watchMu  sync.Mutex
	watchers map[int]*memWatcher
	nextID   int
}

type memWatcher struct {
	collection string
	filters    []compiledFilter
	ch         chan ChangeEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		colls:    make(map[string]map[string]memDoc),
		watchers: make(map[int]*memWatcher),
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	d, ok := s.colls[collection][id]
	s.mu.RUnlock()
	if !ok {
		return models.NotFound(fmt.Sprintf("%s %s not found", collection, id))
	}
	return bson.Unmarshal(d.raw, out)
}

func (s *MemoryStore) Find(ctx context.Context, collection string, q Query, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	docs := make([]bson.M, 0, len(s.colls[collection]))
	for _, d := range s.colls[collection] {
		docs = append(docs, d.doc)
	}
	s.mu.RUnlock()
	return runQuery(docs, q, out)
}

func runQuery(docs []bson.M, q Query, out interface{}) error {
	filters, err := compileFilters(q.Filters)
	if err != nil {
		return err
	}
	matched := make([]bson.M, 0, len(docs))
	for _, d := range docs {
		if matchesAll(d, filters) {
			matched = append(matched, d)
		}
	}
	sortDocs(matched, q.OrderBy, q.Descending)
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return decodeAll(matched, out)
}

func decodeAll(docs []bson.M, out interface{}) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("find: out must be a pointer to a slice, got %T", out)
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(docs))
	for _, d := range docs {
		raw, err := bson.Marshal(d)
		if err != nil {
			return err
		}
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}

func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{
		store:  s,
		reads:  make(map[docKey]uint64),
		writes: make(map[docKey]*pendingWrite),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *MemoryStore) commit(tx *memTx) error {
	s.mu.Lock()
	for k, v := range tx.reads {
		if s.currentVersion(k) != v {
			s.mu.Unlock()
			return models.Transient(fmt.Errorf("write conflict on %s/%s", k.collection, k.id))
		}
	}
	for _, k := range tx.order {
		w := tx.writes[k]
		if w.create {
			if _, exists := s.colls[k.collection][k.id]; exists {
				s.mu.Unlock()
				return models.Conflict(fmt.Sprintf("%s %s already exists", k.collection, k.id))
			}
		}
	}

	events := make([]ChangeEvent, 0, len(tx.order))
	changed := make([]bson.M, 0, len(tx.order))
	for _, k := range tx.order {
		w := tx.writes[k]
		raw, err := bson.Marshal(w.doc)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		if s.colls[k.collection] == nil {
			s.colls[k.collection] = make(map[string]memDoc)
		}
		op := "update"
		if _, exists := s.colls[k.collection][k.id]; !exists {
			op = "insert"
		}
		s.version++
		s.colls[k.collection][k.id] = memDoc{version: s.version, raw: raw, doc: w.doc}
		events = append(events, ChangeEvent{Collection: k.collection, DocumentID: k.id, Operation: op})
		changed = append(changed, w.doc)
	}
	s.mu.Unlock()

	s.notify(events, changed)
	return nil
}

// currentVersion is 0 for a missing document. Callers hold mu.
func (s *MemoryStore) currentVersion(k docKey) uint64 {
	if d, ok := s.colls[k.collection][k.id]; ok {
		return d.version
	}
	return 0
}

func (s *MemoryStore) Watch(ctx context.Context, collection string, filters ...Filter) (<-chan ChangeEvent, error) {
	compiled, err := compileFilters(filters)
	if err != nil {
		return nil, err
	}
	w := &memWatcher{collection: collection, filters: compiled, ch: make(chan ChangeEvent, 16)}

	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = w
	s.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		s.watchMu.Lock()
		delete(s.watchers, id)
		close(w.ch)
		s.watchMu.Unlock()
	}()
	return w.ch, nil
}

// notify never blocks: a full buffer already holds a pending hint for that watcher.
func (s *MemoryStore) notify(events []ChangeEvent, docs []bson.M) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, w := range s.watchers {
		for i, ev := range events {
			if ev.Collection != w.collection || !matchesAll(docs[i], w.filters) {
				continue
			}
			select {
			case w.ch <- ev:
			default:
			}
		}
	}
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

type pendingWrite struct {
	doc    bson.M
	create bool
}

type memTx struct {
	store  *MemoryStore
	reads  map[docKey]uint64
	writes map[docKey]*pendingWrite
	order  []docKey
}

func (t *memTx) Get(ctx context.Context, collection, id string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, ok := t.read(docKey{collection, id})
	if !ok {
		return models.NotFound(fmt.Sprintf("%s %s not found", collection, id))
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

// read returns the transaction's view of one document and records the version it saw.
func (t *memTx) read(k docKey) (bson.M, bool) {
	if w, ok := t.writes[k]; ok {
		return w.doc, true
	}
	t.store.mu.RLock()
	d, ok := t.store.colls[k.collection][k.id]
	t.store.mu.RUnlock()
	if _, seen := t.reads[k]; !seen {
		t.reads[k] = d.version
	}
	if !ok {
		return nil, false
	}
	return d.doc, true
}

func (t *memTx) Find(ctx context.Context, collection string, q Query, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.mu.RLock()
	docs := make([]bson.M, 0, len(t.store.colls[collection]))
	for id, d := range t.store.colls[collection] {
		k := docKey{collection, id}
		if w, ok := t.writes[k]; ok {
			docs = append(docs, w.doc)
			continue
		}
		if _, seen := t.reads[k]; !seen {
			t.reads[k] = d.version
		}
		docs = append(docs, d.doc)
	}
	t.store.mu.RUnlock()
	for _, k := range t.order {
		if k.collection != collection || !t.writes[k].create {
			continue
		}
		docs = append(docs, t.writes[k].doc)
	}
	return runQuery(docs, q, out)
}

func (t *memTx) Create(ctx context.Context, collection string, doc interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m, err := Canonicalize(doc)
	if err != nil {
		return "", err
	}
	id, _ := m["_id"].(string)
	if id == "" {
		id = primitive.NewObjectID().Hex()
		m["_id"] = id
	}
	k := docKey{collection, id}
	if _, exists := t.read(k); exists {
		return "", models.Conflict(fmt.Sprintf("%s %s already exists", collection, id))
	}
	t.put(k, m, true)
	return id, nil
}

func (t *memTx) Set(ctx context.Context, collection, id string, doc interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := Canonicalize(doc)
	if err != nil {
		return err
	}
	m["_id"] = id
	k := docKey{collection, id}
	_, exists := t.read(k)
	create := !exists
	if w, ok := t.writes[k]; ok {
		create = w.create
	}
	t.put(k, m, create)
	return nil
}

func (t *memTx) Update(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := docKey{collection, id}
	current, ok := t.read(k)
	if !ok {
		return models.NotFound(fmt.Sprintf("%s %s not found", collection, id))
	}
	set, err := Canonicalize(fields)
	if err != nil {
		return err
	}
	merged := make(bson.M, len(current)+len(set))
	for key, v := range current {
		merged[key] = v
	}
	for key, v := range set {
		if key == "_id" {
			continue
		}
		merged[key] = v
	}
	create := false
	if w, ok := t.writes[k]; ok {
		create = w.create
	}
	t.put(k, merged, create)
	return nil
}

func (t *memTx) put(k docKey, doc bson.M, create bool) {
	if _, ok := t.writes[k]; !ok {
		t.order = append(t.order, k)
	}
	t.writes[k] = &pendingWrite{doc: doc, create: create}
}
