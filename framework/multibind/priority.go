package multibind

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// Unordered is the priority of a contribution whose implementation type
// declares none. It sorts after every explicit priority.
const Unordered = math.MaxInt

// OrderTag is the struct tag key read from an Ordered marker field.
const OrderTag = "order"

// Ordered marks a struct type with a list priority. Embed it and set the
// priority through the `order` tag; lower values come first.
//
//	type Circle struct {
//	    multibind.Ordered `order:"100"`
//	}
//
// A marker without a tag, or with an empty one, resolves to Unordered.
type Ordered struct{}

var orderedType = reflect.TypeFor[Ordered]()

type memo struct {
	typ      reflect.Type
	priority int
	found    bool
}

type declaredInterface struct {
	iface    reflect.Type
	priority int
}

// PriorityResolver discovers the declared priority of an implementation
// type. Lookups are memoized per type; Declare invalidates the memo.
//
// A type's ancestors are its embedded fields. They are visited breadth
// first, nearest embedding depth first and, within one depth, in field
// declaration order. Each visited type is checked for an explicit
// declaration and then for an Ordered marker field; the first hit wins.
// Interfaces declared with Declare are consulted, in declaration order,
// only after every embedded type has been visited.
type PriorityResolver struct {
	mu         sync.RWMutex
	declared   map[reflect.Type]int
	interfaces []declaredInterface
	cache      *gocache.Cache
}

// NewPriorityResolver returns an empty resolver.
func NewPriorityResolver() *PriorityResolver {
	return &PriorityResolver{
		declared: make(map[reflect.Type]int),
		cache:    gocache.New(gocache.NoExpiration, 0),
	}
}

// Declare attaches priority to t. It is the way to order types that cannot
// embed Ordered: types owned by other packages, non-struct types and
// interfaces.
func (r *PriorityResolver) Declare(t reflect.Type, priority int) error {
	if t == nil {
		return errors.New("multibind: cannot declare a priority on a nil type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.Kind() == reflect.Interface {
		for i := range r.interfaces {
			if r.interfaces[i].iface == t {
				r.interfaces[i].priority = priority
				r.cache.Flush()
				return nil
			}
		}
		r.interfaces = append(r.interfaces, declaredInterface{iface: t, priority: priority})
	} else {
		r.declared[indirect(t)] = priority
	}
	r.cache.Flush()
	return nil
}

// Declare attaches priority to the type argument T.
//
//	multibind.Declare[*bytes.Buffer](resolver, 10)
func Declare[T any](r *PriorityResolver, priority int) error {
	return r.Declare(reflect.TypeFor[T](), priority)
}

// Resolve returns the priority of t, or Unordered when none is declared.
func (r *PriorityResolver) Resolve(t reflect.Type) int {
	p, _ := r.Lookup(t)
	return p
}

// Lookup returns the priority of t and whether any declaration was found.
// A marker with a defaulted value reports (Unordered, true).
func (r *PriorityResolver) Lookup(t reflect.Type) (int, bool) {
	if t == nil {
		return Unordered, false
	}
	key := t.String()
	if v, ok := r.cache.Get(key); ok {
		if m := v.(memo); m.typ == t {
			return m.priority, m.found
		}
	}

	// Declare flushes under the write lock, so a memo stored here is never stale.
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, found := r.walk(t)
	r.cache.Set(key, memo{typ: t, priority: p, found: found}, gocache.NoExpiration)
	return p, found
}

// Validate reports a malformed order tag anywhere in t's ancestry.
func (r *PriorityResolver) Validate(t reflect.Type) error {
	var err error
	visit(t, func(cur reflect.Type) bool {
		if _, _, tagErr := markerPriority(cur); tagErr != nil {
			err = tagErr
			return true
		}
		return false
	})
	return err
}

func (r *PriorityResolver) walk(t reflect.Type) (int, bool) {
	priority, found := Unordered, false
	visit(t, func(cur reflect.Type) bool {
		if p, ok := r.declared[cur]; ok {
			priority, found = p, true
			return true
		}
		if p, ok, _ := markerPriority(cur); ok {
			priority, found = p, true
			return true
		}
		return false
	})
	if found {
		return priority, true
	}

	base := indirect(t)
	ptr := reflect.PointerTo(base)
	for _, d := range r.interfaces {
		if base.Implements(d.iface) || ptr.Implements(d.iface) {
			return d.priority, true
		}
	}
	return Unordered, false
}

// visit walks t and its embedded types breadth first until fn returns true.
func visit(t reflect.Type, fn func(reflect.Type) bool) {
	if t == nil {
		return
	}
	start := indirect(t)
	queue := []reflect.Type{start}
	seen := map[reflect.Type]bool{start: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if fn(cur) {
			return
		}
		if cur.Kind() != reflect.Struct {
			continue
		}
		for i := range cur.NumField() {
			f := cur.Field(i)
			if !f.Anonymous {
				continue
			}
			ft := indirect(f.Type)
			if ft == orderedType || seen[ft] {
				continue
			}
			seen[ft] = true
			queue = append(queue, ft)
		}
	}
}

// markerPriority inspects the direct fields of t for an Ordered marker.
func markerPriority(t reflect.Type) (int, bool, error) {
	if t.Kind() != reflect.Struct {
		return 0, false, nil
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if indirect(f.Type) != orderedType {
			continue
		}
		tag := strings.TrimSpace(f.Tag.Get(OrderTag))
		if tag == "" {
			return Unordered, true, nil
		}
		p, err := strconv.Atoi(tag)
		if err != nil {
			return Unordered, true, &PriorityTagError{Type: t, Tag: tag}
		}
		return p, true, nil
	}
	return 0, false, nil
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
