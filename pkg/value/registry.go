package value

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrValueNotFound indicates no value is registered under an ID
	ErrValueNotFound = errors.New("value not found")

	// ErrNotList indicates the value exists but is not a list value
	ErrNotList = errors.New("value is not a list")

	// ErrDuplicateValue indicates a value with the same ID is already registered
	ErrDuplicateValue = errors.New("value already registered")

	// ErrNoSuchItem indicates the requested label or code is not in the list
	ErrNoSuchItem = errors.New("no such item")

	// ErrReadOnly indicates the value cannot be changed by the application
	ErrReadOnly = errors.New("value is read-only")

	// ErrCommitFailed indicates the device layer rejected the request
	ErrCommitFailed = errors.New("commit request failed")
)

// Committer sends a value's pending state to the device. Commit runs with the
// registry lock held, so implementations must return within a bounded time
// and must not call back into the registry.
type Committer interface {
	Commit(v Value) error
}

// Event types published by the registry.
const (
	EventValueAdded   = "value_added"
	EventValueChanged = "value_changed"
	EventValueRemoved = "value_removed"
)

// Event is published to subscribers whenever a value is added, removed, or
// its confirmed state changes.
type Event struct {
	Type      string     `json:"type"`
	ValueID   ID         `json:"-"`
	State     *ListState `json:"state,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Registry owns the values of a network and serializes access to them.
// It is the Link for every value it holds. A selection blocks every other
// registry call until its commit returns; the Z-Wave committer caps that at
// its commit timeout.
type Registry struct {
	mu        sync.Mutex
	values    map[ID]Value
	committer Committer
	commitErr error

	subscribers   []chan Event
	subscribersMu sync.Mutex
}

// NewRegistry creates an empty registry. committer may be nil, in which case
// every commit request fails until SetCommitter is called.
func NewRegistry(committer Committer) *Registry {
	return &Registry{
		values:    make(map[ID]Value),
		committer: committer,
	}
}

// SetCommitter replaces the device-layer committer.
func (r *Registry) SetCommitter(c Committer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committer = c
}

// RequestSet implements Link. It is only ever called while r.mu is held.
func (r *Registry) RequestSet(v Value) bool {
	if r.committer == nil {
		r.commitErr = errors.New("no committer attached")
		return false
	}
	r.commitErr = r.committer.Commit(v)
	if r.commitErr != nil {
		log.Warn().Err(r.commitErr).Str("value", v.ID().String()).Msg("Commit request failed")
		return false
	}
	return true
}

// ValueChanged implements Link.
func (r *Registry) ValueChanged(v Value) {
	log.Debug().Str("value", v.ID().String()).Msg("Value changed")
	r.publish(EventValueChanged, v)
}

// Add registers v and attaches the registry as its link.
func (r *Registry) Add(v Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := v.ID().Key()
	if _, ok := r.values[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateValue, key)
	}

	if l, ok := v.(*List); ok {
		l.Attach(r)
	}
	r.values[key] = v
	r.publish(EventValueAdded, v)
	return nil
}

// AddList creates and registers a list value.
func (r *Registry) AddList(id ID, label string, readOnly bool, items []Item, index int32) (*List, error) {
	l := NewList(id, label, readOnly, items, index, r)
	if err := r.Add(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Remove unregisters the value with the given ID.
func (r *Registry) Remove(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.values[id.Key()]
	if !ok {
		return ErrValueNotFound
	}
	delete(r.values, id.Key())
	r.publish(EventValueRemoved, v)
	return nil
}

// Has reports whether a value is registered under id.
func (r *Registry) Has(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.values[id.Key()]
	return ok
}

// State returns a snapshot of the list value with the given ID.
func (r *Registry) State(id ID) (ListState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.list(id)
	if err != nil {
		return ListState{}, err
	}
	return l.State(), nil
}

// Nodes returns the IDs of all nodes that have values, in ascending order.
func (r *Registry) Nodes() []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var nodes []uint8
	for id := range r.values {
		if !slices.Contains(nodes, id.NodeID) {
			nodes = append(nodes, id.NodeID)
		}
	}
	slices.Sort(nodes)
	return nodes
}

// Values returns snapshots of every list value on a node, ordered by command
// class, instance and index.
func (r *Registry) Values(nodeID uint8) []ListState {
	r.mu.Lock()
	defer r.mu.Unlock()

	var states []ListState
	for id, v := range r.values {
		if id.NodeID != nodeID {
			continue
		}
		if l, ok := v.(*List); ok {
			states = append(states, l.State())
		}
	}
	slices.SortFunc(states, func(a, b ListState) int {
		return compareIDs(a.ID, b.ID)
	})
	return states
}

// Each calls fn for every value, ordered by ID, while holding the registry
// lock. fn must not call back into the registry.
func (r *Registry) Each(fn func(v Value)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]ID, 0, len(r.values))
	for id := range r.values {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareIDs)
	for _, id := range ids {
		fn(r.values[id])
	}
}

// SelectByLabel requests the item with the given label on a list value. It
// reports whether a commit was sent; selecting the confirmed item sends none.
func (r *Registry) SelectByLabel(id ID, label string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.writableList(id)
	if err != nil {
		return false, err
	}
	index := l.IndexOfLabel(label)
	if index == NoIndex {
		return false, fmt.Errorf("%w: label %q", ErrNoSuchItem, label)
	}
	if index == l.Index() {
		return false, nil
	}

	r.commitErr = nil
	if !l.SetByLabel(label) {
		return false, r.commitFailure()
	}

	log.Debug().Str("value", id.String()).Str("label", label).Int32("pending", l.Pending()).Msg("Selection requested")
	return true, nil
}

// SelectByCode requests the item with the given code on a list value. See
// SelectByLabel.
func (r *Registry) SelectByCode(id ID, code int32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.writableList(id)
	if err != nil {
		return false, err
	}
	index := l.IndexOfCode(code)
	if index == NoIndex {
		return false, fmt.Errorf("%w: code %d", ErrNoSuchItem, code)
	}
	if index == l.Index() {
		return false, nil
	}

	r.commitErr = nil
	if !l.SetByCode(code) {
		return false, r.commitFailure()
	}

	log.Debug().Str("value", id.String()).Int32("code", code).Int32("pending", l.Pending()).Msg("Selection requested")
	return true, nil
}

// Confirm applies an index reported by the device.
func (r *Registry) Confirm(id ID, index int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.list(id)
	if err != nil {
		return err
	}
	l.OnConfirmedChange(index)
	return nil
}

// ConfirmCode applies a code reported by the device, resolving it to an
// index first. Codes that match no item are rejected.
func (r *Registry) ConfirmCode(id ID, code int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.list(id)
	if err != nil {
		return err
	}
	index := l.IndexOfCode(code)
	if index == NoIndex {
		return fmt.Errorf("%w: code %d", ErrNoSuchItem, code)
	}
	l.OnConfirmedChange(index)
	return nil
}

// Subscribe returns a channel that receives registry events.
func (r *Registry) Subscribe() chan Event {
	ch := make(chan Event, 16)
	r.subscribersMu.Lock()
	r.subscribers = append(r.subscribers, ch)
	r.subscribersMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription.
func (r *Registry) Unsubscribe(ch chan Event) {
	r.subscribersMu.Lock()
	defer r.subscribersMu.Unlock()

	for i, sub := range r.subscribers {
		if sub == ch {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

func (r *Registry) publish(typ string, v Value) {
	evt := Event{
		Type:      typ,
		ValueID:   v.ID(),
		Timestamp: time.Now(),
	}
	if l, ok := v.(*List); ok {
		s := l.State()
		evt.State = &s
	}

	r.subscribersMu.Lock()
	defer r.subscribersMu.Unlock()

	for _, ch := range r.subscribers {
		select {
		case ch <- evt:
		default:
			log.Warn().Str("value", v.ID().String()).Msg("Subscriber channel full, dropping event")
		}
	}
}

func (r *Registry) commitFailure() error {
	if r.commitErr == nil {
		return ErrCommitFailed
	}
	return fmt.Errorf("%w: %w", ErrCommitFailed, r.commitErr)
}

func (r *Registry) list(id ID) (*List, error) {
	v, ok := r.values[id.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrValueNotFound, id)
	}
	l, ok := v.(*List)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotList, id)
	}
	return l, nil
}

func (r *Registry) writableList(id ID) (*List, error) {
	l, err := r.list(id)
	if err != nil {
		return nil, err
	}
	if l.ReadOnly() {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, id)
	}
	return l, nil
}

func compareIDs(a, b ID) int {
	switch {
	case a.NodeID != b.NodeID:
		return int(a.NodeID) - int(b.NodeID)
	case a.CommandClassID != b.CommandClassID:
		return int(a.CommandClassID) - int(b.CommandClassID)
	case a.Instance != b.Instance:
		return int(a.Instance) - int(b.Instance)
	default:
		return int(a.Index) - int(b.Index)
	}
}
