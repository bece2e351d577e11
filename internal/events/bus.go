package events

import (
	"context"
	"errors"
	"sync"
)

// Handler reacts to a single event.
type Handler func(ctx context.Context, event Event) error

// FieldsProvider contributes extra fields to a form under construction.
type FieldsProvider func(ctx context.Context, event FormFieldsRequested) []Field

// Selector narrows a subscription. Empty members match anything.
type Selector struct {
	Entity string
	Change ChangeKind
	Form   string
}

func (s Selector) matches(r Route) bool {
	if s.Entity != "" && s.Entity != r.Entity {
		return false
	}
	if s.Change != "" && s.Change != r.Change {
		return false
	}
	if s.Form != "" && s.Form != r.Form {
		return false
	}
	return true
}

type subscription struct {
	selector Selector
	handler  Handler
}

type fieldsSubscription struct {
	form     string
	provider FieldsProvider
}

// Bus dispatches events synchronously to subscribers in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]subscription
	fields   []fieldsSubscription
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]subscription)}
}

func (b *Bus) Subscribe(kind Kind, selector Selector, handler Handler) {
	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], subscription{selector: selector, handler: handler})
	b.mu.Unlock()
}

// SubscribeFields registers provider for the form named form.
func (b *Bus) SubscribeFields(form string, provider FieldsProvider) {
	b.mu.Lock()
	b.fields = append(b.fields, fieldsSubscription{form: form, provider: provider})
	b.mu.Unlock()
}

// Publish runs every matching handler. All handlers run even when one fails;
// their errors are joined.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	route := event.Route()

	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[route.Kind]...)
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if !sub.selector.matches(route) {
			continue
		}
		if err := sub.handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CollectFields gathers the extra fields every provider contributes to form.
func (b *Bus) CollectFields(ctx context.Context, form string) []Field {
	b.mu.RLock()
	subs := append([]fieldsSubscription(nil), b.fields...)
	b.mu.RUnlock()

	event := FormFieldsRequested{Form: form}
	var out []Field
	for _, sub := range subs {
		if sub.form != "" && sub.form != form {
			continue
		}
		out = append(out, sub.provider(ctx, event)...)
	}
	return out
}
