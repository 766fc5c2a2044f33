// Package checkout persists the in-progress checkout form as a time-boxed
// autosaved draft. Saves are fire-and-forget; the storage layer swallows
// failures, so a broken autosave never disturbs the checkout flow.
package checkout

import (
	"time"

	"go.uber.org/zap"

	"github.com/nagyyasser2/eshop-client-sub000/internal/domain"
	"github.com/nagyyasser2/eshop-client-sub000/internal/storage"
)

// DefaultTTL bounds how long a draft stays valid after its last save.
const DefaultTTL = 24 * time.Hour

// envelope is the stored shape: the draft plus its last-save timestamp in
// milliseconds. Storing both in one document keeps the expiry stamp and
// the data it governs atomic.
type envelope struct {
	Draft   domain.CheckoutDraft `json:"draft"`
	SavedAt int64                `json:"savedAt"`
}

// Partial is a partial draft update. Nil fields are left untouched;
// FormData and CompletedSections merge key-by-key rather than replacing
// the stored maps.
type Partial struct {
	FormData          map[string]any
	ActiveSection     *domain.CheckoutSection
	CompletedSections map[domain.CheckoutSection]bool
}

// Drafts manages checkout draft persistence.
type Drafts struct {
	store  storage.Store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// Option customizes a Drafts instance.
type Option func(*Drafts)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Drafts) { d.now = now }
}

// New creates a draft manager. A non-positive ttl falls back to DefaultTTL.
func New(store storage.Store, ttl time.Duration, logger *zap.Logger, opts ...Option) *Drafts {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	d := &Drafts{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load returns the stored draft, or the empty default when nothing usable
// is stored. A draft older than the TTL is purged eagerly and treated as
// absent. Missing substructures are filled with their defaults.
func (d *Drafts) Load() domain.CheckoutDraft {
	var env envelope
	if !d.store.Load(storage.DomainCheckout, &env) {
		return domain.EmptyDraft()
	}

	savedAt := time.UnixMilli(env.SavedAt)
	if d.now().Sub(savedAt) > d.ttl {
		d.logger.Debug("checkout draft expired, purging",
			zap.Time("saved_at", savedAt))
		d.store.Clear(storage.DomainCheckout)
		return domain.EmptyDraft()
	}

	draft := env.Draft
	if draft.FormData == nil {
		draft.FormData = map[string]any{}
	}
	if draft.ActiveSection == "" {
		draft.ActiveSection = domain.SectionShipping
	}
	if draft.CompletedSections == nil {
		draft.CompletedSections = map[domain.CheckoutSection]bool{}
	}
	return draft
}

// Save merges the partial update into the stored draft and rewrites it
// with a fresh timestamp. Every save renews the TTL window.
func (d *Drafts) Save(p Partial) {
	draft := d.Load()

	for k, v := range p.FormData {
		draft.FormData[k] = v
	}
	if p.ActiveSection != nil {
		draft.ActiveSection = *p.ActiveSection
	}
	for k, v := range p.CompletedSections {
		draft.CompletedSections[k] = v
	}

	d.store.Save(storage.DomainCheckout, envelope{
		Draft:   draft,
		SavedAt: d.now().UnixMilli(),
	})
}

// SaveFormData merges field values into the draft.
func (d *Drafts) SaveFormData(fields map[string]any) {
	d.Save(Partial{FormData: fields})
}

// SaveActiveSection records which section the user is on.
func (d *Drafts) SaveActiveSection(section domain.CheckoutSection) {
	d.Save(Partial{ActiveSection: &section})
}

// SaveCompletedSections merges section completion flags.
func (d *Drafts) SaveCompletedSections(sections map[domain.CheckoutSection]bool) {
	d.Save(Partial{CompletedSections: sections})
}

// ActiveSection returns the stored active section, defaulting to shipping.
func (d *Drafts) ActiveSection() domain.CheckoutSection {
	return d.Load().ActiveSection
}

// CompletedSections returns the stored completion flags, defaulting to an
// empty map.
func (d *Drafts) CompletedSections() map[domain.CheckoutSection]bool {
	return d.Load().CompletedSections
}

// HasSavedData reports whether any draft is stored at all. Existence check
// only: an expired draft still counts until something loads and purges it.
func (d *Drafts) HasSavedData() bool {
	var env envelope
	return d.store.Load(storage.DomainCheckout, &env)
}

// Clear removes the stored draft.
func (d *Drafts) Clear() {
	d.store.Clear(storage.DomainCheckout)
}
