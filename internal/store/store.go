// The in-memory content store. REST response handlers and the push update
// reconciler both write here; views read copies and listen for changes.

package store

import (
	"log"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/vrsandeep/contentsync-go/internal/models"
)

// Store holds the content list, the currently viewed record and the
// pagination of the last listing.
//
// Every record lives exactly once in the entity table. The list and the
// current view refer to it by id, so the two can never diverge. A record is
// dropped from the table once it is neither listed nor current.
type Store struct {
	mu         sync.RWMutex
	entities   map[string]*models.Content
	order      []string
	listed     map[string]bool
	currentID  string
	byJob      map[string]string // job id -> content id
	lastSeq    map[string]uint64 // job id -> highest applied sequence number
	pagination models.Pagination

	listeners    map[uint64]func()
	nextListener uint64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		entities:  make(map[string]*models.Content),
		listed:    make(map[string]bool),
		byJob:     make(map[string]string),
		lastSeq:   make(map[string]uint64),
		listeners: make(map[uint64]func()),
	}
}

// Created records a newly created entity: it is prepended to the list and
// becomes the current view.
func (s *Store) Created(c *models.Content) {
	if c == nil || c.ID == "" {
		return
	}
	s.mu.Lock()
	s.put(c)
	s.unlist(c.ID)
	s.order = append([]string{c.ID}, s.order...)
	s.listed[c.ID] = true
	prev := s.currentID
	s.currentID = c.ID
	s.gc(prev)
	s.mu.Unlock()
	s.notify()
}

// Listed replaces the list and pagination with one fetched page.
func (s *Store) Listed(items []*models.Content, p models.Pagination) {
	s.mu.Lock()
	old := s.order
	s.order = make([]string, 0, len(items))
	s.listed = make(map[string]bool, len(items))
	for _, c := range items {
		if c == nil || c.ID == "" || s.listed[c.ID] {
			continue
		}
		s.put(c)
		s.order = append(s.order, c.ID)
		s.listed[c.ID] = true
	}
	for _, id := range old {
		s.gc(id)
	}
	s.pagination = p
	s.mu.Unlock()
	s.notify()
}

// Fetched sets the current view, independently of list membership. A listed
// record with the same id is refreshed too since both share one copy.
func (s *Store) Fetched(c *models.Content) {
	if c == nil || c.ID == "" {
		return
	}
	s.mu.Lock()
	s.put(c)
	prev := s.currentID
	s.currentID = c.ID
	s.gc(prev)
	s.mu.Unlock()
	s.notify()
}

// Updated replaces a known record with the server's copy after an edit.
// It reports whether a listed or current record matched.
func (s *Store) Updated(c *models.Content) bool {
	return s.replace(c)
}

// RolledBack replaces a known record after a rollback, which resets its
// content to the current generated content on the server.
func (s *Store) RolledBack(c *models.Content) bool {
	return s.replace(c)
}

func (s *Store) replace(c *models.Content) bool {
	if c == nil || c.ID == "" {
		return false
	}
	s.mu.Lock()
	if !s.listed[c.ID] && s.currentID != c.ID {
		s.mu.Unlock()
		return false
	}
	s.put(c)
	s.mu.Unlock()
	s.notify()
	return true
}

// Deleted removes a record after the server confirmed its deletion and
// clears the current view if it pointed at it.
func (s *Store) Deleted(id string) {
	s.mu.Lock()
	s.unlist(id)
	if s.currentID == id {
		s.currentID = ""
	}
	s.gc(id)
	s.mu.Unlock()
	s.notify()
}

// ApplyJobSnapshot merges a job status snapshot fetched over REST. Unlike
// push updates the snapshot is authoritative for content as well.
func (s *Store) ApplyJobSnapshot(c *models.Content) bool {
	if c == nil {
		return false
	}
	s.mu.Lock()
	e, ok := s.entities[c.ID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	snap := c.Clone()
	e.JobStatus = snap.JobStatus
	e.GeneratedContent = snap.GeneratedContent
	e.Content = snap.Content
	s.mu.Unlock()
	s.notify()
	return true
}

// List returns copies of the listed records, in list order.
func (s *Store) List() []*models.Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Content, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entities[id].Clone())
	}
	return out
}

// Current returns a copy of the currently viewed record, or nil.
func (s *Store) Current() *models.Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentID == "" {
		return nil
	}
	return s.entities[s.currentID].Clone()
}

// Get returns a copy of a listed or current record.
func (s *Store) Get(id string) (*models.Content, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// Pagination returns the pagination of the last listing.
func (s *Store) Pagination() models.Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

// ActiveJobIDs returns the job ids of listed records whose job has not yet
// reached a terminal status, in list order.
func (s *Store) ActiveJobIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	seen := make(map[string]bool)
	for _, id := range s.order {
		e := s.entities[id]
		if e.HasActiveJob() && !seen[*e.JobID] {
			seen[*e.JobID] = true
			ids = append(ids, *e.JobID)
		}
	}
	return ids
}

// AllActiveJobIDs is like ActiveJobIDs but also covers the current view.
func (s *Store) AllActiveJobIDs() []string {
	ids := s.ActiveJobIDs()
	cur := s.Current()
	if cur == nil || !cur.HasActiveJob() {
		return ids
	}
	for _, id := range ids {
		if id == *cur.JobID {
			return ids
		}
	}
	return append(ids, *cur.JobID)
}

// OnChange registers a callback run after every mutation and returns a
// function that unregisters it. Callbacks run without the store lock held,
// so they may read from or write to the store.
func (s *Store) OnChange(callback func()) func() {
	s.mu.Lock()
	s.nextListener++
	id := s.nextListener
	s.listeners[id] = callback
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		s.mu.RLock()
		callback, ok := s.listeners[id]
		s.mu.RUnlock()
		if ok {
			safeCall(callback)
		}
	}
}

func safeCall(callback func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: store change listener panicked: %v\n%s", r, debug.Stack())
		}
	}()
	callback()
}

// put stores a copy of c, keeping the job index in sync. Callers hold mu.
func (s *Store) put(c *models.Content) {
	if old, ok := s.entities[c.ID]; ok {
		s.unindexJob(old)
	}
	e := c.Clone()
	s.entities[c.ID] = e
	if jobID := e.JobIDValue(); jobID != "" {
		s.byJob[jobID] = e.ID
	}
}

// unlist removes id from the list. Callers hold mu.
func (s *Store) unlist(id string) {
	if !s.listed[id] {
		return
	}
	delete(s.listed, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// gc drops a record that is neither listed nor current. Callers hold mu.
func (s *Store) gc(id string) {
	if id == "" || s.listed[id] || s.currentID == id {
		return
	}
	e, ok := s.entities[id]
	if !ok {
		return
	}
	s.unindexJob(e)
	if jobID := e.JobIDValue(); jobID != "" {
		delete(s.lastSeq, jobID)
	}
	delete(s.entities, id)
}

func (s *Store) unindexJob(e *models.Content) {
	jobID := e.JobIDValue()
	if jobID != "" && s.byJob[jobID] == e.ID {
		delete(s.byJob, jobID)
	}
}
