// Package memory implements store.Store against in-process maps. Entities are
// kept in tables keyed by id; navigation is a foreign-key scan over a table
// rather than embedded object pointers, so ownership stays explicit and the
// cascade rules live in one place. Data is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

// tables holds every entity table plus the unique-key indexes. A transaction
// snapshot is a deep copy of this struct.
type tables struct {
	services             map[int64]*models.Service
	policies             map[int64]*models.Policy
	procedures           map[int64]*models.Procedure
	checklistItems       map[int64]*models.ChecklistItem
	risks                map[int64]*models.Risk
	activityLogs         map[int64]*models.ActivityLog
	users                map[int64]*models.User
	usersByEmail         map[string]int64
	documents            map[int64]*models.Document
	schedules            map[int64]*models.ComplianceSchedule
	policyAcceptances    map[int64]*models.PolicyAcceptance
	procedureAcceptances map[int64]*models.ProcedureAcceptance
	invitations          map[int64]*models.UserInvitation
	invitationsByToken   map[string]int64
	reminders            map[int64]*models.Reminder

	nextID map[string]int64
}

func newTables() *tables {
	return &tables{
		services:             make(map[int64]*models.Service),
		policies:             make(map[int64]*models.Policy),
		procedures:           make(map[int64]*models.Procedure),
		checklistItems:       make(map[int64]*models.ChecklistItem),
		risks:                make(map[int64]*models.Risk),
		activityLogs:         make(map[int64]*models.ActivityLog),
		users:                make(map[int64]*models.User),
		usersByEmail:         make(map[string]int64),
		documents:            make(map[int64]*models.Document),
		schedules:            make(map[int64]*models.ComplianceSchedule),
		policyAcceptances:    make(map[int64]*models.PolicyAcceptance),
		procedureAcceptances: make(map[int64]*models.ProcedureAcceptance),
		invitations:          make(map[int64]*models.UserInvitation),
		invitationsByToken:   make(map[string]int64),
		reminders:            make(map[int64]*models.Reminder),
		nextID:               make(map[string]int64),
	}
}

func (t *tables) seq(table string) int64 {
	t.nextID[table]++
	return t.nextID[table]
}

// clone produces a deep copy for transaction snapshots. Entity structs contain
// only value fields and pointers to scalars, so a struct copy is enough.
func (t *tables) clone() *tables {
	c := newTables()
	for id, v := range t.services {
		cp := *v
		c.services[id] = &cp
	}
	for id, v := range t.policies {
		cp := *v
		c.policies[id] = &cp
	}
	for id, v := range t.procedures {
		cp := *v
		c.procedures[id] = &cp
	}
	for id, v := range t.checklistItems {
		cp := *v
		c.checklistItems[id] = &cp
	}
	for id, v := range t.risks {
		cp := *v
		c.risks[id] = &cp
	}
	for id, v := range t.activityLogs {
		cp := *v
		c.activityLogs[id] = &cp
	}
	for id, v := range t.users {
		cp := *v
		c.users[id] = &cp
	}
	for email, id := range t.usersByEmail {
		c.usersByEmail[email] = id
	}
	for id, v := range t.documents {
		cp := *v
		c.documents[id] = &cp
	}
	for id, v := range t.schedules {
		cp := *v
		c.schedules[id] = &cp
	}
	for id, v := range t.policyAcceptances {
		cp := *v
		c.policyAcceptances[id] = &cp
	}
	for id, v := range t.procedureAcceptances {
		cp := *v
		c.procedureAcceptances[id] = &cp
	}
	for id, v := range t.invitations {
		cp := *v
		c.invitations[id] = &cp
	}
	for token, id := range t.invitationsByToken {
		c.invitationsByToken[token] = id
	}
	for id, v := range t.reminders {
		cp := *v
		c.reminders[id] = &cp
	}
	for table, n := range t.nextID {
		c.nextID[table] = n
	}
	return c
}

// Store is the in-memory backend. Transactions are serialized under one lock;
// each Tx owns the live tables for its duration and a snapshot is restored on
// rollback, so a failed cascade leaves the graph untouched.
type Store struct {
	mu   sync.Mutex
	data *tables

	now func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		data: newTables(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithinTx runs fn against a transaction. Unless fn completes cleanly the
// pre-transaction snapshot is restored in full, even when fn panics; partial
// cascades are never observable.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return store.ErrTimeout
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	committed := false
	defer func() {
		if !committed {
			s.data = snapshot
		}
	}()

	tx := &Tx{data: s.data, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	return nil
}

// Ping always succeeds for the memory backend.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close discards all data.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = newTables()
}

// Tx implements store.Tx over the live tables. It must only be used from the
// request that opened it.
type Tx struct {
	data *tables
	now  func() time.Time
}

func (t *Tx) Compliance() store.ComplianceStore { return (*complianceStore)(t) }
func (t *Tx) Users() store.UserStore            { return (*userStore)(t) }
func (t *Tx) Documents() store.DocumentStore    { return (*documentStore)(t) }
func (t *Tx) Schedules() store.ScheduleStore    { return (*scheduleStore)(t) }
