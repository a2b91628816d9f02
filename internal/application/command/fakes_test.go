package command

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/payment"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/quiz"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTOR
// ══════════════════════════════════════════════════════════════════════════════

// snapshotter is a fake store that can roll back to an earlier state.
type snapshotter interface {
	snapshot() (restore func())
}

// fakeTx snapshots every registered store and restores them when fn fails.
type fakeTx struct {
	stores    []snapshotter
	commits   int
	rollbacks int
}

func newFakeTx(stores ...snapshotter) *fakeTx {
	return &fakeTx{stores: stores}
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	restores := make([]func(), len(t.stores))
	for i, s := range t.stores {
		restores[i] = s.snapshot()
	}
	if err := fn(ctx); err != nil {
		for _, r := range restores {
			r()
		}
		t.rollbacks++
		return err
	}
	t.commits++
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENTS AND CLOCK
// ══════════════════════════════════════════════════════════════════════════════

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE
// ══════════════════════════════════════════════════════════════════════════════

type logKey struct {
	id   shared.FccID
	date time.Time
}

type fakePresenceRepo struct {
	states map[shared.FccID]presence.State
	logs   map[logKey]presence.LogEntry
	writes int

	// concurrent is committed by another signal right after the next
	// state read, before this one inserts.
	concurrent *presence.State
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{
		states: make(map[shared.FccID]presence.State),
		logs:   make(map[logKey]presence.LogEntry),
	}
}

func (r *fakePresenceRepo) snapshot() func() {
	states := make(map[shared.FccID]presence.State, len(r.states))
	for k, v := range r.states {
		states[k] = v
	}
	logs := make(map[logKey]presence.LogEntry, len(r.logs))
	for k, v := range r.logs {
		logs[k] = v
	}
	writes := r.writes
	return func() { r.states, r.logs, r.writes = states, logs, writes }
}

func (r *fakePresenceRepo) GetStateForUpdate(ctx context.Context, id shared.FccID) (*presence.State, error) {
	s, err := r.GetState(ctx, id)
	if c := r.concurrent; c != nil {
		r.concurrent = nil
		r.states[c.FccID] = *c
	}
	return s, err
}

func (r *fakePresenceRepo) GetState(_ context.Context, id shared.FccID) (*presence.State, error) {
	s, ok := r.states[id]
	if !ok {
		return nil, shared.ErrPresenceNotFound
	}
	return &s, nil
}

func (r *fakePresenceRepo) InsertState(_ context.Context, s *presence.State) (bool, error) {
	if _, exists := r.states[s.FccID]; exists {
		return false, nil
	}
	r.states[s.FccID] = *s
	r.writes++
	return true, nil
}

func (r *fakePresenceRepo) UpdateState(_ context.Context, id shared.FccID, p presence.Patch) error {
	s, ok := r.states[id]
	if !ok {
		return shared.ErrPresenceNotFound
	}
	s.Apply(p)
	r.states[id] = s
	r.writes++
	return nil
}

func (r *fakePresenceRepo) UpsertLog(_ context.Context, id shared.FccID, date time.Time, p presence.Patch) error {
	k := logKey{id, date}
	e, ok := r.logs[k]
	if !ok {
		e = presence.LogEntry{FccID: id, LogDate: date}
	}
	e.Merge(p)
	r.logs[k] = e
	r.writes++
	return nil
}

func (r *fakePresenceRepo) ListLogs(_ context.Context, id shared.FccID) ([]presence.LogEntry, error) {
	var out []presence.LogEntry
	for k, v := range r.logs {
		if k.id == id {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogDate.After(out[j].LogDate) })
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

type fakeLedger struct {
	records   map[shared.FccID]leaderboard.Record
	taskLogs  []leaderboard.TaskLog
	auditLogs []leaderboard.LogEntry
	failAudit error
}

func newFakeLedger(records ...leaderboard.Record) *fakeLedger {
	l := &fakeLedger{records: make(map[shared.FccID]leaderboard.Record)}
	for i, r := range records {
		r.ID = int64(i + 1)
		l.records[r.FccID] = r
	}
	return l
}

func (l *fakeLedger) snapshot() func() {
	records := make(map[shared.FccID]leaderboard.Record, len(l.records))
	for k, v := range l.records {
		records[k] = v
	}
	taskLogs := append([]leaderboard.TaskLog(nil), l.taskLogs...)
	auditLogs := append([]leaderboard.LogEntry(nil), l.auditLogs...)
	return func() { l.records, l.taskLogs, l.auditLogs = records, taskLogs, auditLogs }
}

func (l *fakeLedger) InsertTaskLog(_ context.Context, log *leaderboard.TaskLog) error {
	log.ID = int64(len(l.taskLogs) + 1)
	l.taskLogs = append(l.taskLogs, *log)
	return nil
}

func (l *fakeLedger) IncrementScore(_ context.Context, id shared.FccID, delta int, at time.Time) (*leaderboard.Record, error) {
	rec, ok := l.records[id]
	if !ok {
		return nil, shared.ErrLeaderboardRecordMissing
	}
	rec.TotalScore += delta
	rec.LastUpdated = at
	l.records[id] = rec
	return &rec, nil
}

func (l *fakeLedger) AppendLog(_ context.Context, e *leaderboard.LogEntry) error {
	if l.failAudit != nil {
		return l.failAudit
	}
	e.ID = int64(len(l.auditLogs) + 1)
	l.auditLogs = append(l.auditLogs, *e)
	return nil
}

func (l *fakeLedger) ListRanked(_ context.Context, class string, limit int) ([]leaderboard.Record, error) {
	var out []leaderboard.Record
	for _, r := range l.records {
		if class == "" || r.FccClass == class {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalScore > out[j].TotalScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *fakeLedger) ListTaskProgress(context.Context, shared.FccID, string) ([]leaderboard.TaskProgress, error) {
	return nil, nil
}

func (l *fakeLedger) GetRecord(_ context.Context, id shared.FccID) (*leaderboard.Record, error) {
	rec, ok := l.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &rec, nil
}

func (l *fakeLedger) ListClasses(context.Context) ([]string, error) { return nil, nil }

// ══════════════════════════════════════════════════════════════════════════════
// PAYMENTS AND RECEIPTS
// ══════════════════════════════════════════════════════════════════════════════

type fakePayments struct {
	payments      []payment.Payment
	receipts      []payment.Receipt
	failReceipt   error
	statusUpdates int
}

func (r *fakePayments) snapshot() func() {
	payments := append([]payment.Payment(nil), r.payments...)
	receipts := append([]payment.Receipt(nil), r.receipts...)
	updates := r.statusUpdates
	return func() { r.payments, r.receipts, r.statusUpdates = payments, receipts, updates }
}

func (r *fakePayments) Insert(_ context.Context, p *payment.Payment) error {
	p.ID = int64(len(r.payments) + 1)
	r.payments = append(r.payments, *p)
	return nil
}

func (r *fakePayments) InsertReceipt(_ context.Context, rc *payment.Receipt) error {
	if r.failReceipt != nil {
		return r.failReceipt
	}
	rc.ID = int64(len(r.receipts) + 1)
	r.receipts = append(r.receipts, *rc)
	return nil
}

func (r *fakePayments) List(context.Context, payment.Filter) ([]payment.Payment, error) {
	return r.payments, nil
}

func (r *fakePayments) UpdateStatusByFccID(_ context.Context, id shared.FccID, status string) (int64, error) {
	var n int64
	for i := range r.payments {
		if r.payments[i].FccID == id {
			r.payments[i].PaymentStatus = status
			n++
		}
	}
	r.statusUpdates++
	return n, nil
}

type fakeRenderer struct {
	mu        sync.Mutex
	rendered  []payment.ReceiptDocument
	discarded []payment.Artifact
	err       error
	delay     time.Duration
	// stubborn renderers finish the delay even after cancellation.
	stubborn bool
}

func (r *fakeRenderer) Render(ctx context.Context, doc payment.ReceiptDocument) (payment.Artifact, error) {
	switch {
	case r.delay > 0 && r.stubborn:
		time.Sleep(r.delay)
	case r.delay > 0:
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return payment.Artifact{}, ctx.Err()
		}
	}
	if r.err != nil {
		return payment.Artifact{}, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered = append(r.rendered, doc)
	return payment.Artifact{PDFPath: "pdf", QRPath: "qr"}, nil
}

func (r *fakeRenderer) Discard(a payment.Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discarded = append(r.discarded, a)
}

func (r *fakeRenderer) discards() []payment.Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]payment.Artifact(nil), r.discarded...)
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

type fakeStudents struct {
	rows map[shared.FccID]student.Admission
}

func newFakeStudents(rows ...student.Admission) *fakeStudents {
	s := &fakeStudents{rows: make(map[shared.FccID]student.Admission)}
	for _, r := range rows {
		s.rows[r.FccID] = r
	}
	return s
}

func (s *fakeStudents) snapshot() func() {
	rows := make(map[shared.FccID]student.Admission, len(s.rows))
	for k, v := range s.rows {
		rows[k] = v
	}
	return func() { s.rows = rows }
}

func (s *fakeStudents) Insert(_ context.Context, a *student.Admission) error {
	if _, dup := s.rows[a.FccID]; dup {
		return shared.ErrStudentAlreadyExists
	}
	a.ID = int64(len(s.rows) + 1)
	s.rows[a.FccID] = *a
	return nil
}

func (s *fakeStudents) List(context.Context) ([]student.Admission, error) {
	out := make([]student.Admission, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStudents) GetByFccID(_ context.Context, id shared.FccID) (*student.Admission, error) {
	a, ok := s.rows[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return &a, nil
}

func (s *fakeStudents) ApplyUpdate(_ context.Context, id shared.FccID, u student.Update) (*student.Admission, error) {
	a, ok := s.rows[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	a.Apply(u)
	s.rows[id] = a
	return &a, nil
}

func (s *fakeStudents) ListSkills(context.Context, shared.FccID) ([]student.Skill, error) {
	return nil, nil
}

func (s *fakeStudents) GetTuitionFee(context.Context, shared.FccID) (*student.TuitionFee, error) {
	return nil, shared.ErrTuitionFeeNotFound
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ
// ══════════════════════════════════════════════════════════════════════════════

type fakeQuizzes struct {
	questions []quiz.Question
	sessions  map[int64]quiz.Session
	attempts  []quiz.Attempt
	nextID    int64
	start     time.Time
}

func newFakeQuizzes(start time.Time, qs ...quiz.Question) *fakeQuizzes {
	return &fakeQuizzes{questions: qs, sessions: make(map[int64]quiz.Session), start: start}
}

func (q *fakeQuizzes) snapshot() func() {
	sessions := make(map[int64]quiz.Session, len(q.sessions))
	for k, v := range q.sessions {
		sessions[k] = v
	}
	attempts := append([]quiz.Attempt(nil), q.attempts...)
	return func() { q.sessions, q.attempts = sessions, attempts }
}

func (q *fakeQuizzes) ListByTopic(_ context.Context, topic string) ([]quiz.Question, error) {
	var out []quiz.Question
	for _, x := range q.questions {
		if x.SkillTopic == topic {
			out = append(out, x)
		}
	}
	return out, nil
}

func (q *fakeQuizzes) AnswerKey(_ context.Context, ids []int64) (map[int64]string, error) {
	key := make(map[int64]string)
	for _, id := range ids {
		for _, x := range q.questions {
			if x.QuizID == id {
				key[id] = x.CorrectAnswer
			}
		}
	}
	return key, nil
}

func (q *fakeQuizzes) CreateSession(_ context.Context, s *quiz.Session) error {
	q.nextID++
	s.SessionID = q.nextID
	s.StartTime = q.start
	q.sessions[s.SessionID] = *s
	return nil
}

func (q *fakeQuizzes) GetSessionForUpdate(_ context.Context, id int64) (*quiz.Session, error) {
	s, ok := q.sessions[id]
	if !ok {
		return nil, shared.ErrQuizSessionNotFound
	}
	return &s, nil
}

func (q *fakeQuizzes) InsertAttempts(_ context.Context, as []quiz.Attempt) error {
	q.attempts = append(q.attempts, as...)
	return nil
}

func (q *fakeQuizzes) CloseSession(_ context.Context, s *quiz.Session) error {
	stored, ok := q.sessions[s.SessionID]
	if !ok {
		return shared.ErrQuizSessionNotFound
	}
	if stored.IsClosed() {
		return shared.ErrQuizSessionClosed
	}
	q.sessions[s.SessionID] = *s
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSISTANT
// ══════════════════════════════════════════════════════════════════════════════

type providerFunc func(ctx context.Context, prompt string) (string, error)

func (f providerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var errBoom = errors.New("boom")
