package query

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/student"
	"github.com/fccthegurukul/gurukul-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type memCache struct {
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	b, ok := c.data[key]
	if !ok {
		return errors.New("miss")
	}
	return json.Unmarshal(b, dest)
}

func (c *memCache) Set(_ context.Context, key string, v interface{}, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	c.sets++
	return nil
}

type stubStudents struct {
	student.Repository
	rows     map[shared.FccID]student.Admission
	skills   []student.Skill
	fee      *student.TuitionFee
	feeCalls int
}

func (s *stubStudents) List(context.Context) ([]student.Admission, error) {
	out := make([]student.Admission, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubStudents) GetByFccID(_ context.Context, id shared.FccID) (*student.Admission, error) {
	a, ok := s.rows[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return &a, nil
}

func (s *stubStudents) ListSkills(context.Context, shared.FccID) ([]student.Skill, error) {
	return s.skills, nil
}

func (s *stubStudents) GetTuitionFee(context.Context, shared.FccID) (*student.TuitionFee, error) {
	s.feeCalls++
	if s.fee == nil {
		return nil, shared.ErrTuitionFeeNotFound
	}
	return s.fee, nil
}

type stubLedger struct {
	leaderboard.Repository
	records []leaderboard.Record
	classes []string
}

func (l *stubLedger) ListRanked(_ context.Context, class string, limit int) ([]leaderboard.Record, error) {
	var out []leaderboard.Record
	for _, r := range l.records {
		if class == "" || r.FccClass == class {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalScore > out[j].TotalScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *stubLedger) ListTaskProgress(context.Context, shared.FccID, string) ([]leaderboard.TaskProgress, error) {
	return nil, nil
}

func (l *stubLedger) GetRecord(_ context.Context, id shared.FccID) (*leaderboard.Record, error) {
	for _, r := range l.records {
		if r.FccID == id {
			return &r, nil
		}
	}
	return nil, shared.NewDomainError("leaderboard", "GetRecord", shared.ErrNotFound, "not found")
}

func (l *stubLedger) ListClasses(context.Context) ([]string, error) { return l.classes, nil }

type stubProjection struct {
	leaderboard.Projection
	entries []leaderboard.RankedEntry
	err     error
}

func (p *stubProjection) Top(context.Context, string, int) ([]leaderboard.RankedEntry, error) {
	return p.entries, p.err
}

type stubPhotos map[shared.FccID]string

func (p stubPhotos) PhotoURL(id shared.FccID) (string, bool) {
	u, ok := p[id]
	return u, ok
}

const fid = shared.FccID("1234200024")

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

func TestStudentQueries_ListFormatsDate(t *testing.T) {
	admitted := time.Date(2024, 1, 31, 18, 30, 0, 0, time.UTC) // 1 Feb 00:00 IST
	students := &stubStudents{rows: map[shared.FccID]student.Admission{fid: {FccID: fid, AdmissionDate: admitted}}}

	out, err := NewStudentQueries(students, nil, nil).List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, timeutil.FormatDisplay(admitted), out[0].AdmissionDate)
	assert.Equal(t, "01/02/24 12:00 AM", out[0].AdmissionDate)
}

func TestStudentQueries_ProfilePhoto(t *testing.T) {
	students := &stubStudents{rows: map[shared.FccID]student.Admission{fid: {FccID: fid}}}
	q := NewStudentQueries(students, stubPhotos{fid: "https://cdn/x.jpg"}, nil)

	p, err := q.Profile(context.Background(), fid)
	require.NoError(t, err)
	require.NotNil(t, p.PhotoURL)
	assert.Equal(t, "https://cdn/x.jpg", *p.PhotoURL)

	_, err = q.Profile(context.Background(), "9999200024")
	assert.True(t, shared.IsNotFound(err))
}

func TestStudentQueries_SkillsDefaultsAndEmpty(t *testing.T) {
	students := &stubStudents{}
	q := NewStudentQueries(students, nil, nil)

	_, err := q.Skills(context.Background(), fid)
	assert.ErrorIs(t, err, shared.ErrSkillsNotFound)

	students.skills = []student.Skill{{SkillName: "Maths"}}
	out, err := q.Skills(context.Background(), fid)
	require.NoError(t, err)
	assert.Equal(t, student.DefaultSkillLevel, out[0].SkillLevel)
	assert.Equal(t, student.DefaultSkillStatus, out[0].Status)
}

func TestStudentQueries_TuitionFeeCached(t *testing.T) {
	students := &stubStudents{fee: &student.TuitionFee{Class: "10th"}}
	cache := newMemCache()
	q := NewStudentQueries(students, nil, cache)

	for i := 0; i < 3; i++ {
		fee, err := q.TuitionFee(context.Background(), fid)
		require.NoError(t, err)
		assert.Equal(t, "10th", fee.Class)
	}
	assert.Equal(t, 1, students.feeCalls)
	assert.Equal(t, 1, cache.sets)
}

func TestStudentQueries_TuitionFeeMissNotCached(t *testing.T) {
	students := &stubStudents{}
	cache := newMemCache()

	_, err := NewStudentQueries(students, nil, cache).TuitionFee(context.Background(), fid)
	assert.ErrorIs(t, err, shared.ErrTuitionFeeNotFound)
	assert.Zero(t, cache.sets)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

func boardFixture() (*stubStudents, *stubLedger) {
	students := &stubStudents{rows: map[shared.FccID]student.Admission{
		fid:          {FccID: fid, FccClass: "10th"},
		"5555200024": {FccID: "5555200024"},
	}}
	ledger := &stubLedger{records: []leaderboard.Record{
		{FccID: "1111200024", FccClass: "9th", TotalScore: 50},
		{FccID: fid, FccClass: "10th", TotalScore: 30},
		{FccID: "2222200024", FccClass: "10th", TotalScore: 30},
	}}
	return students, ledger
}

func TestLeaderboardQueries_Board(t *testing.T) {
	students, ledger := boardFixture()
	q := NewLeaderboardQueries(ledger, students, nil, nil, 100)

	board, err := q.Board(context.Background(), GetBoardQuery{FccID: fid, ClassFilter: "all"})
	require.NoError(t, err)
	assert.Len(t, board.Leaderboard, 3)
	require.NotNil(t, board.Student)
	assert.Equal(t, 30, board.Student.TotalScore)
	assert.NotNil(t, board.Tasks)

	board, err = q.Board(context.Background(), GetBoardQuery{FccID: fid, ClassFilter: "9th"})
	require.NoError(t, err)
	assert.Len(t, board.Leaderboard, 1)
}

func TestLeaderboardQueries_BoardWithoutClass(t *testing.T) {
	students, ledger := boardFixture()
	q := NewLeaderboardQueries(ledger, students, nil, nil, 100)

	_, err := q.Board(context.Background(), GetBoardQuery{FccID: "5555200024"})
	assert.ErrorIs(t, err, shared.ErrStudentClassNotFound)
	assert.True(t, shared.IsValidation(err))
}

func TestLeaderboardQueries_TopFallsBackToDatabase(t *testing.T) {
	students, ledger := boardFixture()
	proj := &stubProjection{err: errors.New("redis down")}
	q := NewLeaderboardQueries(ledger, students, proj, nil, 100)

	top, err := q.Top(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.EqualValues(t, 1, top[0].Rank)
	assert.EqualValues(t, 2, top[1].Rank)
	assert.EqualValues(t, 2, top[2].Rank)
}

func TestLeaderboardQueries_TopFromProjection(t *testing.T) {
	students, ledger := boardFixture()
	proj := &stubProjection{entries: []leaderboard.RankedEntry{{Rank: 1, FccID: fid, TotalScore: 99}}}
	q := NewLeaderboardQueries(ledger, students, proj, nil, 100)

	top, err := q.Top(context.Background(), "ALL", 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 99, top[0].TotalScore)
}

func TestLeaderboardQueries_ClassesCached(t *testing.T) {
	students, ledger := boardFixture()
	ledger.classes = []string{"10th", "9th"}
	cache := newMemCache()
	q := NewLeaderboardQueries(ledger, students, nil, cache, 100)

	out, err := q.Classes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"10th", "9th"}, out)

	ledger.classes = nil
	out, err = q.Classes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"10th", "9th"}, out)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE
// ══════════════════════════════════════════════════════════════════════════════

type stubPresence struct {
	presence.Repository
	state *presence.State
}

func (s *stubPresence) GetState(context.Context, shared.FccID) (*presence.State, error) {
	if s.state == nil {
		return nil, shared.ErrPresenceNotFound
	}
	return s.state, nil
}

func (s *stubPresence) ListLogs(context.Context, shared.FccID) ([]presence.LogEntry, error) {
	return nil, nil
}

func TestPresenceQueries_History(t *testing.T) {
	q := NewPresenceQueries(&stubPresence{}, nil)
	_, err := q.History(context.Background(), fid)
	assert.True(t, shared.IsNotFound(err))

	q = NewPresenceQueries(&stubPresence{state: &presence.State{FccID: fid}}, nil)
	h, err := q.History(context.Background(), fid)
	require.NoError(t, err)
	assert.Equal(t, fid, h.Student.FccID)
	assert.NotNil(t, h.Logs)

	_, err = q.OnCampus(context.Background())
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}
