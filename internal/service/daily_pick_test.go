package service

import (
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/repository"
	"github.com/m-hollow/NoirDB/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeClock 可手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequence 依次返回给定的下标，用完后重复最后一个
func sequence(values ...int) func(int) int {
	var mu sync.Mutex
	i := 0
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		v := values[min(i, len(values)-1)]
		i++
		return v
	}
}

func newTestDailyPick(t *testing.T, repos *repository.Repositories, intn func(int) int) (*DailyPickService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewDailyPickService(repos, 24*time.Hour, 10)
	svc.now = clock.Now
	svc.intn = intn
	return svc, clock
}

func TestDailyPickEmptyCatalog(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	svc, _ := newTestDailyPick(t, repos, sequence(0))

	_, err := svc.Current()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDailyPickBootstrapAndRotation(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	a := testutil.Movie(t, repos, "Double Indemnity")
	b := testutil.Movie(t, repos, "Mildred Pierce")
	testutil.Movie(t, repos, "The Lady from Shanghai")

	svc, clock := newTestDailyPick(t, repos, sequence(0, 0, 1))

	first, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, a.ID, first.MovieID)
	assert.Equal(t, 1, first.DailyCount)
	assert.True(t, first.Active)

	clock.Advance(23 * time.Hour)
	same, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, first.ID, same.ID)

	clock.Advance(time.Hour)
	next, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, b.ID, next.MovieID, "draw equal to current pick is skipped")
	assert.Equal(t, 2, next.DailyCount)
	assert.NotEqual(t, first.ID, next.ID)

	history, err := svc.History(10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	active := 0
	for _, h := range history {
		if h.Active {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestDailyPickFallsBackAfterMaxAttempts(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	testutil.Movie(t, repos, "Sweet Smell of Success")
	b := testutil.Movie(t, repos, "The Set-Up")
	c := testutil.Movie(t, repos, "Night and the City")

	// 每次都抽到第二部
	svc, clock := newTestDailyPick(t, repos, sequence(1))

	first, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, b.ID, first.MovieID)

	clock.Advance(25 * time.Hour)
	next, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, c.ID, next.MovieID)
	assert.Equal(t, 2, next.DailyCount)
}

func TestDailyPickFallbackWrapsAround(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	a := testutil.Movie(t, repos, "Brute Force")
	b := testutil.Movie(t, repos, "The Naked City")

	svc, clock := newTestDailyPick(t, repos, sequence(1))

	first, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, b.ID, first.MovieID)

	clock.Advance(48 * time.Hour)
	next, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, a.ID, next.MovieID)
}

func TestDailyPickSingleMovieKeepsCurrent(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	only := testutil.Movie(t, repos, "Touch of Evil")
	svc, clock := newTestDailyPick(t, repos, sequence(0))

	first, err := svc.Current()
	require.NoError(t, err)

	clock.Advance(72 * time.Hour)
	again, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, only.ID, again.MovieID)
}

func TestDailyPickDrawOutOfRangeKeepsCurrent(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	testutil.Movie(t, repos, "Crossfire")
	testutil.Movie(t, repos, "Dark Passage")

	svc, clock := newTestDailyPick(t, repos, sequence(0, 7))

	first, err := svc.Current()
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)
	again, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.Active)
}

func TestDailyPickConcurrentReadersRotateOnce(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	for _, name := range []string{"Key Largo", "Dead Reckoning", "To Have and Have Not", "High Sierra"} {
		testutil.Movie(t, repos, name)
	}
	svc, clock := newTestDailyPick(t, repos, sequence(0, 2))

	_, err := svc.Current()
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)

	const readers = 8
	results := make([]*model.DailyMovie, readers)
	errs := make([]error, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Current()
		}(i)
	}
	wg.Wait()

	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}

	history, err := svc.History(10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestCommitRotationConflictReturnsWinner(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	a := testutil.Movie(t, repos, "The Window")
	b := testutil.Movie(t, repos, "Odds Against Tomorrow")
	c := testutil.Movie(t, repos, "The Hitch-Hiker")

	svc, clock := newTestDailyPick(t, repos, sequence(0))
	stale := &model.DailyMovie{MovieID: a.ID, DatePosted: clock.Now(), DailyCount: 1, Active: true}
	require.NoError(t, repos.DailyMovie.Create(stale))

	// 另一个进程已经完成轮换
	_, err := repos.DailyMovie.Deactivate(stale.ID)
	require.NoError(t, err)
	winner := &model.DailyMovie{MovieID: b.ID, DatePosted: clock.Now(), DailyCount: 2, Active: true}
	require.NoError(t, repos.DailyMovie.Create(winner))

	got, err := svc.commitRotation(stale, c)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)
	assert.Equal(t, b.ID, got.MovieID)

	history, err := svc.History(10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func newMockRepos(t *testing.T) (*repository.Repositories, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return repository.NewRepositories(db), mock
}

func TestCommitRotationRollsBackWhenAlreadyDeactivated(t *testing.T) {
	repos, mock := newMockRepos(t)
	svc := NewDailyPickService(repos, 24*time.Hour, 10)
	posted := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "daily_movies" SET "active"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "daily_movies"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "movie_id", "date_posted", "daily_count", "active"}).
			AddRow(9, 2, posted, 5, true))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "movies"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "Gun Crazy"))

	got, err := svc.commitRotation(&model.DailyMovie{ID: 8, MovieID: 1, DailyCount: 4, Active: true}, &model.Movie{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, 9, got.ID)
	assert.Equal(t, "Gun Crazy", got.Movie.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitRotationRollsBackOnInsertFailure(t *testing.T) {
	repos, mock := newMockRepos(t)
	svc := NewDailyPickService(repos, 24*time.Hour, 10)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "daily_movies" SET "active"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "daily_movies"`)).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	_, err := svc.commitRotation(&model.DailyMovie{ID: 8, MovieID: 1, DailyCount: 4, Active: true}, &model.Movie{ID: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset by peer")
	assert.NoError(t, mock.ExpectationsWereMet())
}
