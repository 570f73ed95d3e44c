package handler_test

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/m-hollow/NoirDB/internal/config"
	"github.com/m-hollow/NoirDB/internal/handler"
	"github.com/m-hollow/NoirDB/internal/middleware"
	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/repository"
	"github.com/m-hollow/NoirDB/internal/router"
	"github.com/m-hollow/NoirDB/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

func init() {
	gob.Register(model.SessionUser{})
}

type nopMailer struct {
	sent int
}

func (m *nopMailer) Send(context.Context, string, string, string, string) error {
	m.sent++
	return nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

type testServer struct {
	engine *gin.Engine
	repos  *repository.Repositories
	mailer *nopMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := testutil.NewTestRepos(t)
	cfg := &config.Config{
		AppSecret:            testSecret,
		JWTExpiry:            time.Hour,
		SiteName:             "NoirDB",
		DailyPickInterval:    24 * time.Hour,
		DailyPickMaxAttempts: 10,
		ContactRecipient:     "desk@noirdb.test",
	}
	mailer := &nopMailer{}

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte(testSecret))))
	r.Use(middleware.RequestID())
	router.RegisterRoutes(r, handler.NewHandler(repos, cfg, mailer))

	return &testServer{engine: r, repos: repos, mailer: mailer}
}

func (s *testServer) do(t *testing.T, method, path, body string, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, err := middleware.GenerateToken(user.ID, user.Username, user.Role, testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func hasCookie(w *httptest.ResponseRecorder, name string) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// noirFilm 创建带导演与摄影的电影
func noirFilm(t *testing.T, repos *repository.Repositories, name string, director *model.Person) *model.Movie {
	t.Helper()
	m := testutil.Movie(t, repos, name)
	testutil.Crew(t, repos, director, m, model.JobDirector)
	testutil.Crew(t, repos, testutil.Person(t, repos, name+" DP"), m, model.JobCinematographer)
	return m
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHomeWithoutMovies(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Daily   *model.DailyMovie `json:"daily"`
		Related []*model.Movie    `json:"related"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Nil(t, data.Daily)
	assert.Empty(t, data.Related)
}

func TestHomeShowsDailyPickAndRelated(t *testing.T) {
	s := newTestServer(t)
	siodmak := testutil.Person(t, s.repos, "Robert Siodmak")
	noirFilm(t, s.repos, "The Killers", siodmak)
	noirFilm(t, s.repos, "Criss Cross", siodmak)

	w := s.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Daily   *model.DailyMovie `json:"daily"`
		Related []*model.Movie    `json:"related"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	require.NotNil(t, data.Daily)
	assert.Equal(t, 1, data.Daily.DailyCount)
	require.Len(t, data.Related, 1)
	assert.NotEqual(t, data.Daily.MovieID, data.Related[0].ID)
}

func TestHomeDegradesWithoutDirector(t *testing.T) {
	s := newTestServer(t)
	testutil.Movie(t, s.repos, "Uncredited Noir")

	w := s.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestMovieDetailRoutes(t *testing.T) {
	s := newTestServer(t)
	lang := testutil.Person(t, s.repos, "Fritz Lang")
	m := noirFilm(t, s.repos, "Scarlet Street", lang)
	broken := testutil.Movie(t, s.repos, "No Crew")

	w := s.do(t, http.MethodGet, m.URL(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Movie model.Movie `json:"movie"`
		Crew  struct {
			Director *model.Person `json:"director"`
		} `json:"crew"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &detail))
	assert.Equal(t, "Scarlet Street", detail.Movie.Name)
	assert.Equal(t, "Fritz Lang", detail.Crew.Director.Name)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/movies/"+strconv.Itoa(m.ID), "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/movies/abc", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/movies/9999-missing", "", nil).Code)

	w = s.do(t, http.MethodGet, broken.URL(), "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, decode(t, w).Success)
}

func TestStaticMovieRoutesDoNotClashWithID(t *testing.T) {
	s := newTestServer(t)
	testutil.Movie(t, s.repos, "Gun Crazy")

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/movies/index", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/movies/free", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/movies", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/movies?page=5", "", nil).Code)
}

func TestSearchAndAutocomplete(t *testing.T) {
	s := newTestServer(t)
	testutil.Movie(t, s.repos, "Nightmare Alley (1947)")

	w := s.do(t, http.MethodGet, "/search?q=night", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Nightmare Alley")
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/search?q=night&page=2", "", nil).Code)

	w = s.do(t, http.MethodGet, "/autocomplete?term=night", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var suggestions []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suggestions))
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Nightmare Alley", suggestions[0]["label"])
}

func TestRegisterLoginLogout(t *testing.T) {
	s := newTestServer(t)
	body := `{"email":"joe@example.com","username":"Joe Gillis","password":"sunset-blvd","confirm_password":"sunset-blvd"}`

	w := s.do(t, http.MethodPost, "/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, hasCookie(w, middleware.TokenCookie))
	assert.NotContains(t, w.Body.String(), "password")

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/auth/register", body, nil).Code)

	mismatch := `{"email":"norma@example.com","username":"Norma","password":"abcdef","confirm_password":"ghijkl"}`
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/auth/register", mismatch, nil).Code)

	w = s.do(t, http.MethodPost, "/auth/login", `{"email":"joe@example.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", `{"email":"joe@example.com","password":"sunset-blvd"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/auth/logout", "", nil).Code)
}

func TestMemberRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)
	m := testutil.Movie(t, s.repos, "Kiss Me Deadly")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/recommendations", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/movies/"+strconv.Itoa(m.ID)+"/reviews", `{"star_rating":4}`, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/daily/history", "", nil).Code)

	member := testutil.User(t, s.repos, "mike")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/", "", nil).Code)
	w := s.do(t, http.MethodGet, "/daily/history?limit=5", "", member)
	require.Equal(t, http.StatusOK, w.Code)
	var history []*model.DailyMovie
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, m.ID, history[0].MovieID)
}

func TestReviewLifecycle(t *testing.T) {
	s := newTestServer(t)
	author := testutil.User(t, s.repos, "author")
	other := testutil.User(t, s.repos, "other")
	m := testutil.Movie(t, s.repos, "The Big Heat")
	reviews := "/movies/" + strconv.Itoa(m.ID) + "/reviews"

	w := s.do(t, http.MethodPost, reviews, `{"star_rating":4,"review_text":"Gloria Grahame steals it."}`, author)
	require.Equal(t, http.StatusCreated, w.Code)
	var review model.Review
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &review))

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, reviews, `{"star_rating":2}`, author).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, reviews, `{"star_rating":9}`, other).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/movies/9999/reviews", `{"star_rating":3}`, other).Code)

	path := "/reviews/" + strconv.Itoa(review.ID)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, path, `{"star_rating":1}`, other).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, path, `{"star_rating":5}`, author).Code)

	stored, err := s.repos.Movie.FindByID(m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AvgRating)
	assert.Equal(t, 5.0, *stored.AvgRating)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, path, "", other).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, path, "", author).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, "", author).Code)
}

func TestLinkActions(t *testing.T) {
	s := newTestServer(t)
	user := testutil.User(t, s.repos, "viewer")
	m := testutil.Movie(t, s.repos, "Detour")
	base := "/movies/" + strconv.Itoa(m.ID) + "/links/"

	w := s.do(t, http.MethodPost, base+"mark_favorite", "", user)
	require.Equal(t, http.StatusOK, w.Code)
	var link model.UserMovieLink
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &link))
	assert.True(t, link.Seen)
	assert.True(t, link.Favorite)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, base+"mark_forgotten", "", user).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/movies/9999/links/mark_seen", "", user).Code)
}

func TestUserDetailAndCloseAccount(t *testing.T) {
	s := newTestServer(t)
	user := testutil.User(t, s.repos, "cora")
	other := testutil.User(t, s.repos, "frank")

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, user.URL(), "", other).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/account/close/"+strconv.Itoa(user.ID), "", other).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/account/close/"+strconv.Itoa(user.ID), "", user).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, user.URL(), "", other).Code)

	// 关闭后仍未过期的 token 不能继续写入
	m := testutil.Movie(t, s.repos, "Pickup on South Street")
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/movies/"+strconv.Itoa(m.ID)+"/reviews", `{"star_rating":4}`, user).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/movies/"+strconv.Itoa(m.ID)+"/links/mark_seen", "", user).Code)
}

func TestRecommendationsUnderflowIsServerError(t *testing.T) {
	s := newTestServer(t)
	user := testutil.User(t, s.repos, "lonely")
	testutil.Movie(t, s.repos, "Only One")

	assert.Equal(t, http.StatusInternalServerError, s.do(t, http.MethodGet, "/recommendations", "", user).Code)
}

func TestContact(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/contact", `{"from_email":"fan@example.com","subject":"hi\nBcc: x@y.z","message":"m"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid header found", decode(t, w).Message)

	w = s.do(t, http.MethodPost, "/contact", `{"from_email":"fan@example.com","subject":"hi","message":"m"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.mailer.sent)
}
