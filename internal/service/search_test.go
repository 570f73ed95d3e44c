package service

import (
	"fmt"
	"testing"

	"github.com/m-hollow/NoirDB/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchMergesMoviesAndPeople(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	svc := NewSearchService(repos)
	testutil.Movie(t, repos, "The Woman in the Window")
	testutil.Movie(t, repos, "Woman on the Run")
	testutil.Person(t, repos, "Wanda Woman")
	testutil.Movie(t, repos, "Pitfall")

	res, err := svc.Search("WOMAN", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	require.Len(t, res.Results.Items, 3)

	names := []string{res.Results.Items[0].Name, res.Results.Items[1].Name, res.Results.Items[2].Name}
	assert.Equal(t, []string{"The Woman in the Window", "Wanda Woman", "Woman on the Run"}, names)
	assert.Equal(t, "person", res.Results.Items[1].Kind)
	assert.Len(t, res.Movies, 2)
	assert.Len(t, res.People, 1)
}

func TestSearchPaginates(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	svc := NewSearchService(repos)
	for i := 0; i < SearchPageSize+5; i++ {
		testutil.Movie(t, repos, fmt.Sprintf("Noir %02d", i))
	}

	page2, err := svc.Search("noir", 2)
	require.NoError(t, err)
	assert.Equal(t, SearchPageSize+5, page2.Count)
	require.Len(t, page2.Results.Items, 5)
	assert.Equal(t, "Noir 20", page2.Results.Items[0].Name)

	_, err = svc.Search("noir", 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchEmptyQuery(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	svc := NewSearchService(repos)
	testutil.Movie(t, repos, "Anything")

	res, err := svc.Search("   ", 1)
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Empty(t, res.Results.Items)
}

func TestAutocomplete(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	svc := NewSearchService(repos)
	m := testutil.Movie(t, repos, "The Dark Corner (1946)")
	p := testutil.Person(t, repos, "Linda Darnell")
	testutil.Movie(t, repos, "Cry of the City")

	got, err := svc.Autocomplete("dar")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Suggestion{Label: "The Dark Corner", URL: m.URL()}, got[0])
	assert.Equal(t, Suggestion{Label: "Linda Darnell", URL: p.URL()}, got[1])

	empty, err := svc.Autocomplete("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	repos := testutil.NewTestRepos(t)
	svc := NewSearchService(repos)
	testutil.Movie(t, repos, "Detour (1945)")
	testutil.Movie(t, repos, "Laura (1944)")
	testutil.Person(t, repos, "Ann Savage")
	pct := testutil.Movie(t, repos, "100% Noir")

	res, err := svc.Search("%", 1)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, pct.ID, res.Movies[0].ID)

	res, err = svc.Search("_", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)

	res, err = svc.Search("1945", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	suggestions, err := svc.Autocomplete("0%")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "100% Noir", suggestions[0].Label)
}
