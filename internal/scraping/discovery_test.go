package scraping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkus007/FlatScrapper/internal/models"
)

const projectsPage = `<!DOCTYPE html>
<html><head><title>ПИК</title></head>
<body>
<div id="__next"></div>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"filters":[
	{"value":149,"text":"Одинцово-1","active":false},
	{"value":1124,"text":"Кронштадтский 9","active":true},
	{"value":149,"text":"Одинцово-1","active":false},
	{"value":7,"text":"Green park","active":false},
	{"value":"x","text":"broken","active":false}
]}}
</script>
</body></html>`

func TestDiscoverProjects(t *testing.T) {
	projects, err := DiscoverProjects([]byte(projectsPage))
	require.NoError(t, err)

	assert.Equal(t, []models.Project{
		{ID: 7, Name: "Green park"},
		{ID: 149, Name: "Одинцово-1"},
		{ID: 1124, Name: "Кронштадтский 9"},
	}, projects)
}

func TestDiscoverProjects_MissingDataBlock(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{name: "No script", html: `<html><body><p>maintenance</p></body></html>`},
		{name: "Other script", html: `<html><body><script id="app">{"value":1,"text":"a","active":1}</script></body></html>`},
		{name: "Empty document", html: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects, err := DiscoverProjects([]byte(tt.html))
			assert.True(t, errors.Is(err, ErrNoProjectData))
			assert.Nil(t, projects)
		})
	}
}

func TestDiscoverProjects_BlockWithoutProjects(t *testing.T) {
	html := `<html><body><script id="__NEXT_DATA__">{"props":{}}</script></body></html>`

	projects, err := DiscoverProjects([]byte(html))
	require.NoError(t, err)
	assert.Empty(t, projects)
}
