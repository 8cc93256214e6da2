package scraping

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/darkus007/FlatScrapper/internal/models"
)

const projectDataSelector = "script#__NEXT_DATA__"

// Project filter options look like "value":149,"text":"Одинцово-1","active":false
var projectPattern = regexp.MustCompile(`"value":(\d+),"text":"([\p{L}\p{N}_ -]+)","active":`)

// DiscoverProjects extracts the distinct (id, name) pairs from the projects
// page, ordered by id. The page repeats entries, so duplicates are dropped.
func DiscoverProjects(html []byte) ([]models.Project, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse projects page: %w", err)
	}

	script := doc.Find(projectDataSelector)
	if script.Length() == 0 {
		return nil, ErrNoProjectData
	}

	seen := make(map[models.Project]bool)
	projects := []models.Project{}
	for _, match := range projectPattern.FindAllStringSubmatch(script.First().Text(), -1) {
		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}

		project := models.Project{ID: id, Name: match[2]}
		if seen[project] {
			continue
		}
		seen[project] = true
		projects = append(projects, project)
	}

	sort.Slice(projects, func(i, j int) bool {
		if projects[i].ID != projects[j].ID {
			return projects[i].ID < projects[j].ID
		}
		return projects[i].Name < projects[j].Name
	})

	return projects, nil
}
