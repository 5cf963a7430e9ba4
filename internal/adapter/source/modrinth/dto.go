package modrinth

// SearchResponse is the body of GET /v2/search
type SearchResponse struct {
	Hits      []Hit `json:"hits"`
	Offset    int   `json:"offset"`
	Limit     int   `json:"limit"`
	TotalHits int   `json:"total_hits"`
}

// Hit is one project in a search response
type Hit struct {
	ProjectID   string   `json:"project_id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	IconURL     string   `json:"icon_url,omitempty"`
	ProjectType string   `json:"project_type"`
	Downloads   int64    `json:"downloads"`
	Author      string   `json:"author,omitempty"`
	Versions    []string `json:"versions,omitempty"`
}

// Version is one entry of GET /v2/project/{id}/version
type Version struct {
	ID            string   `json:"id"`
	ProjectID     string   `json:"project_id"`
	Name          string   `json:"name"`
	VersionNumber string   `json:"version_number"`
	GameVersions  []string `json:"game_versions"`
	Loaders       []string `json:"loaders"`
	VersionType   string   `json:"version_type"`
	Files         []File   `json:"files"`
}

// File is a downloadable artifact of a version
type File struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Primary  bool   `json:"primary"`
	Size     int64  `json:"size"`
}
