package modrinth

import (
	"github.com/mmcdole/modbrowse/internal/domain"
)

// MapHits converts search hits to domain items
func MapHits(hits []Hit) []domain.Item {
	items := make([]domain.Item, 0, len(hits))
	for _, h := range hits {
		if h.ProjectID == "" {
			continue
		}
		items = append(items, domain.Item{
			ID:          h.ProjectID,
			Slug:        h.Slug,
			Title:       h.Title,
			Description: h.Description,
			IconURL:     h.IconURL,
			Source:      domain.SourceModrinth,
			Modpack:     h.ProjectType == "modpack",
			Downloads:   h.Downloads,
		})
	}
	return items
}

// MapVersions converts project versions to domain versions, newest first as
// served. Versions without files are skipped.
func MapVersions(versions []Version) []domain.Version {
	out := make([]domain.Version, 0, len(versions))
	for _, v := range versions {
		f, ok := primaryFile(v.Files)
		if !ok {
			continue
		}
		out = append(out, domain.Version{
			Name:        v.Name,
			Number:      v.VersionNumber,
			GameVersion: v.GameVersions,
			FileURL:     f.URL,
			FileName:    f.Filename,
		})
	}
	return out
}

// primaryFile returns the file flagged primary, or the first one
func primaryFile(files []File) (File, bool) {
	for _, f := range files {
		if f.Primary {
			return f, true
		}
	}
	if len(files) > 0 {
		return files[0], true
	}
	return File{}, false
}
