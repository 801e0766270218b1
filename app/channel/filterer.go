package channel

import (
	"fmt"
	"strings"

	"github.com/starchives/starchives/app/database"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run splits videos into the ones the channel filters accept and the ones they reject
func (f *Filterer) Run(videos []database.Video, config *Config) (accepted []database.Video, rejected []database.Video) {
	if len(config.Filters) == 0 {
		return videos, nil
	}

	for _, video := range videos {
		if excluded, _ := f.Excluded(video, config); excluded {
			rejected = append(rejected, video)
			continue
		}
		accepted = append(accepted, video)
	}

	return accepted, rejected
}

// Excluded reports whether the filters reject the video, and why
func (f *Filterer) Excluded(video database.Video, config *Config) (bool, string) {
	for _, filter := range config.Filters {
		value := f.getFieldValue(video, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(database.Fold(value), database.Fold(pattern))
}

func (f *Filterer) getFieldValue(video database.Video, field string) string {
	switch field {
	case "title":
		return video.Title
	case "description":
		return video.Description
	default:
		return ""
	}
}
