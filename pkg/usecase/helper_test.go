package usecase_test

import (
	"time"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T {
	return &v
}

func prodRelease(tag, published string) *model.Release {
	return &model.Release{
		TagName:     tag,
		Environment: model.EnvProduction,
		PublishedAt: ptr(at(published)),
	}
}

func stagingRelease(tag, published string) *model.Release {
	return &model.Release{
		TagName:      tag,
		PublishedAt:  ptr(at(published)),
		IsPrerelease: true,
	}
}

func mergedChange(id, title, merged string) *model.MergedChange {
	return &model.MergedChange{
		ID:       id,
		Title:    title,
		Merged:   true,
		MergedAt: ptr(at(merged)),
	}
}

func incidentAt(key, created string) *model.Incident {
	return &model.Incident{
		Key:     key,
		Created: at(created),
	}
}
