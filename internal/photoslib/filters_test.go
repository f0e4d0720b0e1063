package photoslib

import "testing"

func TestFilterBuilder(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Filters
		check func(t *testing.T, f *Filters)
	}{
		{
			name:  "empty builder yields nil",
			build: func() *Filters { return NewFilterBuilder().Build() },
			check: func(t *testing.T, f *Filters) {
				if f != nil {
					t.Errorf("Build() = %+v, want nil", f)
				}
			},
		},
		{
			name: "all-media type adds no filter",
			build: func() *Filters {
				return NewFilterBuilder().MediaType("ALL_MEDIA").Build()
			},
			check: func(t *testing.T, f *Filters) {
				if f != nil {
					t.Errorf("Build() = %+v, want nil", f)
				}
			},
		},
		{
			name: "wildcard date adds no filter",
			build: func() *Filters {
				return NewFilterBuilder().Date(0, 0, 0).Build()
			},
			check: func(t *testing.T, f *Filters) {
				if f != nil {
					t.Errorf("Build() = %+v, want nil", f)
				}
			},
		},
		{
			name: "included and excluded categories",
			build: func() *Filters {
				return NewFilterBuilder().
					IncludeCategories("LANDSCAPES", "TRAVEL").
					ExcludeCategories("SCREENSHOTS").
					Build()
			},
			check: func(t *testing.T, f *Filters) {
				if f == nil || f.ContentFilter == nil {
					t.Fatal("Build() dropped content filter")
				}
				if len(f.ContentFilter.IncludedContentCategories) != 2 {
					t.Errorf("included = %v", f.ContentFilter.IncludedContentCategories)
				}
				if len(f.ContentFilter.ExcludedContentCategories) != 1 {
					t.Errorf("excluded = %v", f.ContentFilter.ExcludedContentCategories)
				}
			},
		},
		{
			name: "photo media type",
			build: func() *Filters {
				return NewFilterBuilder().MediaType("PHOTO").Build()
			},
			check: func(t *testing.T, f *Filters) {
				if f == nil || f.MediaTypeFilter == nil {
					t.Fatal("Build() dropped media type filter")
				}
				if f.MediaTypeFilter.MediaTypes[0] != "PHOTO" {
					t.Errorf("media types = %v", f.MediaTypeFilter.MediaTypes)
				}
			},
		},
		{
			name: "partial date keeps zero wildcards",
			build: func() *Filters {
				return NewFilterBuilder().Date(2023, 6, 0).Build()
			},
			check: func(t *testing.T, f *Filters) {
				if f == nil || f.DateFilter == nil || len(f.DateFilter.Dates) != 1 {
					t.Fatal("Build() dropped date filter")
				}
				d := f.DateFilter.Dates[0]
				if d.Year != 2023 || d.Month != 6 || d.Day != 0 {
					t.Errorf("date = %+v", d)
				}
			},
		},
		{
			name: "date range",
			build: func() *Filters {
				return NewFilterBuilder().
					DateRange(Date{Year: 2022, Month: 1, Day: 1}, Date{Year: 2022, Month: 12, Day: 31}).
					Build()
			},
			check: func(t *testing.T, f *Filters) {
				if f == nil || f.DateFilter == nil || len(f.DateFilter.Ranges) != 1 {
					t.Fatal("Build() dropped range filter")
				}
			},
		},
		{
			name: "archived only",
			build: func() *Filters {
				return NewFilterBuilder().IncludeArchived().Build()
			},
			check: func(t *testing.T, f *Filters) {
				if f == nil || !f.IncludeArchivedMedia {
					t.Errorf("Build() = %+v, want archived set", f)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.build())
		})
	}
}

func TestMediaItemHasPhoto(t *testing.T) {
	photo := MediaItem{MediaMetadata: &MediaMetadata{Photo: &PhotoMetadata{}}}
	video := MediaItem{MediaMetadata: &MediaMetadata{}}
	bare := MediaItem{}

	if !photo.HasPhoto() {
		t.Error("photo item reported no photo metadata")
	}
	if video.HasPhoto() || bare.HasPhoto() {
		t.Error("non-photo item reported photo metadata")
	}
}

func TestAlbumItemCount(t *testing.T) {
	if got := (&Album{MediaItemsCount: "42"}).ItemCount(); got != 42 {
		t.Errorf("ItemCount() = %d, want 42", got)
	}
	if got := (&Album{}).ItemCount(); got != 0 {
		t.Errorf("ItemCount() on empty = %d, want 0", got)
	}
}
