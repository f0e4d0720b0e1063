package photoslib

// ContentCategories lists the content categories accepted by the API's
// content filter.
var ContentCategories = []string{
	"ANIMALS", "ARTS", "BIRTHDAYS", "CITYSCAPES", "CRAFTS", "DOCUMENTS",
	"FASHION", "FLOWERS", "FOOD", "GARDENS", "HOLIDAYS", "HOUSES",
	"LANDMARKS", "LANDSCAPES", "NIGHT", "PEOPLE", "PERFORMANCES", "PETS",
	"RECEIPTS", "SCREENSHOTS", "SELFIES", "SPORT", "TRAVEL", "UTILITY",
	"WEDDINGS", "WHITEBOARDS",
}

// Filters is the wire representation of the search request's filters
// object.
type Filters struct {
	ContentFilter        *ContentFilter   `json:"contentFilter,omitempty"`
	MediaTypeFilter      *MediaTypeFilter `json:"mediaTypeFilter,omitempty"`
	DateFilter           *DateFilter      `json:"dateFilter,omitempty"`
	IncludeArchivedMedia bool             `json:"includeArchivedMedia,omitempty"`
}

// ContentFilter selects items by content category.
type ContentFilter struct {
	IncludedContentCategories []string `json:"includedContentCategories,omitempty"`
	ExcludedContentCategories []string `json:"excludedContentCategories,omitempty"`
}

// MediaTypeFilter restricts results to photos or videos.
type MediaTypeFilter struct {
	MediaTypes []string `json:"mediaTypes,omitempty"`
}

// Date is a calendar date in the API's year/month/day form. Zero fields
// act as wildcards.
type Date struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// DateRange is a closed date interval.
type DateRange struct {
	StartDate Date `json:"startDate"`
	EndDate   Date `json:"endDate"`
}

// DateFilter selects items by capture date.
type DateFilter struct {
	Dates  []Date      `json:"dates,omitempty"`
	Ranges []DateRange `json:"ranges,omitempty"`
}

// FilterBuilder assembles a Filters object from a fixed set of named
// inputs. Each category contributes to exactly one of the included or
// excluded sets; the date constraint is a single date or one range.
type FilterBuilder struct {
	included []string
	excluded []string
	dates    []Date
	ranges   []DateRange
	media    []string
	archived bool
}

// NewFilterBuilder returns an empty builder.
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{}
}

// IncludeCategories adds content categories to the included set.
func (b *FilterBuilder) IncludeCategories(categories ...string) *FilterBuilder {
	b.included = append(b.included, categories...)
	return b
}

// ExcludeCategories adds content categories to the excluded set.
func (b *FilterBuilder) ExcludeCategories(categories ...string) *FilterBuilder {
	b.excluded = append(b.excluded, categories...)
	return b
}

// Date constrains results to a single date. Zero components are
// wildcards, so Date(2023, 0, 0) matches the whole year.
func (b *FilterBuilder) Date(year, month, day int) *FilterBuilder {
	if year == 0 && month == 0 && day == 0 {
		return b
	}
	b.dates = append(b.dates, Date{Year: year, Month: month, Day: day})
	return b
}

// DateRange constrains results to a closed date interval.
func (b *FilterBuilder) DateRange(start, end Date) *FilterBuilder {
	b.ranges = append(b.ranges, DateRange{StartDate: start, EndDate: end})
	return b
}

// MediaType restricts results to the given media type ("PHOTO" or
// "VIDEO"). "ALL_MEDIA" is the API default and adds no filter.
func (b *FilterBuilder) MediaType(mediaType string) *FilterBuilder {
	if mediaType != "" && mediaType != "ALL_MEDIA" {
		b.media = append(b.media, mediaType)
	}
	return b
}

// IncludeArchived also returns archived items.
func (b *FilterBuilder) IncludeArchived() *FilterBuilder {
	b.archived = true
	return b
}

// Build produces the wire filters object, or nil when nothing was set.
func (b *FilterBuilder) Build() *Filters {
	f := &Filters{IncludeArchivedMedia: b.archived}

	if len(b.included) > 0 || len(b.excluded) > 0 {
		f.ContentFilter = &ContentFilter{
			IncludedContentCategories: b.included,
			ExcludedContentCategories: b.excluded,
		}
	}
	if len(b.media) > 0 {
		f.MediaTypeFilter = &MediaTypeFilter{MediaTypes: b.media}
	}
	if len(b.dates) > 0 || len(b.ranges) > 0 {
		f.DateFilter = &DateFilter{Dates: b.dates, Ranges: b.ranges}
	}

	if f.ContentFilter == nil && f.MediaTypeFilter == nil && f.DateFilter == nil && !f.IncludeArchivedMedia {
		return nil
	}
	return f
}
