package photoslib

import "strconv"

// MediaItem is one entry of a mediaItems:search page. BaseURL is
// ephemeral and signed; it expires shortly after the search response and
// must never be persisted.
type MediaItem struct {
	ID            string         `json:"id"`
	Description   string         `json:"description,omitempty"`
	ProductURL    string         `json:"productUrl,omitempty"`
	BaseURL       string         `json:"baseUrl,omitempty"`
	MimeType      string         `json:"mimeType,omitempty"`
	Filename      string         `json:"filename,omitempty"`
	MediaMetadata *MediaMetadata `json:"mediaMetadata,omitempty"`
}

// MediaMetadata carries the declared properties of a media item. The
// API encodes dimensions as decimal strings.
type MediaMetadata struct {
	CreationTime string         `json:"creationTime,omitempty"`
	Width        string         `json:"width,omitempty"`
	Height       string         `json:"height,omitempty"`
	Photo        *PhotoMetadata `json:"photo,omitempty"`
	Video        *VideoMetadata `json:"video,omitempty"`
}

// PhotoMetadata is present on items with raster photo content.
type PhotoMetadata struct {
	CameraMake      string  `json:"cameraMake,omitempty"`
	CameraModel     string  `json:"cameraModel,omitempty"`
	FocalLength     float64 `json:"focalLength,omitempty"`
	ApertureFNumber float64 `json:"apertureFNumber,omitempty"`
	ISOEquivalent   int     `json:"isoEquivalent,omitempty"`
}

// VideoMetadata is present on video items.
type VideoMetadata struct {
	FPS    float64 `json:"fps,omitempty"`
	Status string  `json:"status,omitempty"`
}

// HasPhoto reports whether the item carries raster photo metadata.
func (m *MediaItem) HasPhoto() bool {
	return m.MediaMetadata != nil && m.MediaMetadata.Photo != nil
}

// Dimensions returns the declared original width and height, or zeros
// when unknown.
func (m *MediaItem) Dimensions() (width, height int) {
	if m.MediaMetadata == nil {
		return 0, 0
	}
	width, _ = strconv.Atoi(m.MediaMetadata.Width)
	height, _ = strconv.Atoi(m.MediaMetadata.Height)
	return width, height
}

// Album is one entry of an albums listing.
type Album struct {
	ID                    string `json:"id"`
	Title                 string `json:"title,omitempty"`
	ProductURL            string `json:"productUrl,omitempty"`
	MediaItemsCount       string `json:"mediaItemsCount,omitempty"`
	CoverPhotoBaseURL     string `json:"coverPhotoBaseUrl,omitempty"`
	CoverPhotoMediaItemID string `json:"coverPhotoMediaItemId,omitempty"`
}

// ItemCount returns the declared media item count, or 0 when unknown.
func (a *Album) ItemCount() int {
	n, _ := strconv.Atoi(a.MediaItemsCount)
	return n
}

// searchRequest is the JSON body of POST /v1/mediaItems:search.
type searchRequest struct {
	PageSize  int      `json:"pageSize"`
	PageToken string   `json:"pageToken,omitempty"`
	AlbumID   string   `json:"albumId,omitempty"`
	OrderBy   string   `json:"orderBy,omitempty"`
	Filters   *Filters `json:"filters,omitempty"`
}

// legacySearchRequest mirrors the older request shape where albumId,
// pageToken and filters are always present, null or empty included.
type legacySearchRequest struct {
	PageSize  int      `json:"pageSize"`
	AlbumID   *string  `json:"albumId"`
	PageToken *string  `json:"pageToken"`
	OrderBy   string   `json:"orderBy,omitempty"`
	Filters   *Filters `json:"filters"`
}

type searchResponse struct {
	MediaItems    []MediaItem `json:"mediaItems"`
	NextPageToken string      `json:"nextPageToken"`
}

type albumsResponse struct {
	Albums        []Album `json:"albums"`
	NextPageToken string  `json:"nextPageToken"`
}

// apiError is the error envelope of a non-2xx API response.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
