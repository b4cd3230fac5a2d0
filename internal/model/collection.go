package model

import "time"

type Collection struct {
	Record
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AssetCount  int    `json:"asset_count"`
}

type Asset struct {
	Record
	CollectionID string   `json:"collection_id"`
	Filename     string   `json:"filename"`
	StorageKey   string   `json:"-"`
	FileType     string   `json:"file_type"`
	FileSize     int64    `json:"file_size"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Deleted      bool     `json:"is_deleted"`
	DownloadURL  string   `json:"download_url,omitempty"`
}

type PresignedURL struct {
	URL        string    `json:"url"`
	Method     string    `json:"method"`
	StorageKey string    `json:"storage_key,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type SharedLink struct {
	Record
	PublicID     string  `json:"public_id"`
	PasswordHash *string `json:"-"`
	CollectionID string  `json:"collection_id"`
}

func (l SharedLink) HasPassword() bool {
	return l.PasswordHash != nil
}

type SharedLinkView struct {
	ID                    string    `json:"id"`
	PublicID              string    `json:"public_id"`
	HasPassword           bool      `json:"has_password"`
	CollectionID          string    `json:"collection_id"`
	CollectionName        string    `json:"collection_name"`
	CollectionDescription string    `json:"collection_description,omitempty"`
	AssetCount            int       `json:"asset_count"`
	ShareURL              string    `json:"share_url"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// SharedCollectionView is the read-only projection served to anonymous link holders.
type SharedCollectionView struct {
	CollectionName        string  `json:"collection_name"`
	CollectionDescription string  `json:"collection_description,omitempty"`
	OwnerName             string  `json:"owner_name"`
	AssetCount            int     `json:"asset_count"`
	Assets                []Asset `json:"assets"`
}
