package domain

import (
	"strconv"
	"strings"
	"time"
)

// Id namespaces. Built-in books and curated photos use short opaque ids;
// user-created entities are distinguished purely by prefix so that stored
// data never needs a separate namespace field.
const (
	userBookPrefix       = "user-"
	generatedPhotoPrefix = "gen-"
)

// NewUserBookID mints an id for a user-added book from the creation time.
// Ids are millisecond timestamps for compatibility with existing stored
// collections; two creations in the same millisecond collide.
func NewUserBookID(now time.Time) string {
	return userBookPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// NewGeneratedPhotoID mints an id for a generated album photo.
func NewGeneratedPhotoID(now time.Time) string {
	return generatedPhotoPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// IsUserBook reports whether id belongs to the user-created book namespace.
func IsUserBook(id string) bool {
	return strings.HasPrefix(id, userBookPrefix)
}

// IsGeneratedPhoto reports whether id belongs to the generated photo namespace.
func IsGeneratedPhoto(id string) bool {
	return strings.HasPrefix(id, generatedPhotoPrefix)
}
