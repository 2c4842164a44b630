// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Category tags seeded into every deployment.
const (
	CategoryYouTube = "youtube"
	CategoryBook    = "book"
	CategoryMovie   = "movie"
	CategoryOther   = "other"
)

// DefaultCategories is the fixed category set seeded at initialization.
// The order here is the seeding order only; listings sort by name.
var DefaultCategories = []string{
	CategoryYouTube,
	CategoryBook,
	CategoryMovie,
	CategoryOther,
}

// Category is a content bucket. Name is the stable tag used by the
// classifier, in callback data and as the entries.category reference.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
