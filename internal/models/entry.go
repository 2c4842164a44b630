// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Entry is a single saved piece of content. Content and CreatedAt never
// change after insert; only Category (remap) and Retired mutate, and
// Retired only ever goes from false to true.
type Entry struct {
	ID        int64     `json:"id"`
	OwnerID   *int64    `json:"owner_id,omitempty"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	Retired   bool      `json:"retired"`
}

// Suggestible reports whether the entry may still be resurfaced.
func (e *Entry) Suggestible() bool {
	return !e.Retired
}
