package models

import "time"

// Template is an admin-curated resume layout backed by an uploaded image.
type Template struct {
	ID        string    `json:"_id" firestore:"_id"` // Unix-millisecond creation time, also the document ID
	Title     string    `json:"title" firestore:"title"`
	ImageURL  string    `json:"imageURL" firestore:"imageURL"`
	Tags      []string  `json:"tags" firestore:"tags"`
	Name      string    `json:"name" firestore:"name"` // template<N>
	Timestamp time.Time `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	Deleted   bool      `json:"-" firestore:"deleted,omitempty"`
}
