package memory

import (
	"database/sql"
	"time"

	"github.com/bowerhall/willow/internal/vector"
)

// Category is the closed memory taxonomy. Unknown input normalizes to
// CategoryStream, never an error.
type Category string

const (
	CategoryStream   Category = "stream"
	CategoryEpisodic Category = "episodic"
	CategoryIdea     Category = "idea"
	CategoryEmotion  Category = "emotion"
	CategoryFact     Category = "fact"
)

// Weights drives retention and vector-index inclusion. Importance is a
// pure function of category.
var Weights = map[Category]int{
	CategoryStream:   1,
	CategoryEpisodic: 4,
	CategoryIdea:     7,
	CategoryEmotion:  9,
	CategoryFact:     10,
}

// Room is a coarse topical partition used only to narrow semantic
// search. Relational storage is never partitioned by room.
type Room string

const (
	RoomBedroom    Room = "bedroom"
	RoomStudy      Room = "study"
	RoomKitchen    Room = "kitchen"
	RoomLibrary    Room = "library"
	RoomLivingRoom Room = "living_room"
)

type Record struct {
	ID           int64
	Title        string
	Content      string
	Category     Category
	Mood         string
	Tags         []string
	Importance   int
	Hits         int
	LastAccessed *time.Time
	CreatedAt    time.Time
}

type Reminder struct {
	ID            string
	TimeOfDay     string // "15:04" local
	Content       string
	Repeat        bool
	Paused        bool
	LastFiredDate string // "2006-01-02", empty if never fired
	LastFiredAt   *time.Time
	CreatedAt     time.Time
}

type LocationSample struct {
	ID        int64
	Address   string
	Remark    string
	Battery   *float64
	Lat       *float64
	Lon       *float64
	CreatedAt time.Time
}

type Store struct {
	db          *sql.DB
	embedder    vector.Embedder
	index       vector.Index
	mirrorAt    int
	tagKeywords map[string][]string
}
