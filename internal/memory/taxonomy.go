package memory

import (
	"sort"
	"strings"
)

// NormalizeCategory maps free-form category input onto the closed enum.
// The default arm absorbs everything unrecognized.
func NormalizeCategory(raw string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryEpisodic:
		return CategoryEpisodic
	case CategoryIdea:
		return CategoryIdea
	case CategoryEmotion:
		return CategoryEmotion
	case CategoryFact:
		return CategoryFact
	default:
		return CategoryStream
	}
}

// ImportanceFor returns the fixed weight for a category.
func ImportanceFor(c Category) int {
	return Weights[c]
}

// RoomFor assigns the search partition from the category.
func RoomFor(c Category) Room {
	switch c {
	case CategoryEmotion:
		return RoomBedroom
	case CategoryIdea:
		return RoomStudy
	case CategoryFact:
		return RoomKitchen
	case CategoryEpisodic:
		return RoomLibrary
	default:
		return RoomLivingRoom
	}
}

// CategoriesForRoom is the inverse of RoomFor, used by the sqlite-vec
// backend to scope a query without a room column.
func CategoriesForRoom(room Room) []Category {
	switch room {
	case RoomBedroom:
		return []Category{CategoryEmotion}
	case RoomStudy:
		return []Category{CategoryIdea}
	case RoomKitchen:
		return []Category{CategoryFact}
	case RoomLibrary:
		return []Category{CategoryEpisodic}
	case RoomLivingRoom:
		return []Category{CategoryStream}
	default:
		return nil
	}
}

// Rooms lists every valid room label, for classification prompts.
func Rooms() []string {
	return []string{
		string(RoomBedroom),
		string(RoomStudy),
		string(RoomKitchen),
		string(RoomLibrary),
		string(RoomLivingRoom),
	}
}

// defaultTagKeywords backs tag auto-derivation when the caller supplies
// none. Overridable via the instincts file.
var defaultTagKeywords = map[string][]string{
	"work":     {"meeting", "deadline", "project", "office", "boss"},
	"health":   {"doctor", "sleep", "tired", "sick", "gym", "headache"},
	"social":   {"friend", "dinner", "party", "visit", "date"},
	"family":   {"mom", "dad", "sister", "brother", "parents"},
	"travel":   {"flight", "trip", "hotel", "airport", "train"},
	"money":    {"salary", "rent", "bill", "budget", "bought"},
	"learning": {"book", "course", "study", "read", "practice"},
}

func (s *Store) deriveTags(title, content string) []string {
	text := strings.ToLower(title + " " + content)

	keywords := s.tagKeywords
	if keywords == nil {
		keywords = defaultTagKeywords
	}

	var tags []string
	for tag, words := range keywords {
		for _, word := range words {
			if strings.Contains(text, word) {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// SetTagKeywords replaces the built-in keyword table.
func (s *Store) SetTagKeywords(keywords map[string][]string) {
	if len(keywords) > 0 {
		s.tagKeywords = keywords
	}
}
