package memory

import "testing"

func TestNormalizeCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
	}{
		{"fact", CategoryFact},
		{"FACT", CategoryFact},
		{" episodic ", CategoryEpisodic},
		{"idea", CategoryIdea},
		{"emotion", CategoryEmotion},
		{"stream", CategoryStream},
		{"", CategoryStream},
		{"nonsense", CategoryStream},
		{"Emotions", CategoryStream},
	}

	for _, tc := range cases {
		if got := NormalizeCategory(tc.in); got != tc.want {
			t.Errorf("NormalizeCategory(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestRoomForCoversEveryCategory(t *testing.T) {
	cases := map[Category]Room{
		CategoryEmotion:  RoomBedroom,
		CategoryIdea:     RoomStudy,
		CategoryFact:     RoomKitchen,
		CategoryEpisodic: RoomLibrary,
		CategoryStream:   RoomLivingRoom,
	}

	for cat, want := range cases {
		if got := RoomFor(cat); got != want {
			t.Errorf("RoomFor(%s) = %s, want %s", cat, got, want)
		}
	}
}

func TestCategoriesForRoomInvertsRoomFor(t *testing.T) {
	for cat := range Weights {
		room := RoomFor(cat)
		cats := CategoriesForRoom(room)

		found := false
		for _, c := range cats {
			if c == cat {
				found = true
			}
		}
		if !found {
			t.Errorf("CategoriesForRoom(%s) = %v, missing %s", room, cats, cat)
		}
	}
}

func TestCategoriesForRoomUnknown(t *testing.T) {
	if cats := CategoriesForRoom("attic"); cats != nil {
		t.Errorf("unknown room returned %v, want nil", cats)
	}
}

func TestSetTagKeywordsOverridesDerivation(t *testing.T) {
	s := openTestStore(t)
	s.SetTagKeywords(map[string][]string{"music": {"guitar", "song"}})

	tags := s.deriveTags("practice", "played guitar for an hour at the gym")
	if len(tags) != 1 || tags[0] != "music" {
		t.Errorf("tags = %v, want [music] only (built-in table replaced)", tags)
	}
}
