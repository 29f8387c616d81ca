package decision

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Decision
	}{
		{
			name: "pass",
			raw:  `{"action": "pass"}`,
			want: Decision{Kind: KindPass},
		},
		{
			name: "lock with reason",
			raw:  `{"action": "lock", "reason": "doomscrolling at 2am"}`,
			want: Decision{Kind: KindLock, Reason: "doomscrolling at 2am"},
		},
		{
			name: "lock without reason gets placeholder",
			raw:  `{"action": "lock"}`,
			want: Decision{Kind: KindLock, Reason: "unspecified"},
		},
		{
			name: "message",
			raw:  `{"action": "message", "mood": "warm", "text": "thinking of you"}`,
			want: Decision{Kind: KindMessage, Mood: "warm", Text: "thinking of you"},
		},
		{
			name: "message with empty text degrades to pass",
			raw:  `{"action": "message", "mood": "warm", "text": "  "}`,
			want: Decision{Kind: KindPass},
		},
		{
			name: "json wrapped in prose",
			raw:  "Sure, here is my decision:\n{\"action\": \"message\", \"text\": \"hi\"}\nHope that helps.",
			want: Decision{Kind: KindMessage, Text: "hi"},
		},
		{
			name: "unknown action is pass",
			raw:  `{"action": "sing"}`,
			want: Decision{Kind: KindPass},
		},
		{
			name: "action case insensitive",
			raw:  `{"action": "LOCK", "reason": "focus"}`,
			want: Decision{Kind: KindLock, Reason: "focus"},
		},
		{
			name: "no json at all",
			raw:  "I think I'll just stay quiet.",
			want: Decision{Kind: KindPass},
		},
		{
			name: "broken json",
			raw:  `{"action": "lock", "reason": `,
			want: Decision{Kind: KindPass},
		},
		{
			name: "empty input",
			raw:  "",
			want: Decision{Kind: KindPass},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.raw)
			if got != tc.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if KindPass.String() != "pass" || KindLock.String() != "lock" || KindMessage.String() != "message" {
		t.Error("kind labels drifted")
	}
}
