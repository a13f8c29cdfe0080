package chat

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_JSONShapes(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantParts bool
		wantText  string
	}{
		{name: "string", in: `"hello"`, wantText: "hello"},
		{name: "parts", in: `[{"type":"text","text":"look"},{"type":"image","source":{"type":"base64","media_type":"image/png","data":"AAA"}}]`, wantParts: true, wantText: "look [Image]"},
		{name: "empty parts", in: `[]`, wantParts: true, wantText: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Content
			require.NoError(t, json.Unmarshal([]byte(tt.in), &c))
			assert.Equal(t, tt.wantParts, c.IsParts())
			assert.Equal(t, tt.wantText, c.String())

			out, err := json.Marshal(c)
			require.NoError(t, err)
			assert.JSONEq(t, tt.in, string(out))
		})
	}
}

func TestContent_UnmarshalRejectsObjects(t *testing.T) {
	var c Content
	assert.Error(t, json.Unmarshal([]byte(`{"text":"x"}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`42`), &c))
}

func TestTurn_JSON(t *testing.T) {
	var turn Turn
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"hi"}`), &turn))
	assert.True(t, turn.Equal(UserText("hi")))

	out, err := json.Marshal(AssistantText("yo"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"assistant","content":"yo"}`, string(out))
}

func TestContent_Equal(t *testing.T) {
	img := &ImageSource{Type: "base64", MediaType: "image/png", Data: "AAA"}
	sameImg := &ImageSource{Type: "base64", MediaType: "image/png", Data: "AAA"}
	otherImg := &ImageSource{Type: "base64", MediaType: "image/png", Data: "BBB"}

	tests := []struct {
		name string
		a, b Content
		want bool
	}{
		{"same text", Text("a"), Text("a"), true},
		{"different text", Text("a"), Text("b"), false},
		{"text vs parts", Text("a"), Parts(Part{Type: "text", Text: "a"}), false},
		{"same parts", Parts(Part{Type: "text", Text: "a"}), Parts(Part{Type: "text", Text: "a"}), true},
		{"image by value", Parts(Part{Type: "image", Source: img}), Parts(Part{Type: "image", Source: sameImg}), true},
		{"image differs", Parts(Part{Type: "image", Source: img}), Parts(Part{Type: "image", Source: otherImg}), false},
		{"part order", Parts(Part{Type: "text", Text: "a"}, Part{Type: "text", Text: "b"}), Parts(Part{Type: "text", Text: "b"}, Part{Type: "text", Text: "a"}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr bool
	}{
		{"", Offline, false},
		{"offline", Offline, false},
		{"search", Search, false},
		{"deepsearch", DeepSearch, false},
		{"DeepSearch", Offline, true},
		{"web", Offline, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
	assert.False(t, Offline.Searches())
	assert.True(t, Search.Searches())
	assert.True(t, DeepSearch.Searches())
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		stored []Turn
		added  []Turn
		want   []Turn
	}{
		{
			name:  "empty history",
			added: []Turn{UserText("hi")},
			want:  []Turn{UserText("hi")},
		},
		{
			name:   "appends in order",
			stored: []Turn{UserText("hi"), AssistantText("hello")},
			added:  []Turn{UserText("how are you")},
			want:   []Turn{UserText("hi"), AssistantText("hello"), UserText("how are you")},
		},
		{
			name:   "verbatim repeat is dropped",
			stored: []Turn{UserText("hi"), AssistantText("hello")},
			added:  []Turn{UserText("hi")},
			want:   []Turn{UserText("hi"), AssistantText("hello")},
		},
		{
			name:   "same text different role kept",
			stored: []Turn{UserText("ok")},
			added:  []Turn{AssistantText("ok")},
			want:   []Turn{UserText("ok"), AssistantText("ok")},
		},
		{
			name:   "duplicates inside stored collapse",
			stored: []Turn{UserText("a"), AssistantText("b"), UserText("a")},
			want:   []Turn{UserText("a"), AssistantText("b")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.stored, tt.added)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.True(t, got[i].Equal(tt.want[i]), "turn %d: got %+v want %+v", i, got[i], tt.want[i])
			}
		})
	}
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	stored := make([]Turn, 1, 4)
	stored[0] = UserText("a")
	added := []Turn{AssistantText("b")}
	Merge(stored, added)
	assert.Len(t, stored, 1)
	assert.Equal(t, Turn{}, stored[:2][1], "spare capacity must not be written")
	assert.True(t, added[0].Equal(AssistantText("b")))
}

// Random sequences drawn from a small alphabet are full of duplicates,
// adjacent and otherwise. Whatever the input, the merge keeps every
// distinct turn exactly once, in first-seen order.
func TestMerge_NoDuplicatesProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 42))
	alphabet := []Turn{
		UserText("a"), UserText("b"), AssistantText("a"), AssistantText("c"),
		{Role: RoleUser, Content: Parts(Part{Type: "text", Text: "a"})},
		{Role: RoleUser, Content: Parts(Part{Type: "image", Source: &ImageSource{Type: "base64", MediaType: "image/png", Data: "x"}})},
	}
	randomTurns := func(n int) []Turn {
		out := make([]Turn, n)
		for i := range out {
			out[i] = alphabet[rng.IntN(len(alphabet))]
		}
		return out
	}

	for iter := 0; iter < 500; iter++ {
		stored := randomTurns(rng.IntN(8))
		added := randomTurns(rng.IntN(4))
		got := Merge(stored, added)

		for i := range got {
			for j := i + 1; j < len(got); j++ {
				require.False(t, got[i].Equal(got[j]), fmt.Sprintf("iter %d: duplicate at %d and %d", iter, i, j))
			}
		}

		var firstSeen []Turn
		for _, turn := range append(append([]Turn{}, stored...), added...) {
			if !containsTurn(firstSeen, turn) {
				firstSeen = append(firstSeen, turn)
			}
		}
		require.Len(t, got, len(firstSeen))
		for i := range got {
			require.True(t, got[i].Equal(firstSeen[i]))
		}
	}
}
