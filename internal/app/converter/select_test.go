package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"call-transcriber/internal/app/model"
)

func TestSelectPending(t *testing.T) {
	items := []model.WorkItem{
		{Name: "c.wav"}, {Name: "a.wav"}, {Name: "b.mp3"},
	}

	tests := []struct {
		name  string
		known map[string]struct{}
		want  []string
	}{
		{name: "nothing_known", known: map[string]struct{}{}, want: []string{"c.wav", "a.wav", "b.mp3"}},
		{name: "nil_known", known: nil, want: []string{"c.wav", "a.wav", "b.mp3"}},
		{name: "one_known", known: map[string]struct{}{"a.wav": {}}, want: []string{"c.wav", "b.mp3"}},
		{name: "all_known", known: map[string]struct{}{"a.wav": {}, "b.mp3": {}, "c.wav": {}}, want: []string{}},
		{name: "known_not_on_disk", known: map[string]struct{}{"gone.wav": {}}, want: []string{"c.wav", "a.wav", "b.mp3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectPending(items, tt.known)
			names := make([]string, 0, len(got))
			for _, item := range got {
				names = append(names, item.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
