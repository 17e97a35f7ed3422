package tmdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosterURL(t *testing.T) {
	assert.Equal(t, "", PosterURL(""))
	assert.Equal(t, "https://image.tmdb.org/t/p/w780/x.jpg", PosterURL("/x.jpg"))
}

func TestBestTrailer(t *testing.T) {
	tests := []struct {
		name   string
		videos []Video
		want   string
	}{
		{"none", nil, ""},
		{"only teasers", []Video{{Key: "t", Site: "YouTube", Type: "Teaser"}}, ""},
		{"vimeo ignored", []Video{{Key: "v", Site: "Vimeo", Type: "Trailer", Official: true}}, ""},
		{"any youtube trailer", []Video{
			{Key: "teaser", Site: "YouTube", Type: "Teaser"},
			{Key: "fan", Site: "YouTube", Type: "Trailer"},
		}, "https://www.youtube.com/watch?v=fan"},
		{"official preferred", []Video{
			{Key: "fan", Site: "YouTube", Type: "Trailer"},
			{Key: "official", Site: "YouTube", Type: "Trailer", Official: true},
		}, "https://www.youtube.com/watch?v=official"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BestTrailer(Videos{Results: tt.videos}))
		})
	}
}

func TestTopCast(t *testing.T) {
	credits := Credits{Cast: []CastMember{{Name: "A"}, {Name: ""}, {Name: "C"}, {Name: "D"}}}

	assert.Equal(t, []string{"A", "C"}, TopCast(credits, 3))
	assert.Equal(t, []string{"A", "C", "D"}, TopCast(credits, 10))
	assert.Equal(t, []string{}, TopCast(Credits{}, 10))
}
