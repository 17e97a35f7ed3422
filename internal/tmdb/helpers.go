package tmdb

// PosterURL turns a TMDB poster path into a full image URL, or "" for an
// empty path.
func PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return PosterBaseURL + path
}

// BestTrailer picks an official YouTube trailer, falling back to any
// YouTube trailer. It returns the watch URL or "".
func BestTrailer(videos Videos) string {
	var pick *Video
	for i := range videos.Results {
		v := &videos.Results[i]
		if v.Site != "YouTube" || v.Type != "Trailer" {
			continue
		}
		if v.Official {
			pick = v
			break
		}
		if pick == nil {
			pick = v
		}
	}

	if pick == nil || pick.Key == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + pick.Key
}

// TopCast returns the names among the first n billed cast members,
// skipping entries without a name.
func TopCast(credits Credits, n int) []string {
	cast := credits.Cast
	if len(cast) > n {
		cast = cast[:n]
	}

	names := []string{}
	for _, member := range cast {
		if member.Name != "" {
			names = append(names, member.Name)
		}
	}
	return names
}
