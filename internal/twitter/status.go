package twitter

import "github.com/hpungsan/roost/internal/archive"

// status is the subset of the v1.1 status object the archive reads.
type status struct {
	IDStr     string `json:"id_str"`
	FullText  string `json:"full_text"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	User      struct {
		ScreenName           string `json:"screen_name"`
		ProfileImageURLHTTPS string `json:"profile_image_url_https"`
	} `json:"user"`
	Entities struct {
		URLs  []urlEntity   `json:"urls"`
		Media []mediaEntity `json:"media"`
	} `json:"entities"`
	ExtendedEntities *struct {
		Media []mediaEntity `json:"media"`
	} `json:"extended_entities"`
}

type urlEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
	Indices     [2]int `json:"indices"`
}

type mediaSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type mediaEntity struct {
	IDStr         string `json:"id_str"`
	MediaURLHTTPS string `json:"media_url_https"`
	Sizes         struct {
		Large mediaSize `json:"large"`
	} `json:"sizes"`
	OriginalInfo *struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"original_info"`
}

func (s status) toPost() archive.Post {
	text := s.FullText
	if text == "" {
		text = s.Text
	}

	// extended_entities carries every attachment; entities.media only the first.
	media := s.Entities.Media
	if s.ExtendedEntities != nil && len(s.ExtendedEntities.Media) > 0 {
		media = s.ExtendedEntities.Media
	}

	p := archive.Post{
		ID:        s.IDStr,
		Text:      text,
		Handle:    s.User.ScreenName,
		AvatarURL: s.User.ProfileImageURLHTTPS,
		CreatedAt: s.CreatedAt,
	}
	for _, u := range s.Entities.URLs {
		p.URLs = append(p.URLs, archive.URLEntity{
			URL:         u.URL,
			ExpandedURL: u.ExpandedURL,
			DisplayURL:  u.DisplayURL,
			Indices:     u.Indices,
		})
	}
	for _, m := range media {
		w, h := m.Sizes.Large.W, m.Sizes.Large.H
		if m.OriginalInfo != nil && m.OriginalInfo.Width > 0 && m.OriginalInfo.Height > 0 {
			w, h = m.OriginalInfo.Width, m.OriginalInfo.Height
		}
		p.Media = append(p.Media, archive.MediaEntity{
			ID:       m.IDStr,
			MediaURL: m.MediaURLHTTPS,
			Width:    w,
			Height:   h,
		})
	}
	return p
}
