package fanart

// Fanart.tv artist payload, reduced to the image lists this client reads.

type response struct {
	ArtistBackground []wireImage `json:"artistbackground"`
	HDMusicLogo      []wireImage `json:"hdmusiclogo"`
	MusicLogo        []wireImage `json:"musiclogo"`
	MusicBanner      []wireImage `json:"musicbanner"`
	ArtistThumb      []wireImage `json:"artistthumb"`
}

type wireImage struct {
	URL   string `json:"url"`
	Likes string `json:"likes"`
}
