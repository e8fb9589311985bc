package catalog

// TagSet is the descriptive metadata written into a delivered file.
type TagSet struct {
	ID          string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	TrackNumber int
	TotalTracks int
	DiscNumber  int
	TotalDiscs  int
	// ReleaseDate is YYYY-MM-DD; Date is the year-only value that gets tagged.
	ReleaseDate string
	Date        string
	Comment     string
	Copyright   string
	Cover       []byte
}

type Album struct {
	ID       string
	Artist   string
	Name     string
	TrackIDs []string
}

type Playlist struct {
	ID       string
	Name     string
	TrackIDs []string
}

type StreamCandidate struct {
	Bitrate int64
	FileID  string
}

type Account struct {
	Product  string
	Country  string
	Username string
}

type SearchItem struct {
	Kind  LinkKind
	ID    string
	Name  string
	Owner string
	// TrackCount is only known for albums.
	TrackCount int
}

type SearchResults struct {
	Tracks    []SearchItem
	Albums    []SearchItem
	Playlists []SearchItem
	Raw       []byte
}
