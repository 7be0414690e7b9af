package settings

type Slide struct {
	ID       string `json:"id"`
	Image    string `json:"image"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Link     string `json:"link"`
}

type StoreSettings struct {
	Logo   string  `json:"logo"`
	Slides []Slide `json:"slides"`
}
