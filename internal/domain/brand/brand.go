package brand

type Brand struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Logo        string   `json:"logo"`
	CategoryIDs []string `json:"category_ids"`
}
