package entity

// UTMParameters is the 5-field attribution tuple carried end to end:
// request body -> session/intent metadata -> order tracking payload.
type UTMParameters struct {
	Source   string `json:"utm_source"`
	Medium   string `json:"utm_medium"`
	Campaign string `json:"utm_campaign"`
	Term     string `json:"utm_term"`
	Content  string `json:"utm_content"`
}

func UTMFromMetadata(metadata map[string]string) UTMParameters {
	return UTMParameters{
		Source:   metadata["utm_source"],
		Medium:   metadata["utm_medium"],
		Campaign: metadata["utm_campaign"],
		Term:     metadata["utm_term"],
		Content:  metadata["utm_content"],
	}
}

func (u UTMParameters) Metadata() map[string]string {
	return map[string]string{
		"utm_source":   u.Source,
		"utm_medium":   u.Medium,
		"utm_campaign": u.Campaign,
		"utm_term":     u.Term,
		"utm_content":  u.Content,
	}
}
