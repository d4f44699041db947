package models

// PlaceholderCampaign is the campaign value new variations start with. Export naming
// treats it like an empty campaign.
const PlaceholderCampaign = "campaign_name"

// UTMParams is the campaign tracking bundle appended to the landing page.
// Every field is optional free text; empty fields are left out of the click-through URL.
type UTMParams struct {
	Source   string `json:"source"`   // utm_source, e.g. "google".
	Medium   string `json:"medium"`   // utm_medium, e.g. "display".
	Campaign string `json:"campaign"` // utm_campaign; also used to name exported archives.
	Content  string `json:"content"`  // utm_content, usually identifies the creative.
	Term     string `json:"term"`     // utm_term.
}

// UTMField names one UTM parameter for field-level updates.
type UTMField string

const (
	UTMSource   UTMField = "source"
	UTMMedium   UTMField = "medium"
	UTMCampaign UTMField = "campaign"
	UTMContent  UTMField = "content"
	UTMTerm     UTMField = "term"
)

// With returns a copy of u with field set to value. Unknown fields leave u unchanged.
func (u UTMParams) With(field UTMField, value string) UTMParams {
	switch field {
	case UTMSource:
		u.Source = value
	case UTMMedium:
		u.Medium = value
	case UTMCampaign:
		u.Campaign = value
	case UTMContent:
		u.Content = value
	case UTMTerm:
		u.Term = value
	}
	return u
}

// NamedCampaign returns the campaign value when it was set to something other than the
// placeholder, and "" otherwise.
func (u UTMParams) NamedCampaign() string {
	if u.Campaign == "" || u.Campaign == PlaceholderCampaign {
		return ""
	}
	return u.Campaign
}
