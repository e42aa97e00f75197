package domain

// SourcePage is the raw content fetched for a submitted prebuilt URL
type SourcePage struct {
	URL  string
	Host string
	Body string
}

// SpecExtractionResult holds the spec region and displayed price located in a page
type SpecExtractionResult struct {
	PrebuiltPrice *float64 // nil when no price could be located
	SpecsMarkup   string
}

// ComponentCandidate is a part named in the prebuilt's spec sheet.
// Type is the free-text description ("Intel Core i9-13900K") and doubles as the search query.
type ComponentCandidate struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ComponentList is the structured output of component extraction
type ComponentList struct {
	PrebuiltName string
	Components   []ComponentCandidate
}

// ResolvedPart is a component matched to a verified standalone retail listing
type ResolvedPart struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Price float64 `json:"price"`
	Link  string  `json:"link"`
}

// ComparisonResult is the prebuilt-vs-parts price comparison returned to callers
type ComparisonResult struct {
	PrebuiltName    string         `json:"prebuilt_name"`
	PrebuiltPrice   float64        `json:"prebuilt_price"`
	Parts           []ResolvedPart `json:"parts"`
	TotalPartsPrice float64        `json:"total_parts_price"`
	PriceDifference float64        `json:"price_difference"`
}

// CompareRequest represents a comparison request from a client
type CompareRequest struct {
	URL       string `json:"url"`
	UserAgent string `json:"user_agent,omitempty"` // optional client hint, forwarded to the page fetch
	Currency  string `json:"currency,omitempty"`   // optional override of the geolocated currency
	ClientIP  string `json:"-"`
}

// SearchQuery is a retailer catalog search
type SearchQuery struct {
	Text         string
	CategoryCode string // retailer-specific category filter, may be empty
}

// Listing is a single product card from a retailer search page
type Listing struct {
	Title     string
	PriceText string
	Link      string
}

// Locale is the requester's resolved country and currency
type Locale struct {
	CountryCode string `json:"country_code"`
	Currency    string `json:"currency"`
}

// ChatRequest is a single-turn instruction sent to a text-generation model
type ChatRequest struct {
	Model  string
	System string
	Prompt string
}
