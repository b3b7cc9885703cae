package microsoft

import "time"

// Microsoft service endpoints and token scopes.
const (
	// GraphBaseURL is the Microsoft Graph v1.0 API root.
	GraphBaseURL = "https://graph.microsoft.com/v1.0"
	// GraphScope requests every Graph permission granted to the client.
	GraphScope = "https://graph.microsoft.com/.default"

	// ExchangeBaseURL is the Exchange Online admin API host.
	ExchangeBaseURL = "https://outlook.office365.com"
	// ExchangeScope requests an Exchange Online admin token.
	ExchangeScope = "https://outlook.office365.com/.default"
)

// DefaultRequestTimeout bounds a single HTTP round trip.
const DefaultRequestTimeout = 60 * time.Second
