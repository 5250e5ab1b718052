package copper

// Config holds connection settings for the Copper developer API.
type Config struct {
	BaseURL        string
	AccessToken    string
	UserEmail      string
	ActivityTypeID int
}

// ActivityType identifies the kind of activity being logged.
type ActivityType struct {
	Category string `json:"category"`
	ID       int    `json:"id"`
}

// Parent links an activity to the CRM record it belongs to.
type Parent struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
}

// ActivityRequest is the payload for POST /activities.
type ActivityRequest struct {
	Type         ActivityType `json:"type"`
	Details      string       `json:"details"`
	Parent       *Parent      `json:"parent,omitempty"`
	ActivityDate int64        `json:"activity_date,omitempty"`
}

// Activity is the created activity record.
type Activity struct {
	ID           int    `json:"id"`
	Details      string `json:"details"`
	ActivityDate int64  `json:"activity_date"`
}

// PersonSearchRequest is the payload for POST /people/search.
type PersonSearchRequest struct {
	Emails   []string `json:"emails,omitempty"`
	PageSize int      `json:"page_size,omitempty"`
}

// Person is a CRM contact record.
type Person struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
