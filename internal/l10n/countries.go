package l10n

import "satchmo-store/internal/model"

func areas(country string, pairs ...string) []model.AdminArea {
	out := make([]model.AdminArea, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.AdminArea{Country: country, Abbrev: pairs[i], Name: pairs[i+1]})
	}
	return out
}

// DefaultCountries is the seed data loaded on first start.
func DefaultCountries() []model.Country {
	return []model.Country{
		{ISO2: "US", Name: "United States", Active: true, Areas: areas("US",
			"AL", "Alabama", "AK", "Alaska", "AZ", "Arizona", "AR", "Arkansas", "CA", "California",
			"CO", "Colorado", "CT", "Connecticut", "DE", "Delaware", "DC", "District of Columbia",
			"FL", "Florida", "GA", "Georgia", "HI", "Hawaii", "ID", "Idaho", "IL", "Illinois",
			"IN", "Indiana", "IA", "Iowa", "KS", "Kansas", "KY", "Kentucky", "LA", "Louisiana",
			"ME", "Maine", "MD", "Maryland", "MA", "Massachusetts", "MI", "Michigan", "MN", "Minnesota",
			"MS", "Mississippi", "MO", "Missouri", "MT", "Montana", "NE", "Nebraska", "NV", "Nevada",
			"NH", "New Hampshire", "NJ", "New Jersey", "NM", "New Mexico", "NY", "New York",
			"NC", "North Carolina", "ND", "North Dakota", "OH", "Ohio", "OK", "Oklahoma", "OR", "Oregon",
			"PA", "Pennsylvania", "RI", "Rhode Island", "SC", "South Carolina", "SD", "South Dakota",
			"TN", "Tennessee", "TX", "Texas", "UT", "Utah", "VT", "Vermont", "VA", "Virginia",
			"WA", "Washington", "WV", "West Virginia", "WI", "Wisconsin", "WY", "Wyoming",
		)},
		{ISO2: "CA", Name: "Canada", Active: true, Areas: areas("CA",
			"AB", "Alberta", "BC", "British Columbia", "MB", "Manitoba", "NB", "New Brunswick",
			"NL", "Newfoundland and Labrador", "NS", "Nova Scotia", "NT", "Northwest Territories",
			"NU", "Nunavut", "ON", "Ontario", "PE", "Prince Edward Island", "QC", "Quebec",
			"SK", "Saskatchewan", "YT", "Yukon",
		)},
		{ISO2: "AU", Name: "Australia", Active: true, Areas: areas("AU",
			"ACT", "Australian Capital Territory", "NSW", "New South Wales", "NT", "Northern Territory",
			"QLD", "Queensland", "SA", "South Australia", "TAS", "Tasmania", "VIC", "Victoria",
			"WA", "Western Australia",
		)},
		{ISO2: "GB", Name: "United Kingdom", Active: true},
		{ISO2: "IE", Name: "Ireland", Active: true},
		{ISO2: "DE", Name: "Germany", Active: true},
		{ISO2: "FR", Name: "France", Active: true},
		{ISO2: "NL", Name: "Netherlands", Active: true},
		{ISO2: "ES", Name: "Spain", Active: true},
		{ISO2: "IT", Name: "Italy", Active: true},
		{ISO2: "JP", Name: "Japan", Active: true},
		{ISO2: "NZ", Name: "New Zealand", Active: true},
		{ISO2: "MX", Name: "Mexico", Active: false},
		{ISO2: "BR", Name: "Brazil", Active: false},
	}
}
