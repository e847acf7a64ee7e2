package domain

// ProbeReport describes what a plain HTTP fetch of the purchase page found
type ProbeReport struct {
	URL            string
	StatusCode     int
	SiteKeys       []string
	SiteKeyMatches bool
}
