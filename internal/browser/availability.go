package browser

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/varoOP/ticketwatch/internal/domain"
)

// classifyDay inspects the calendar cell of one day.
// A day with a link can be bought; the cell class tells whether stock is low.
func classifyDay(doc *goquery.Document, date time.Time, lastMarkers []string) domain.DateAvailability {
	day := strconv.Itoa(date.Day())

	link := doc.Find("table td a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == day
	}).First()

	if link.Length() == 0 {
		return domain.DateAvailability{Date: date, Status: domain.StatusNotAvailable}
	}

	class, _ := link.Closest("td").Attr("class")
	class = strings.ToLower(class)

	status := domain.StatusAvailable
	for _, marker := range lastMarkers {
		if marker != "" && strings.Contains(class, strings.ToLower(marker)) {
			status = domain.StatusLastTickets
			break
		}
	}

	return domain.DateAvailability{Date: date, Status: status, HasLink: true}
}

// classifyDates classifies every date against one page snapshot. A snapshot
// that cannot be parsed yields unknown for every date.
func classifyDates(page string, dates []time.Time, lastMarkers []string) []domain.DateAvailability {
	results := make([]domain.DateAvailability, 0, len(dates))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		for _, d := range dates {
			results = append(results, unknown(d))
		}
		return results
	}

	for _, d := range dates {
		results = append(results, classifyDay(doc, d, lastMarkers))
	}
	return results
}

func unknown(date time.Time) domain.DateAvailability {
	return domain.DateAvailability{Date: date, Status: domain.StatusUnknown}
}
