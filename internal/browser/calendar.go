package browser

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/varoOP/ticketwatch/internal/domain"
	"golang.org/x/net/html"
)

var monthPattern = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})`)

// MonthReader finds the month a calendar page is showing
type MonthReader interface {
	ReadDisplayedMonth(page string) (domain.YearMonth, bool)
}

func matchMonth(text string) (domain.YearMonth, bool) {
	m := monthPattern.FindStringSubmatch(text)
	if m == nil {
		return domain.YearMonth{}, false
	}

	year, err := strconv.Atoi(m[2])
	if err != nil {
		return domain.YearMonth{}, false
	}

	for i := time.January; i <= time.December; i++ {
		if i.String() == m[1] {
			return domain.YearMonth{Year: year, Month: i}, true
		}
	}
	return domain.YearMonth{}, false
}

// pageTextReader scans the visible text of the whole page
type pageTextReader struct{}

func (pageTextReader) ReadDisplayedMonth(page string) (domain.YearMonth, bool) {
	return matchMonth(visibleText(page))
}

func visibleText(page string) string {
	var b strings.Builder
	skip := 0

	z := html.NewTokenizer(strings.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isHiddenTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHiddenTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isHiddenTag(name string) bool {
	return name == "script" || name == "style" || name == "noscript"
}

// cellReader looks at the first cells of the calendar table only
type cellReader struct {
	limit int
}

func (r cellReader) ReadDisplayedMonth(page string) (domain.YearMonth, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return domain.YearMonth{}, false
	}

	var (
		found domain.YearMonth
		ok    bool
	)
	doc.Find("table td").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if r.limit > 0 && i >= r.limit {
			return false
		}
		found, ok = matchMonth(s.Text())
		return !ok
	})
	return found, ok
}

// layeredReader returns the first answer of its readers
type layeredReader []MonthReader

func (l layeredReader) ReadDisplayedMonth(page string) (domain.YearMonth, bool) {
	for _, r := range l {
		if ym, ok := r.ReadDisplayedMonth(page); ok {
			return ym, true
		}
	}
	return domain.YearMonth{}, false
}

func newMonthReader(p Profile) MonthReader {
	return layeredReader{pageTextReader{}, cellReader{limit: p.MonthCells}}
}

// calendarPager is the part of a session the month navigation needs
type calendarPager interface {
	DisplayedMonth(ctx context.Context) (domain.YearMonth, bool)
	Step(ctx context.Context, forward bool) error
	Pause(ctx context.Context, d time.Duration) error
}

type navigation struct {
	maxAttempts int
	settle      time.Duration
	unreadable  time.Duration
}

func navigateToMonth(ctx context.Context, log zerolog.Logger, pager calendarPager, target domain.YearMonth, nav navigation) error {
	for attempt := 1; attempt <= nav.maxAttempts; attempt++ {
		current, ok := pager.DisplayedMonth(ctx)
		if !ok {
			log.Warn().Int("attempt", attempt).Msg("Could not determine current calendar month")
			if err := pager.Pause(ctx, nav.unreadable); err != nil {
				return &domain.AutomationError{Op: "navigate to month", Err: err}
			}
			continue
		}

		log.Info().Str("current", current.String()).Str("target", target.String()).Msg("Calendar month")

		if current == target {
			log.Info().Str("month", target.String()).Msg("Reached target month")
			return nil
		}

		forward := current.Before(target)
		if forward {
			log.Info().Msg("Navigating to next month")
		} else {
			log.Info().Msg("Navigating to previous month")
		}

		if err := pager.Step(ctx, forward); err != nil {
			return &domain.AutomationError{Op: "navigate to month", Err: err}
		}

		if err := pager.Pause(ctx, nav.settle); err != nil {
			return &domain.AutomationError{Op: "navigate to month", Err: err}
		}
	}

	return &domain.AutomationError{Op: "navigation exhausted: could not reach " + target.String()}
}
