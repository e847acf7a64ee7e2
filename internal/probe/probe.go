package probe

import (
	"context"
	"regexp"
	"time"

	"github.com/gocolly/colly"
	"github.com/gocolly/colly/extensions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/ticketwatch/internal/domain"
)

const requestTimeout = 30 * time.Second

// sitekey assignments inside inline scripts, e.g. grecaptcha.render(el, {sitekey: '...'})
var scriptSiteKey = regexp.MustCompile(`['"]?sitekey['"]?\s*:\s*['"]([\w-]{20,})['"]`)

// Service fetches the purchase page without a browser
type Service struct {
	log     zerolog.Logger
	url     string
	siteKey string
}

func NewService(log zerolog.Logger, url, siteKey string) *Service {
	return &Service{
		log:     log.With().Str("module", "probe").Logger(),
		url:     url,
		siteKey: siteKey,
	}
}

// Probe reports the HTTP status of the purchase page and the challenge site keys it declares
func (s *Service) Probe(ctx context.Context) (domain.ProbeReport, error) {
	report := domain.ProbeReport{URL: s.url}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	cc := colly.NewCollector()
	extensions.RandomUserAgent(cc)
	cc.SetRequestTimeout(requestTimeout)

	seen := make(map[string]bool)
	addKey := func(key string) {
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		report.SiteKeys = append(report.SiteKeys, key)
	}

	cc.OnRequest(func(r *colly.Request) {
		s.log.Debug().Str("url", r.URL.String()).Msg("visiting")
	})

	cc.OnResponse(func(r *colly.Response) {
		report.StatusCode = r.StatusCode
	})

	cc.OnHTML("[data-sitekey]", func(e *colly.HTMLElement) {
		addKey(e.Attr("data-sitekey"))
	})

	cc.OnHTML("script", func(e *colly.HTMLElement) {
		for _, m := range scriptSiteKey.FindAllStringSubmatch(e.Text, -1) {
			addKey(m[1])
		}
	})

	var visitErr error
	cc.OnError(func(r *colly.Response, err error) {
		report.StatusCode = r.StatusCode
		visitErr = err
	})

	if err := cc.Visit(s.url); err != nil && visitErr == nil {
		visitErr = err
	}
	cc.Wait()

	if visitErr != nil {
		return report, errors.Wrapf(visitErr, "failed to fetch %s", s.url)
	}

	report.SiteKeyMatches = seen[s.siteKey]

	s.log.Info().
		Int("status", report.StatusCode).
		Strs("site_keys", report.SiteKeys).
		Bool("site_key_matches", report.SiteKeyMatches).
		Msg("Probe complete")

	return report, nil
}
