package crawler

import (
	"strings"

	"github.com/brandpulse/strategy-cli/internal/model"
)

// techSignatures maps technology names to substrings whose presence in a
// page's HTML identifies them. Presence of any one signature is sufficient;
// there is no scoring.
var techSignatures = map[string][]string{
	"WordPress":        {"wp-content", "wp-includes", "wordpress"},
	"Shopify":          {"cdn.shopify.com", "shopify-section", "myshopify"},
	"Wix":              {"wix.com", "wixstatic.com", "wix-code"},
	"Squarespace":      {"squarespace.com", "static1.squarespace", "sqsp.net"},
	"Webflow":          {"webflow.io", "webflow.com", "wf-page"},
	"React":            {"react-dom", "_react", "data-reactroot"},
	"Next.js":          {"_next/static", "__next_data__", "next/router"},
	"Vue.js":           {"vue.js", "data-v-", "__vue__"},
	"Nuxt":             {"_nuxt/", "__nuxt"},
	"Angular":          {"ng-version", "angular.js", "ng-app"},
	"Svelte":           {"svelte-", "__svelte"},
	"jQuery":           {"jquery.min.js", "jquery.js"},
	"Bootstrap":        {"bootstrap.min.css", "bootstrap.bundle"},
	"Tailwind CSS":     {"tailwindcss", "tailwind.min.css"},
	"Drupal":           {"drupal.js", "drupal-settings-json", "sites/default/files"},
	"Joomla":           {"joomla", "com_content"},
	"TYPO3":            {"typo3conf", "typo3temp"},
	"Magento":          {"mage/cookies", "magento_", "static/version"},
	"WooCommerce":      {"woocommerce", "wc-ajax"},
	"HubSpot":          {"hs-scripts.com", "hubspot.com", "hsforms"},
	"Cloudflare":       {"cdn-cgi/", "cloudflare"},
	"Google Analytics": {"google-analytics.com", "gtag(", "googletagmanager"},
}

// headerSignatures maps lowercase substrings of the x-powered-by and server
// response headers to technology names.
var headerSignatures = map[string]string{
	"php":        "PHP",
	"express":    "Express",
	"asp.net":    "ASP.NET",
	"nginx":      "Nginx",
	"apache":     "Apache",
	"cloudflare": "Cloudflare",
	"vercel":     "Vercel",
	"netlify":    "Netlify",
}

// urlSignatures maps URL substrings to technology names.
var urlSignatures = map[string]string{
	"/wp-content/":  "WordPress",
	"myshopify.com": "Shopify",
	"/_next/":       "Next.js",
	"/_nuxt/":       "Nuxt",
}

// DetectTechnologies scans page HTML, response headers, and URLs for known
// framework and CMS fingerprints. The result is a deduplicated, unordered
// set of technology names.
func DetectTechnologies(pages []model.Page) []string {
	seen := make(map[string]struct{})
	var found []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		found = append(found, name)
	}

	for _, p := range pages {
		html := strings.ToLower(p.HTML)
		if html != "" {
			for name, signatures := range techSignatures {
				for _, sig := range signatures {
					if strings.Contains(html, sig) {
						add(name)
						break
					}
				}
			}
		}

		for _, header := range []string{"x-powered-by", "server"} {
			value := strings.ToLower(headerValue(p.Headers, header))
			if value == "" {
				continue
			}
			for sig, name := range headerSignatures {
				if strings.Contains(value, sig) {
					add(name)
				}
			}
		}

		lowerURL := strings.ToLower(p.URL)
		for sig, name := range urlSignatures {
			if strings.Contains(lowerURL, sig) {
				add(name)
			}
		}
	}

	return found
}

// headerValue looks a header up case-insensitively.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
