package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"keyword-bid-analyzer/models"
)

// ExtractAdSignals scans a captured results page for (a) the 1-based ordinal
// of the sponsored block among all result blocks and (b) the number of
// sponsored link elements. Both are 0 when the page carries no sponsored
// section; callers treat a double zero as a failed extraction.
func ExtractAdSignals(html string, dev models.Device) (models.AdSignals, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.AdSignals{}, err
	}

	sel := selectorsFor(dev)
	var sig models.AdSignals

	doc.Find(sel.resultBlocks).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if s.Is(sel.adBlockMark) {
			sig.BlockIndex = i + 1
			return false
		}
		return true
	})
	sig.LinkCount = doc.Find(sel.adLinks).Length()

	return sig, nil
}
