package scraper

import "keyword-bid-analyzer/models"

// CSS selectors used to read ad signals off the result pages.
// Centralising them makes future markup updates trivial.
const (
	// Desktop results
	PCResultBlocks = `#main_pack > section`
	PCAdBlockMark  = `.sp_nad`
	PCAdLinks      = `#main_pack section.sp_nad li.lst_item a.lnk_head`

	// Mobile results
	MobileResultBlocks = `#ct > section`
	MobileAdBlockMark  = `.sp_nad`
	MobileAdLinks      = `#ct section.sp_nad li.lst_item a.url_area`

	// Minimal readiness marker after navigation.
	PageReadySelector = `body`
)

type deviceSelectors struct {
	resultBlocks string
	adBlockMark  string
	adLinks      string
}

func selectorsFor(dev models.Device) deviceSelectors {
	if dev == models.DeviceMobile {
		return deviceSelectors{
			resultBlocks: MobileResultBlocks,
			adBlockMark:  MobileAdBlockMark,
			adLinks:      MobileAdLinks,
		}
	}
	return deviceSelectors{
		resultBlocks: PCResultBlocks,
		adBlockMark:  PCAdBlockMark,
		adLinks:      PCAdLinks,
	}
}
