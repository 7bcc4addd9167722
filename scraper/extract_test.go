package scraper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"keyword-bid-analyzer/models"
)

const pcResultsHTML = `<html><body><div id="main_pack">
	<section class="sc_new">organic block</section>
	<section class="sp_nad">
		<ul>
			<li class="lst_item"><a class="lnk_head" href="#">ad one</a></li>
			<li class="lst_item"><a class="lnk_head" href="#">ad two</a></li>
			<li class="lst_item"><a class="lnk_head" href="#">ad three</a></li>
		</ul>
	</section>
	<section class="sc_new">another organic block</section>
</div></body></html>`

const mobileResultsHTML = `<html><body><div id="ct">
	<section class="sp_nad">
		<ul>
			<li class="lst_item"><a class="url_area" href="#">ad one</a></li>
			<li class="lst_item"><a class="url_area" href="#">ad two</a></li>
		</ul>
	</section>
	<section class="sc_new">organic block</section>
</div></body></html>`

const noAdsHTML = `<html><body><div id="main_pack">
	<section class="sc_new">organic only</section>
</div></body></html>`

func TestExtractAdSignalsPC(t *testing.T) {
	require := require.New(t)

	sig, err := ExtractAdSignals(pcResultsHTML, models.DevicePC)
	require.NoError(err)
	require.Equal(2, sig.BlockIndex)
	require.Equal(3, sig.LinkCount)
}

func TestExtractAdSignalsMobile(t *testing.T) {
	require := require.New(t)

	sig, err := ExtractAdSignals(mobileResultsHTML, models.DeviceMobile)
	require.NoError(err)
	require.Equal(1, sig.BlockIndex)
	require.Equal(2, sig.LinkCount)
}

func TestExtractAdSignalsNoSponsoredSection(t *testing.T) {
	require := require.New(t)

	sig, err := ExtractAdSignals(noAdsHTML, models.DevicePC)
	require.NoError(err)
	require.Equal(0, sig.BlockIndex)
	require.Equal(0, sig.LinkCount)
}
