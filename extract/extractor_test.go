package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent591/models"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

func newTestExtractor() *Extractor {
	return New("", DefaultRates())
}

func page(body string) string {
	return "<html><body>" + body + "</body></html>"
}

func TestExtract_FullListing(t *testing.T) {
	l, err := newTestExtractor().Extract(loadFixture(t, "listing_full.html"), "17012345")
	require.NoError(t, err)

	assert.Equal(t, "17012345", l.ID)
	assert.Equal(t, "https://rent.591.com.tw/17012345", l.URL)
	require.NotNil(t, l.Title)
	assert.Equal(t, "近捷運大安站 精緻套房", *l.Title)

	require.NotNil(t, l.BaseRentNT)
	assert.Equal(t, 18500, *l.BaseRentNT)
	assert.Equal(t, models.PriceConfidenceHigh, l.PriceConfidence)

	require.NotNil(t, l.SizePing)
	assert.Equal(t, 10.0, *l.SizePing)
	require.NotNil(t, l.SizeSqm)
	assert.InDelta(t, 33.0, *l.SizeSqm, 1e-9)
	require.NotNil(t, l.Layout)
	assert.Equal(t, "2房1廳1衛", *l.Layout)
	require.NotNil(t, l.Floor)
	assert.Equal(t, "4F/5F", *l.Floor)

	require.NotNil(t, l.District)
	assert.Equal(t, "Da'an", *l.District)
	require.NotNil(t, l.AddressZh)
	assert.Equal(t, "大安區復興南路一段100號", *l.AddressZh)

	require.NotNil(t, l.DepositMonths)
	assert.Equal(t, 2, *l.DepositMonths)
	require.NotNil(t, l.MinTenancyMonths)
	assert.Equal(t, 12, *l.MinTenancyMonths)
	require.NotNil(t, l.ManagementFeeNT)
	assert.Equal(t, 1200, *l.ManagementFeeNT)

	assert.True(t, *l.WashingMachine)
	assert.True(t, *l.AC)
	assert.True(t, *l.Balcony)
	assert.False(t, *l.Parking)
	assert.True(t, *l.PetsAllowed)

	require.NotNil(t, l.MRTStation)
	assert.Equal(t, "大安站", *l.MRTStation)
	require.NotNil(t, l.MRTDistanceM)
	assert.Equal(t, 350, *l.MRTDistanceM)

	require.True(t, l.HasCoords())
	assert.InDelta(t, 25.0330, *l.Lat, 1e-9)
	assert.InDelta(t, 121.5436, *l.Lng, 1e-9)

	assert.Equal(t, []string{
		"https://img1.591.com.tw/house/2024/05/01/123456.jpg!1000x.water2.jpg",
		"https://img2.591.com.tw/house/2024/05/01/123457.jpg!1000x.water2.jpg",
	}, l.ImageURLs)

	// 2000 + 33 sqm * 70 with AC
	require.NotNil(t, l.UtilitiesEstimateNT)
	assert.Equal(t, 4310, *l.UtilitiesEstimateNT)
	require.NotNil(t, l.TotalMonthlyNT)
	assert.Equal(t, 18500+1200+4310, *l.TotalMonthlyNT)
	require.NotNil(t, l.TotalMonthlyEUR)
	assert.InDelta(t, 648.27, *l.TotalMonthlyEUR, 0.011)
	require.NotNil(t, l.UpfrontCostNT)
	assert.Equal(t, 37000, *l.UpfrontCostNT)
	require.NotNil(t, l.UpfrontCostEUR)
	assert.InDelta(t, 999.0, *l.UpfrontCostEUR, 0.011)
}

func TestExtract_SparseListing(t *testing.T) {
	l, err := newTestExtractor().Extract(loadFixture(t, "listing_sparse.html"), "1")
	require.NoError(t, err)

	require.NotNil(t, l.Title)
	assert.Equal(t, "中正區雅房", *l.Title)

	require.NotNil(t, l.BaseRentNT)
	assert.Equal(t, 16800, *l.BaseRentNT)
	assert.Equal(t, models.PriceConfidenceLow, l.PriceConfidence)

	require.NotNil(t, l.District)
	assert.Equal(t, "Zhongzheng", *l.District)
	assert.Nil(t, l.AddressZh)

	require.NotNil(t, l.MRTStation)
	assert.Equal(t, "近台北車站", *l.MRTStation)
	assert.Nil(t, l.MRTDistanceM)

	assert.False(t, *l.PetsAllowed)

	assert.Nil(t, l.SizePing)
	assert.Nil(t, l.SizeSqm)
	assert.Nil(t, l.UtilitiesEstimateNT)
	assert.Nil(t, l.DepositMonths)
	assert.Nil(t, l.MinTenancyMonths)
	assert.Nil(t, l.Lat)

	// Rent alone still yields totals; deposit falls back to two months.
	assert.Equal(t, 16800, *l.TotalMonthlyNT)
	assert.Equal(t, 33600, *l.UpfrontCostNT)
}

func TestExtract_EmptyDocument(t *testing.T) {
	for _, raw := range []string{"", "   \n\t "} {
		l, err := newTestExtractor().Extract(raw, "1")
		assert.ErrorIs(t, err, ErrNoRecord)
		assert.Nil(t, l)
	}
}

func TestExtract_NoPriceNoSize(t *testing.T) {
	l, err := newTestExtractor().Extract(page("<h1>套房出租</h1><p>聯絡我們</p>"), "99")
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.False(t, l.IsUsable())
	assert.Nil(t, l.BaseRentNT)
	assert.Empty(t, l.PriceConfidence)
	assert.Nil(t, l.SizeSqm)
	assert.Nil(t, l.UtilitiesEstimateNT)
	assert.Nil(t, l.TotalMonthlyNT)
	assert.Nil(t, l.TotalMonthlyEUR)
	assert.Nil(t, l.UpfrontCostNT)
	assert.Nil(t, l.UpfrontCostEUR)
	assert.Nil(t, l.District)
	assert.Nil(t, l.MRTStation)
	assert.NotNil(t, l.ImageURLs)
	assert.Empty(t, l.ImageURLs)
}

func TestExtract_CustomBaseURL(t *testing.T) {
	l, err := New("https://example.test/rent/", DefaultRates()).Extract(page("<p>x</p>"), "42")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/rent/42", l.URL)
}

func TestExtractPrice_Cascade(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		rent       int
		strategy   string
		confidence string
	}{
		{"strong", `<div><strong>12,000</strong> 元/月</div>`, 12000, "strong-monthly", models.PriceConfidenceHigh},
		{"strong with attributes", `<strong class="price">9,800</strong>元/月`, 9800, "strong-monthly", models.PriceConfidenceHigh},
		{"closing strong", `<strong><span>15,000</strong> 元/月`, 15000, "closing-strong-monthly", models.PriceConfidenceHigh},
		{"monthly token skips small figures", `<p>押金 5,000 元/月</p><p>租金 23,000 元/月</p>`, 23000, "monthly-token", models.PriceConfidenceHigh},
		{"bare digits", `<span>16800</span>`, 16800, "bare-digits", models.PriceConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rent, strategy, confidence, ok := ExtractPrice(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.rent, rent)
			assert.Equal(t, tt.strategy, strategy)
			assert.Equal(t, tt.confidence, confidence)
		})
	}
}

func TestExtractPrice_NoMatch(t *testing.T) {
	for _, raw := range []string{`<p>租金面議</p>`, `<p>3,000 元/月</p>`, `<span>1234</span>`} {
		_, _, _, ok := ExtractPrice(raw)
		assert.False(t, ok, raw)
	}
}

func TestExtract_District(t *testing.T) {
	tests := []struct {
		body string
		want *string
	}{
		{"<p>台北市大安區忠孝東路</p>", models.StringPtr("Da'an")},
		{"<p>台北市信義區松仁路</p>", models.StringPtr("Xinyi")},
		{"<p>新北市板橋區文化路</p>", nil},
	}
	for _, tt := range tests {
		l, err := newTestExtractor().Extract(page(tt.body), "1")
		require.NoError(t, err)
		assert.Equal(t, tt.want, l.District, tt.body)
	}
}

func TestDistrictName(t *testing.T) {
	en, ok := DistrictName("大安區")
	assert.True(t, ok)
	assert.Equal(t, "Da'an", en)

	_, ok = DistrictName("板橋區")
	assert.False(t, ok)

	assert.Len(t, DistrictNames(), 12)
}

func TestParseFloor(t *testing.T) {
	tests := map[string]string{
		"4樓/5樓":   "4F/5F",
		"12F/15F": "12F/15F",
		"3樓":      "3F",
		" B1 ":    "B1",
		"頂樓加蓋":    "頂樓加蓋",
		"":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseFloor(in), in)
	}
}

func TestExtract_FloorLabel(t *testing.T) {
	l, err := newTestExtractor().Extract(page("<span>樓層：</span><span>3樓</span>"), "1")
	require.NoError(t, err)
	require.NotNil(t, l.Floor)
	assert.Equal(t, "3F", *l.Floor)
}

func TestParseLeaseTerm(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"一年", 12, true},
		{"半年", 6, true},
		{"3個月", 3, true},
		{"2年", 24, true},
		{"18個月", 18, true},
		{"3年", 36, true},
		{"1個月", 1, true},
		{"11個月", 11, true},
		{"13個月", 13, true},
		{"16個月", 16, true},
		{"12年", 144, true},
		{"", 0, false},
		{"面議", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseLeaseTerm(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestExtract_LeaseAndDeposit(t *testing.T) {
	tests := []struct {
		body    string
		lease   *int
		deposit *int
	}{
		{"<p>租期：半年</p><p>押金兩個月</p>", models.IntPtr(6), models.IntPtr(2)},
		{"<p>最短租期 3 個月</p><p>押金 3 個月</p>", models.IntPtr(3), models.IntPtr(3)},
		{"<p>可月租</p><p>押金1年</p>", models.IntPtr(1), models.IntPtr(12)},
		{"<p>最短租期 11個月</p><p><strong>20,000</strong> 元/月</p>", models.IntPtr(11), nil},
		{"<p>租期：16個月</p>", models.IntPtr(16), nil},
		{"<p>歡迎洽詢</p>", nil, nil},
	}
	for _, tt := range tests {
		l, err := newTestExtractor().Extract(page(tt.body), "1")
		require.NoError(t, err)
		assert.Equal(t, tt.lease, l.MinTenancyMonths, tt.body)
		assert.Equal(t, tt.deposit, l.DepositMonths, tt.body)
	}
}

func TestExtract_ManagementFee(t *testing.T) {
	tests := []struct {
		body string
		want *int
	}{
		{"<p>管理費無</p>", models.IntPtr(0)},
		{"<p>管理費：800元</p>", models.IntPtr(800)},
		{"<p>管理費 1500</p>", models.IntPtr(1500)},
		{"<p>無其他費用</p>", nil},
	}
	for _, tt := range tests {
		l, err := newTestExtractor().Extract(page(tt.body), "1")
		require.NoError(t, err)
		assert.Equal(t, tt.want, l.ManagementFeeNT, tt.body)
	}
}

func TestExtract_Amenities(t *testing.T) {
	l, err := newTestExtractor().Extract(page("<p>空調 機車停車位</p><p>寵物友善</p>"), "1")
	require.NoError(t, err)
	assert.False(t, *l.WashingMachine)
	assert.True(t, *l.AC)
	assert.False(t, *l.Balcony)
	assert.True(t, *l.Parking)
	assert.True(t, *l.PetsAllowed)
}

func TestExtract_NoACLowersUtilities(t *testing.T) {
	l, err := newTestExtractor().Extract(page("<p>10坪</p><p>租金 20,000 元/月</p>"), "1")
	require.NoError(t, err)
	require.NotNil(t, l.UtilitiesEstimateNT)
	assert.Equal(t, 2000+33*30, *l.UtilitiesEstimateNT)
}

func TestPingToSqm(t *testing.T) {
	assert.InDelta(t, 33.0, PingToSqm(10), 1e-9)
	assert.InDelta(t, 26.4, PingToSqm(8), 1e-9)
	assert.Equal(t, 0.0, PingToSqm(0))
}

func TestRates_EstimateUtilities(t *testing.T) {
	r := DefaultRates()
	tests := []struct {
		sqm   float64
		hasAC bool
		want  int
	}{
		{20, true, 3400},
		{20, false, 2600},
		{0, true, 2000},
		{10.5, true, 2735},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.EstimateUtilities(tt.sqm, tt.hasAC), "%v sqm ac=%v", tt.sqm, tt.hasAC)
	}
}

func TestExtractImageURLs_DedupesVariants(t *testing.T) {
	raw := `<img src="https://img1.591.com.tw/house/2023/11/02/555.jpg!750x588.water2.jpg">
<img data-src="https://img1.591.com.tw/house/2023/11/02/555.jpg!1000x.water2.jpg">`
	assert.Equal(t, []string{"https://img1.591.com.tw/house/2023/11/02/555.jpg!1000x.water2.jpg"}, ExtractImageURLs(raw))
}

func TestExtractImageURLs_Cap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < MaxImages+5; i++ {
		fmt.Fprintf(&b, `<img src="https://img2.591.com.tw/house/2024/01/01/%d.jpg">`, 1000+i)
	}
	urls := ExtractImageURLs(b.String())
	require.Len(t, urls, MaxImages)
	assert.Equal(t, "https://img2.591.com.tw/house/2024/01/01/1000.jpg!1000x.water2.jpg", urls[0])
}

func TestExtractImageURLs_None(t *testing.T) {
	urls := ExtractImageURLs(`<img src="https://example.com/a.jpg">`)
	assert.NotNil(t, urls)
	assert.Empty(t, urls)
}

func TestListing_NullFieldsRoundTrip(t *testing.T) {
	l, err := newTestExtractor().Extract(page("<h1>套房</h1>"), "7")
	require.NoError(t, err)

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"base_rent_nt":null`)
	assert.Contains(t, string(data), `"size_ping":null`)
	assert.Contains(t, string(data), `"mrt_station":null`)

	var back models.Listing
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Nil(t, back.BaseRentNT)
	assert.Nil(t, back.SizePing)
	assert.Equal(t, l.ID, back.ID)
	assert.Equal(t, *l.Title, *back.Title)
}
