package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
<title>GeoConfirmed / @GeoConfirmed</title>
<link>http://localhost:8080/GeoConfirmed</link>
<description><![CDATA[Twitter feed for <b>@GeoConfirmed</b>]]></description>
<item>
<title><![CDATA[GeoConfirmed UKR. <br>Strike on depot near localhost:8080/map]]></title>
<pubDate>Fri, 06 Feb 2026 14:23:45 GMT</pubDate>
<link>http://localhost:8080/GeoConfirmed/status/100#m</link>
<guid>http://localhost:8080/GeoConfirmed/status/100#m</guid>
<dc:creator>@GeoConfirmed</dc:creator>
<description><![CDATA[GeoConfirmed UKR. <img src="pic.jpg"/> Strike   confirmed.]]></description>
</item>
<item>
<title>RT by @GeoConfirmed: someone else's tweet</title>
<pubDate>Fri, 06 Feb 2026 13:00:00 GMT</pubDate>
<link>http://localhost:8080/other/status/200#m</link>
<guid>http://localhost:8080/other/status/200#m</guid>
<dc:creator>@other</dc:creator>
<description>retweeted content</description>
</item>
</channel>
</rss>`

func TestParse(t *testing.T) {
	feed, err := Parse(strings.NewReader(sampleRSS), "@GeoConfirmed")
	require.NoError(t, err)

	assert.Equal(t, "GeoConfirmed / @GeoConfirmed", feed.Title)
	assert.Equal(t, "Twitter feed for @GeoConfirmed", feed.Description)

	// The retweet by @other is filtered out.
	require.Len(t, feed.Items, 1)
	item := feed.Items[0]

	assert.Equal(t, "@GeoConfirmed", item.Author)
	assert.Equal(t, "GeoConfirmed UKR. Strike on depot near x.com/map", item.Title)
	assert.Equal(t, "http://x.com/GeoConfirmed/status/100#m", item.Link)
	assert.Equal(t, "http://localhost:8080/GeoConfirmed/status/100#m", item.ID, "guid is kept verbatim as the stable id")
	assert.Equal(t, "GeoConfirmed UKR. Strike confirmed.", item.Description)
	assert.Equal(t, []string{"pic.jpg"}, item.Images)
	assert.Equal(t, time.Date(2026, time.February, 6, 14, 23, 45, 0, time.UTC), item.Published.UTC())
}

func TestParseBadDate(t *testing.T) {
	bad := strings.Replace(sampleRSS, "Fri, 06 Feb 2026 14:23:45 GMT", "not a date", 1)
	_, err := Parse(strings.NewReader(bad), "@GeoConfirmed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pubDate")
}

func TestParseInvalidXML(t *testing.T) {
	_, err := Parse(strings.NewReader("<rss><channel>"), "@GeoConfirmed")
	assert.Error(t, err)
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "cdata unwrap", in: "<![CDATA[hello]]>", want: "hello"},
		{name: "tags stripped", in: "<p>a <b>bold</b> move</p>", want: "a bold move"},
		{name: "whitespace collapsed", in: "a\n\n  b\tc", want: "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanHTML(tt.in))
		})
	}
}
