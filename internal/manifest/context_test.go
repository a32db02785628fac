package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePageContext(t *testing.T) {
	tests := []struct {
		name string
		text string
		prev PageContext
		want PageContext
	}{
		{
			name: "delivery header",
			text: "Delivered By: John Smith (4471)\nLocation: Leeds",
			want: PageContext{Section: SectionDelivery, DriverName: "John Smith", DriverID: "4471"},
		},
		{
			name: "collection header",
			text: "Collected By: Jane Doe (882)",
			want: PageContext{Section: SectionCollection, DriverName: "Jane Doe", DriverID: "882"},
		},
		{
			name: "no header inherits previous page",
			text: "some table rows with no header at all",
			prev: PageContext{Section: SectionCollection, DriverName: "Jane Doe", DriverID: "882"},
			want: PageContext{Section: SectionCollection, DriverName: "Jane Doe", DriverID: "882"},
		},
		{
			name: "section restated without driver keeps driver",
			text: "Delivered By:",
			prev: PageContext{Section: SectionCollection, DriverName: "Jane Doe", DriverID: "882"},
			want: PageContext{Section: SectionDelivery, DriverName: "Jane Doe", DriverID: "882"},
		},
		{
			name: "empty page and empty previous stays unknown",
			text: "",
			want: PageContext{Section: SectionUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePageContext(tt.text, tt.prev)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"simple", "Location: Leeds", "Leeds"},
		{"multi word", "Location: Leeds North Depot", "Leeds North Depot"},
		{"truncated at space run", "Location: Leeds North   Page 1 of 4", "Leeds North"},
		{"stops at newline", "Location: Leeds\nDelivered By: John Smith (4471)", "Leeds"},
		{"absent", "Delivered By: John Smith (4471)", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLocation(tt.text))
		})
	}
}

func TestSectionString(t *testing.T) {
	assert.Equal(t, "Delivery", SectionDelivery.String())
	assert.Equal(t, "Collection", SectionCollection.String())
	assert.Equal(t, "Unknown", SectionUnknown.String())
}
