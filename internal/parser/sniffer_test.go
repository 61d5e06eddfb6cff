package parser

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		want        Format
	}{
		{
			name:        "json content type wins regardless of body",
			contentType: "application/json; charset=utf-8",
			body:        `<FlexQueryResponse/>`,
			want:        FormatJSON,
		},
		{
			name: "brace body is json",
			body: `{"FlexQueryResult": {}}`,
			want: FormatJSON,
		},
		{
			name: "brace body with leading whitespace is json",
			body: "\n\t {\"FlexQueryResult\": {}}",
			want: FormatJSON,
		},
		{
			name: "comma in first line is csv",
			body: "Symbol,Quantity,Price\nAAPL,100,150.25",
			want: FormatCSV,
		},
		{
			name: "xml with commas in content stays xml",
			body: `<FlexQueryResponse><Trade notes="a,b"/></FlexQueryResponse>`,
			want: FormatXML,
		},
		{
			name: "angle bracket body is xml",
			body: "<FlexQueryResponse>\n<FlexStatements/>\n</FlexQueryResponse>",
			want: FormatXML,
		},
		{
			name: "unrecognizable body falls back to xml",
			body: "nothing to see here",
			want: FormatXML,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.contentType, tc.body); got != tc.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tc.contentType, tc.body, got, tc.want)
			}
		})
	}
}
