package handlers

import "testing"

func TestETagMatches(t *testing.T) {
	etag := bodyETag([]byte(`{"items":[]}`))

	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"*", true},
		{etag, true},
		{"W/" + etag, true},
		{`"other", ` + etag, true},
		{`"other"`, false},
	}

	for _, tt := range tests {
		if got := etagMatches(tt.header, etag); got != tt.want {
			t.Fatalf("etagMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestETagDependsOnBody(t *testing.T) {
	if bodyETag([]byte("a")) == bodyETag([]byte("b")) {
		t.Fatal("different bodies must not share an ETag")
	}
}
