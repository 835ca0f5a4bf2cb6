package mds

import (
	"strings"
	"testing"

	"github.com/goliatone/go-datacite/core"
)

func sampleInput() core.MetadataInput {
	return core.MetadataInput{
		Identifier:      "10.5072/0000001",
		Title:           "Ocean temperatures",
		Creators:        []string{"Alice", "Bob"},
		Publisher:       "ACME Data Centre",
		PublicationYear: "2016",
	}
}

func TestBuildDocument_MandatoryFieldsAndDefaults(t *testing.T) {
	out, err := BuildDocument(sampleInput())
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	doc := string(out)
	for _, want := range []string{
		`<resource xmlns="` + KernelNamespace + `"`,
		`xmlns:xsi="` + XSINamespace + `"`,
		`xsi:schemaLocation="` + KernelSchemaLocation + `"`,
		`<identifier identifierType="DOI">10.5072/0000001</identifier>`,
		`<title>Ocean temperatures</title>`,
		`<publisher>ACME Data Centre</publisher>`,
		`<publicationYear>2016</publicationYear>`,
		`<resourceType resourceTypeGeneral="Dataset">Dataset</resourceType>`,
		`<language>eng</language>`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected %q in document:\n%s", want, doc)
		}
	}
	for _, absent := range []string{"<subjects", "<descriptions", "<sizes", "<formats", "<version", "<rightsList", "<geoLocations"} {
		if strings.Contains(doc, absent) {
			t.Fatalf("expected optional element %q to be omitted:\n%s", absent, doc)
		}
	}
	if strings.HasPrefix(doc, "<?xml") {
		t.Fatalf("expected a document fragment without xml declaration")
	}
}

func TestBuildDocument_CreatorsKeepPriorityOrder(t *testing.T) {
	in := sampleInput()
	in.Creators = []string{"Zed", "Alice", "Mallory"}
	out, err := BuildDocument(in)
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	doc := string(out)
	zed := strings.Index(doc, "<creatorName>Zed</creatorName>")
	alice := strings.Index(doc, "<creatorName>Alice</creatorName>")
	mallory := strings.Index(doc, "<creatorName>Mallory</creatorName>")
	if zed < 0 || alice < 0 || mallory < 0 || !(zed < alice && alice < mallory) {
		t.Fatalf("expected creators in input order:\n%s", doc)
	}
}

func TestBuildDocument_SingleCreator(t *testing.T) {
	in := sampleInput()
	in.Creators = []string{"Carol"}
	out, err := BuildDocument(in)
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	if strings.Count(string(out), "<creator>") != 1 {
		t.Fatalf("expected exactly one creator element:\n%s", out)
	}
}

func TestBuildDocument_OptionalElementsInOrder(t *testing.T) {
	in := sampleInput()
	in.Options = core.MetadataOptions{
		Subjects:     []string{"oceans", "temperature"},
		Description:  "Daily readings",
		Size:         "12 MB",
		Format:       "text/csv",
		Version:      "1.1",
		Rights:       "CC-BY-4.0",
		ResourceType: "Collection",
		Language:     "pol",
		GeoPoint:     "52.2 21.0",
	}
	out, err := BuildDocument(in)
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	doc := string(out)
	order := []string{
		"<identifier", "<titles>", "<creators>", "<publisher>", "<publicationYear>",
		"<subjects>", "<descriptions>", "<sizes>", "<formats>", "<version>",
		"<rightsList>", "<resourceType", "<language>", "<geoLocations>",
	}
	last := -1
	for _, element := range order {
		idx := strings.Index(doc, element)
		if idx < 0 {
			t.Fatalf("expected %q in document:\n%s", element, doc)
		}
		if idx <= last {
			t.Fatalf("expected %q after previous element:\n%s", element, doc)
		}
		last = idx
	}
	for _, want := range []string{
		"<subject>oceans</subject>",
		"<subject>temperature</subject>",
		`<description descriptionType="Abstract">Daily readings</description>`,
		`<resourceType resourceTypeGeneral="Dataset">Collection</resourceType>`,
		"<language>pol</language>",
		"<geoLocationPoint>52.2 21.0</geoLocationPoint>",
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected %q in document:\n%s", want, doc)
		}
	}
}

func TestBuildDocument_BoxWinsOverPoint(t *testing.T) {
	in := sampleInput()
	in.Options.GeoPoint = "52.2 21.0"
	in.Options.GeoBox = "41.0 -71.0 42.0 -70.0"
	out, err := BuildDocument(in)
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	doc := string(out)
	if strings.Count(doc, "<geoLocation>") != 1 {
		t.Fatalf("expected a single geoLocation:\n%s", doc)
	}
	if !strings.Contains(doc, "<geoLocationBox>41.0 -71.0 42.0 -70.0</geoLocationBox>") {
		t.Fatalf("expected box in document:\n%s", doc)
	}
	if strings.Contains(doc, "geoLocationPoint") {
		t.Fatalf("expected point to be dropped when a box is present:\n%s", doc)
	}
}

func TestBuildDocument_EscapesNonASCIIText(t *testing.T) {
	in := sampleInput()
	in.Title = "Zażółć"
	in.Creators = []string{"Łukasz"}
	in.Options.Description = "naïve\\path"
	out, err := BuildDocument(in)
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	doc := string(out)
	for _, want := range []string{
		`<title>Za\u017c\xf3\u0142\u0107</title>`,
		`<creatorName>\u0141ukasz</creatorName>`,
		`>na\xefve\\path</description>`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected %q in document:\n%s", want, doc)
		}
	}
}

func TestBuildDocument_RejectsMissingMandatoryFields(t *testing.T) {
	in := sampleInput()
	in.Publisher = " "
	if _, err := BuildDocument(in); err == nil || !strings.Contains(err.Error(), "publisher") {
		t.Fatalf("expected missing publisher error, got %v", err)
	}
}

func TestUnicodeEscape(t *testing.T) {
	cases := map[string]string{
		"plain":     "plain",
		"tab\there": `tab\there`,
		"line\n":    `line\n`,
		"\x01":      `\x01`,
		"é":         `\xe9`,
		"€":         `\u20ac`,
		"𝄞":         `\U0001d11e`,
	}
	for in, want := range cases {
		if got := UnicodeEscape(in); got != want {
			t.Fatalf("UnicodeEscape(%q) = %q, want %q", in, got, want)
		}
	}
}
