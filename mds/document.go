package mds

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/goliatone/go-datacite/core"
)

const (
	KernelNamespace      = "http://datacite.org/schema/kernel-3"
	XSINamespace         = "http://www.w3.org/2001/XMLSchema-instance"
	KernelSchemaLocation = "http://datacite.org/schema/kernel-3 http://schema.datacite.org/meta/kernel-3/metadata.xsd"
)

const (
	identifierTypeDOI       = "DOI"
	descriptionTypeAbstract = "Abstract"
	resourceTypeGeneral     = "Dataset"
)

// Field order follows the kernel-3 document layout the registry expects.
type resourceDocument struct {
	XMLName         xml.Name             `xml:"resource"`
	Xmlns           string               `xml:"xmlns,attr"`
	XmlnsXSI        string               `xml:"xmlns:xsi,attr"`
	SchemaLocation  string               `xml:"xsi:schemaLocation,attr"`
	Identifier      identifierElement    `xml:"identifier"`
	Titles          titlesElement        `xml:"titles"`
	Creators        creatorsElement      `xml:"creators"`
	Publisher       string               `xml:"publisher"`
	PublicationYear string               `xml:"publicationYear"`
	Subjects        *subjectsElement     `xml:"subjects,omitempty"`
	Descriptions    *descriptionsElement `xml:"descriptions,omitempty"`
	Sizes           *sizesElement        `xml:"sizes,omitempty"`
	Formats         *formatsElement      `xml:"formats,omitempty"`
	Version         string               `xml:"version,omitempty"`
	RightsList      *rightsListElement   `xml:"rightsList,omitempty"`
	ResourceType    resourceTypeElement  `xml:"resourceType"`
	Language        string               `xml:"language"`
	GeoLocations    *geoLocationsElement `xml:"geoLocations,omitempty"`
}

type identifierElement struct {
	Type  string `xml:"identifierType,attr"`
	Value string `xml:",chardata"`
}

type titlesElement struct {
	Title string `xml:"title"`
}

type creatorsElement struct {
	Creator []creatorElement `xml:"creator"`
}

type creatorElement struct {
	Name string `xml:"creatorName"`
}

type subjectsElement struct {
	Subject []string `xml:"subject"`
}

type descriptionsElement struct {
	Description descriptionElement `xml:"description"`
}

type descriptionElement struct {
	Type  string `xml:"descriptionType,attr"`
	Value string `xml:",chardata"`
}

type sizesElement struct {
	Size string `xml:"size"`
}

type formatsElement struct {
	Format string `xml:"format"`
}

type rightsListElement struct {
	Rights string `xml:"rights"`
}

type resourceTypeElement struct {
	General string `xml:"resourceTypeGeneral,attr"`
	Value   string `xml:",chardata"`
}

type geoLocationsElement struct {
	GeoLocation geoLocationElement `xml:"geoLocation"`
}

type geoLocationElement struct {
	Point string `xml:"geoLocationPoint,omitempty"`
	Box   string `xml:"geoLocationBox,omitempty"`
}

// BuildDocument renders metadata as a kernel-3 resource document. Title,
// description and creator names are unicode escaped. When both a point and a
// box are supplied only the box is emitted.
func BuildDocument(in core.MetadataInput) ([]byte, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	opts := in.Options

	doc := resourceDocument{
		Xmlns:           KernelNamespace,
		XmlnsXSI:        XSINamespace,
		SchemaLocation:  KernelSchemaLocation,
		Identifier:      identifierElement{Type: identifierTypeDOI, Value: strings.TrimSpace(in.Identifier)},
		Titles:          titlesElement{Title: UnicodeEscape(strings.TrimSpace(in.Title))},
		Publisher:       strings.TrimSpace(in.Publisher),
		PublicationYear: strings.TrimSpace(in.PublicationYear),
		Version:         strings.TrimSpace(opts.Version),
		ResourceType: resourceTypeElement{
			General: resourceTypeGeneral,
			Value:   firstNonEmpty(opts.ResourceType, core.DefaultResourceType),
		},
		Language: firstNonEmpty(opts.Language, core.DefaultLanguage),
	}
	for _, creator := range core.NormalizeCreators(in.Creators...) {
		doc.Creators.Creator = append(doc.Creators.Creator, creatorElement{Name: UnicodeEscape(creator)})
	}
	if subjects := nonEmpty(opts.Subjects); len(subjects) > 0 {
		doc.Subjects = &subjectsElement{Subject: subjects}
	}
	if description := strings.TrimSpace(opts.Description); description != "" {
		doc.Descriptions = &descriptionsElement{Description: descriptionElement{
			Type:  descriptionTypeAbstract,
			Value: UnicodeEscape(description),
		}}
	}
	if size := strings.TrimSpace(opts.Size); size != "" {
		doc.Sizes = &sizesElement{Size: size}
	}
	if format := strings.TrimSpace(opts.Format); format != "" {
		doc.Formats = &formatsElement{Format: format}
	}
	if rights := strings.TrimSpace(opts.Rights); rights != "" {
		doc.RightsList = &rightsListElement{Rights: rights}
	}
	if box := strings.TrimSpace(opts.GeoBox); box != "" {
		doc.GeoLocations = &geoLocationsElement{GeoLocation: geoLocationElement{Box: box}}
	} else if point := strings.TrimSpace(opts.GeoPoint); point != "" {
		doc.GeoLocations = &geoLocationsElement{GeoLocation: geoLocationElement{Point: point}}
	}

	out, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("mds: encode metadata document: %w", err)
	}
	return out, nil
}

// UnicodeEscape rewrites s so that only printable ASCII remains: backslash
// and control characters are escaped, other code points become \xNN, \uNNNN
// or \UNNNNNNNN.
func UnicodeEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x7f:
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
