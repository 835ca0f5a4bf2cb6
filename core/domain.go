package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	ResourceMetadata = "metadata"
	ResourceDOI      = "doi"
	ResourceMedia    = "media"
)

const (
	DefaultResourceType = "Dataset"
	DefaultLanguage     = "eng"
)

// IdentifierDigits is the zero padded width of the numeric DOI suffix.
const IdentifierDigits = 7

// IdentifierRecord maps a catalog package to the DOI minted for it.
type IdentifierRecord struct {
	ID         string
	PackageID  string
	Identifier string
	CreatedAt  time.Time
}

type CreateIdentifierInput struct {
	PackageID  string
	Identifier string
}

func (in CreateIdentifierInput) Validate() error {
	if strings.TrimSpace(in.PackageID) == "" {
		return fmt.Errorf("core: package id is required")
	}
	if strings.TrimSpace(in.Identifier) == "" {
		return fmt.Errorf("core: identifier is required")
	}
	return nil
}

// MetadataInput carries the mandatory DataCite properties plus optional ones.
// Creators are listed in priority order.
type MetadataInput struct {
	Identifier      string
	Title           string
	Creators        []string
	Publisher       string
	PublicationYear string
	Options         MetadataOptions
}

type MetadataOptions struct {
	Subjects     []string
	Description  string
	Size         string
	Format       string
	Version      string
	Rights       string
	ResourceType string
	Language     string
	GeoPoint     string
	GeoBox       string
}

func (in MetadataInput) Validate() error {
	missing := make([]string, 0, 5)
	if strings.TrimSpace(in.Identifier) == "" {
		missing = append(missing, "identifier")
	}
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if len(NormalizeCreators(in.Creators...)) == 0 {
		missing = append(missing, "creator")
	}
	if strings.TrimSpace(in.Publisher) == "" {
		missing = append(missing, "publisher")
	}
	if strings.TrimSpace(in.PublicationYear) == "" {
		missing = append(missing, "publication_year")
	}
	if len(missing) > 0 {
		return fmt.Errorf("core: metadata %s required", strings.Join(missing, ", "))
	}
	return nil
}

// NormalizeCreators accepts a single creator or an ordered list and drops
// blank entries while preserving priority order.
func NormalizeCreators(creators ...string) []string {
	out := make([]string, 0, len(creators))
	for _, creator := range creators {
		trimmed := strings.TrimSpace(creator)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

type MetadataUpsertResult struct {
	StatusCode int
	Location   string
	Body       string
}

type MediaEntry struct {
	MimeType string
	URL      string
}

type PublishRequest struct {
	Metadata MetadataInput
	URL      string
}

func (r PublishRequest) Validate() error {
	if err := r.Metadata.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("core: landing page url is required")
	}
	return nil
}

type PublishResult struct {
	Identifier string
	URL        string
	Metadata   MetadataUpsertResult
}

// FormatIdentifier joins the DOI prefix and a zero padded numeric suffix,
// e.g. FormatIdentifier("10.5072", 44634) == "10.5072/0044634".
func FormatIdentifier(prefix string, number int) string {
	return fmt.Sprintf("%s/%0*d", strings.TrimSuffix(strings.TrimSpace(prefix), "/"), IdentifierDigits, number)
}
