package sport

import "strings"

// Kind selects the status vocabulary and score shape used for a sport.
type Kind string

const (
	KindInvasion Kind = "invasion"
	KindCricket  Kind = "cricket"
)

// FeedFormat is the wire format of a sport's live feed.
type FeedFormat string

const (
	FormatXML  FeedFormat = "xml"
	FormatJSON FeedFormat = "json"
)

// Sport is a catalog entry. Slug doubles as the provider's feed path segment.
type Sport struct {
	ID          int64
	Slug        string
	Name        string
	Kind        Kind
	LiveFormat  FeedFormat
	LiveEnabled bool
}

func ParseKind(value string) Kind {
	if strings.EqualFold(strings.TrimSpace(value), string(KindCricket)) {
		return KindCricket
	}
	return KindInvasion
}

func ParseFeedFormat(value string) FeedFormat {
	if strings.EqualFold(strings.TrimSpace(value), string(FormatJSON)) {
		return FormatJSON
	}
	return FormatXML
}

// IsCricket also accepts the slug so catalog entries without an explicit kind still work.
func (s Sport) IsCricket() bool {
	return s.Kind == KindCricket || strings.EqualFold(s.Slug, "cricket")
}
