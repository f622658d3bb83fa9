package discord

import (
	"slices"

	"github.com/gabapcia/hosewatch/internal/addresswatch"
)

// isoTimestamp is the ISO-8601 layout Discord accepts for embed timestamps.
const isoTimestamp = "2006-01-02T15:04:05.000Z07:00"

// Default names of the fields the payload fills in, used when the template
// does not define them.
const (
	DefaultSymbolFieldName        = "Symbol"
	DefaultBalanceChangeFieldName = "Balance change"
	DefaultFiatFieldName          = "Value"
)

// Message is a Discord webhook execution body.
type Message struct {
	Content   string  `json:"content,omitempty" yaml:"content,omitempty"`
	Username  string  `json:"username,omitempty" yaml:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
	Embeds    []Embed `json:"embeds,omitempty" yaml:"embeds,omitempty"`
}

// Embed is a rich embed of a Message.
type Embed struct {
	Title       string       `json:"title,omitempty" yaml:"title,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string       `json:"url,omitempty" yaml:"url,omitempty"`
	Color       int          `json:"color,omitempty" yaml:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty" yaml:"author,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty" yaml:"footer,omitempty"`
	Thumbnail   *EmbedImage  `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty" yaml:"image,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty" yaml:"icon_url,omitempty"`
}

type EmbedFooter struct {
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
	IconURL string `json:"icon_url,omitempty" yaml:"icon_url,omitempty"`
}

type EmbedImage struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value" yaml:"value"`
	Inline bool   `json:"inline,omitempty" yaml:"inline,omitempty"`
}

// FiatValue renders a conversion result the way it appears in notifications.
func FiatValue(r addresswatch.ConversionResult) string {
	return "US$ " + r.String()
}

// BuildPayload returns a fresh copy of template describing n. The first embed
// gets the explorer link, the network icon and the timestamp; its first three
// fields get the symbol, the balance change and the fiat value. Everything else
// in the template is kept as is, and the template itself is never modified.
func BuildPayload(template Message, n addresswatch.Notification) Message {
	msg := template
	msg.Embeds = slices.Clone(template.Embeds)
	if len(msg.Embeds) == 0 {
		msg.Embeds = []Embed{{}}
	}

	embed := msg.Embeds[0]
	embed.URL = n.ExplorerURL
	embed.Thumbnail = &EmbedImage{URL: n.IconURL}
	embed.Timestamp = n.ObservedAt.UTC().Format(isoTimestamp)

	fields := slices.Clone(embed.Fields)
	defaults := []string{DefaultSymbolFieldName, DefaultBalanceChangeFieldName, DefaultFiatFieldName}
	for i := len(fields); i < len(defaults); i++ {
		fields = append(fields, EmbedField{Name: defaults[i], Inline: true})
	}

	fields[0].Value = n.Symbol
	fields[1].Value = n.BalanceChange
	fields[2].Value = FiatValue(n.Fiat)
	embed.Fields = fields

	msg.Embeds[0] = embed
	return msg
}
