package feed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adeneu/portfolio-web/internal/blog"
)

const (
	MIMERSS      = "application/rss+xml; charset=utf-8"
	MIMEAtom     = "application/atom+xml; charset=utf-8"
	MIMEJSONFeed = "application/feed+json; charset=utf-8"
)

type Metadata struct {
	Title       string
	Description string
	// URL is the home of the feed's language. Post links are built under it.
	URL     string
	FeedURL string
	// SiteURL is the site root that relative assets resolve against. URL is
	// used when it is empty.
	SiteURL  string
	Author   string
	Language string
}

func (m Metadata) assetBase() string {
	if m.SiteURL != "" {
		return m.SiteURL
	}
	return m.URL
}

// PostLister is the part of the blog repository feeds are built from.
type PostLister interface {
	GetAllPosts(ctx context.Context, lang string) ([]blog.ListItem, error)
}

type Generator struct {
	posts PostLister
	now   func() time.Time
}

func NewGenerator(posts PostLister) *Generator {
	return &Generator{posts: posts, now: time.Now}
}

// PostURL is the public address of a post under a language home URL.
func PostURL(homeURL, slug string) string {
	return strings.TrimRight(homeURL, "/") + "/blog/" + slug
}

func (g *Generator) load(ctx context.Context, meta Metadata) ([]blog.ListItem, error) {
	posts, err := g.posts.GetAllPosts(ctx, meta.Language)
	if err != nil {
		return nil, fmt.Errorf("fail to load posts for feed: %w", err)
	}
	return posts, nil
}

func (g *Generator) RSS(ctx context.Context, meta Metadata) ([]byte, error) {
	posts, err := g.load(ctx, meta)
	if err != nil {
		return nil, err
	}
	return RSS(posts, meta, g.now())
}

func (g *Generator) Atom(ctx context.Context, meta Metadata) ([]byte, error) {
	posts, err := g.load(ctx, meta)
	if err != nil {
		return nil, err
	}
	return Atom(posts, meta, g.now())
}

func (g *Generator) JSONFeed(ctx context.Context, meta Metadata) ([]byte, error) {
	posts, err := g.load(ctx, meta)
	if err != nil {
		return nil, err
	}
	return JSONFeed(posts, meta)
}

// Format is one of the published feed documents.
type Format struct {
	Name        string
	Path        string
	ContentType string
}

var (
	FormatRSS      = Format{Name: "rss", Path: "/rss.xml", ContentType: MIMERSS}
	FormatAtom     = Format{Name: "atom", Path: "/atom.xml", ContentType: MIMEAtom}
	FormatJSONFeed = Format{Name: "json", Path: "/feed.json", ContentType: MIMEJSONFeed}

	Formats = []Format{FormatRSS, FormatAtom, FormatJSONFeed}
)

// FormatByName looks a format up by its name, as used on the command line.
func FormatByName(name string) (Format, bool) {
	for _, format := range Formats {
		if format.Name == name {
			return format, true
		}
	}
	return Format{}, false
}

// Addresses fills in the site and feed URLs of meta for a language. The
// French site lives at the root, the English one under /en.
func (m Metadata) Addresses(baseURL string, format Format) Metadata {
	siteURL := strings.TrimRight(baseURL, "/")
	m.SiteURL = siteURL
	m.FeedURL = siteURL + format.Path
	if m.Language == blog.LocaleEN {
		m.URL = siteURL + "/en"
	} else {
		m.URL = siteURL
		m.FeedURL += "?lang=" + m.Language
	}
	return m
}

func (g *Generator) Generate(ctx context.Context, format Format, meta Metadata) ([]byte, error) {
	switch format.Name {
	case FormatRSS.Name:
		return g.RSS(ctx, meta)
	case FormatAtom.Name:
		return g.Atom(ctx, meta)
	case FormatJSONFeed.Name:
		return g.JSONFeed(ctx, meta)
	}
	return nil, fmt.Errorf("unknown feed format '%s'", format.Name)
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	DCNS    string     `xml:"xmlns:dc,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	AtomLink      xmlLink   `xml:"atom:link"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type xmlLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr,omitempty"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        rssGUID  `xml:"guid"`
	Description string   `xml:"description"`
	Creator     string   `xml:"dc:creator"`
	PubDate     string   `xml:"pubDate"`
	Categories  []string `xml:"category"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// RSS renders an RSS 2.0 channel with an atom:link self reference.
func RSS(posts []blog.ListItem, meta Metadata, now time.Time) ([]byte, error) {
	channel := rssChannel{
		Title:         meta.Title,
		Link:          meta.URL,
		Description:   meta.Description,
		Language:      meta.Language,
		AtomLink:      xmlLink{Href: meta.FeedURL, Rel: "self", Type: "application/rss+xml"},
		LastBuildDate: now.UTC().Format(http.TimeFormat),
		Items:         make([]rssItem, 0, len(posts)),
	}

	for _, post := range posts {
		link := PostURL(meta.URL, post.Slug)
		channel.Items = append(channel.Items, rssItem{
			Title:       post.Metadata.Title,
			Link:        link,
			GUID:        rssGUID{IsPermaLink: true, Value: link},
			Description: post.Metadata.Description,
			Creator:     authorOf(post, meta),
			PubDate:     post.Metadata.Time().UTC().Format(http.TimeFormat),
			Categories:  post.Metadata.Categories,
		})
	}

	return marshalXML(rssDocument{
		Version: "2.0",
		AtomNS:  "http://www.w3.org/2005/Atom",
		DCNS:    "http://purl.org/dc/elements/1.1/",
		Channel: channel,
	})
}

type atomDocument struct {
	XMLName  xml.Name    `xml:"feed"`
	NS       string      `xml:"xmlns,attr"`
	Lang     string      `xml:"xml:lang,attr"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle"`
	Links    []xmlLink   `xml:"link"`
	ID       string      `xml:"id"`
	Updated  string      `xml:"updated"`
	Author   atomPerson  `xml:"author"`
	Entries  []atomEntry `xml:"entry"`
}

type atomPerson struct {
	Name string `xml:"name"`
}

type atomEntry struct {
	Title      string         `xml:"title"`
	Link       xmlLink        `xml:"link"`
	ID         string         `xml:"id"`
	Updated    string         `xml:"updated"`
	Published  string         `xml:"published"`
	Summary    string         `xml:"summary"`
	Author     atomPerson     `xml:"author"`
	Categories []atomCategory `xml:"category"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// Atom renders an Atom 1.0 feed.
func Atom(posts []blog.ListItem, meta Metadata, now time.Time) ([]byte, error) {
	doc := atomDocument{
		NS:       "http://www.w3.org/2005/Atom",
		Lang:     meta.Language,
		Title:    meta.Title,
		Subtitle: meta.Description,
		Links: []xmlLink{
			{Href: meta.FeedURL, Rel: "self", Type: "application/atom+xml"},
			{Href: meta.URL, Rel: "alternate", Type: "text/html"},
		},
		ID:      meta.URL,
		Updated: now.UTC().Format(time.RFC3339),
		Author:  atomPerson{Name: meta.Author},
		Entries: make([]atomEntry, 0, len(posts)),
	}

	for _, post := range posts {
		link := PostURL(meta.URL, post.Slug)
		date := post.Metadata.Time().UTC().Format(time.RFC3339)
		entry := atomEntry{
			Title:      post.Metadata.Title,
			Link:       xmlLink{Href: link, Rel: "alternate", Type: "text/html"},
			ID:         link,
			Updated:    date,
			Published:  date,
			Summary:    post.Metadata.Description,
			Author:     atomPerson{Name: authorOf(post, meta)},
			Categories: make([]atomCategory, 0, len(post.Metadata.Categories)),
		}
		for _, category := range post.Metadata.Categories {
			entry.Categories = append(entry.Categories, atomCategory{Term: category})
		}
		doc.Entries = append(doc.Entries, entry)
	}

	return marshalXML(doc)
}

type jsonFeed struct {
	Version     string         `json:"version"`
	Title       string         `json:"title"`
	HomePageURL string         `json:"home_page_url"`
	FeedURL     string         `json:"feed_url"`
	Description string         `json:"description"`
	Language    string         `json:"language"`
	Authors     []jsonAuthor   `json:"authors"`
	Items       []jsonFeedItem `json:"items"`
}

type jsonAuthor struct {
	Name string `json:"name"`
}

type jsonFeedItem struct {
	ID            string       `json:"id"`
	URL           string       `json:"url"`
	Title         string       `json:"title"`
	Summary       string       `json:"summary"`
	Image         string       `json:"image,omitempty"`
	DatePublished string       `json:"date_published"`
	Authors       []jsonAuthor `json:"authors"`
	Tags          []string     `json:"tags"`
}

// JSONFeed renders a JSON Feed 1.1 document.
func JSONFeed(posts []blog.ListItem, meta Metadata) ([]byte, error) {
	doc := jsonFeed{
		Version:     "https://jsonfeed.org/version/1.1",
		Title:       meta.Title,
		HomePageURL: meta.URL,
		FeedURL:     meta.FeedURL,
		Description: meta.Description,
		Language:    meta.Language,
		Authors:     []jsonAuthor{{Name: meta.Author}},
		Items:       make([]jsonFeedItem, 0, len(posts)),
	}

	for _, post := range posts {
		link := PostURL(meta.URL, post.Slug)
		item := jsonFeedItem{
			ID:            link,
			URL:           link,
			Title:         post.Metadata.Title,
			Summary:       post.Metadata.Description,
			DatePublished: post.Metadata.Time().UTC().Format(time.RFC3339),
			Authors:       []jsonAuthor{{Name: authorOf(post, meta)}},
			Tags:          post.Metadata.Categories,
		}
		if post.Metadata.CoverImage != "" {
			item.Image = absolute(meta.assetBase(), post.Metadata.CoverImage)
		}
		doc.Items = append(doc.Items, item)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("fail to encode json feed: %w", err)
	}
	return out, nil
}

func authorOf(post blog.ListItem, meta Metadata) string {
	if post.Metadata.Author != "" {
		return post.Metadata.Author
	}
	return meta.Author
}

func absolute(siteURL, p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return strings.TrimRight(siteURL, "/") + "/" + strings.TrimLeft(p, "/")
}

func marshalXML(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("fail to encode feed: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
